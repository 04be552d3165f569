// Package refresh orchestrates the dashboard's data lifecycle: seeding views
// from cache, pulling fresh weather and almanac data on schedule, and
// detecting Taipei calendar-day rollovers. A single busy flag guards every
// entry point; overlapping refresh requests are dropped, never queued.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wallcal/walldash/internal/almanac"
	"github.com/wallcal/walldash/internal/domain"
	"github.com/wallcal/walldash/internal/forecast"
	"github.com/wallcal/walldash/internal/observability"
	"github.com/wallcal/walldash/internal/store"
)

// rolloverCheckMinInterval throttles rollover checks; Resume bypasses it.
const rolloverCheckMinInterval = 60 * time.Second

// LocationResolver maps a session to coordinates.
type LocationResolver interface {
	Resolve(ctx context.Context, session domain.Session) (domain.GeoResult, error)
}

// ForecastFetcher retrieves today's forecast for coordinates.
type ForecastFetcher interface {
	Fetch(ctx context.Context, latitude, longitude float64) (*domain.WeatherSnapshot, error)
}

// AlmanacFetcher retrieves the almanac payload for one calendar day.
type AlmanacFetcher interface {
	Fetch(ctx context.Context, year, month, day int) (*domain.AlmanacSnapshot, error)
}

// Refresher owns the in-memory dashboard views and every path that updates
// them. All refresh entry points share one atomic busy flag.
type Refresher struct {
	store    *store.Store
	resolver LocationResolver
	forecast ForecastFetcher
	almanac  AlmanacFetcher
	terms    *almanac.TermIndex
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	busy  atomic.Bool
	ready atomic.Bool

	mu                  sync.RWMutex
	session             domain.Session
	view                DashboardView
	lastDateKey         string
	lastRolloverCheckMs int64
}

// New creates a Refresher for the given initial session.
func New(session domain.Session, st *store.Store, resolver LocationResolver, fc ForecastFetcher, al AlmanacFetcher, terms *almanac.TermIndex, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	r := &Refresher{
		store:    st,
		resolver: resolver,
		forecast: fc,
		almanac:  al,
		terms:    terms,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		session:  session,
	}
	r.lastDateKey = domain.TaipeiDateKey(clock.Now())
	r.view = DashboardView{
		Lang:          session.Lang,
		RawLocation:   session.RawLocation,
		DateKey:       domain.TaipeiDateKey(clock.Now()),
		Location:      locationView(session, true),
		WeatherStatus: WeatherUnavailable,
	}
	return r
}

// Session returns the session currently driving refreshes.
func (r *Refresher) Session() domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session
}

// Snapshot returns a copy of the current dashboard view.
func (r *Refresher) Snapshot() DashboardView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// Ready reports whether at least one refresh cycle has completed since
// startup, successful or not.
func (r *Refresher) Ready() bool {
	return r.ready.Load()
}

// acquire takes the busy flag. The caller must release exactly once when it
// returns true.
func (r *Refresher) acquire(kind string) bool {
	if !r.busy.CompareAndSwap(false, true) {
		r.logger.Info("refresh skipped, cycle in flight", "kind", kind)
		r.metrics.RefreshDropped.WithLabelValues(kind).Inc()
		return false
	}
	r.metrics.RefreshRunning.Set(1)
	return true
}

func (r *Refresher) release() {
	r.metrics.RefreshRunning.Set(0)
	r.busy.Store(false)
}

// SeedFromCache repaints the views from cached envelopes without touching
// the network. Stale data is shown as stale rather than hidden; a blank
// panel is worse than an old reading.
func (r *Refresher) SeedFromCache() {
	session := r.Session()
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var wxEnv domain.WeatherEnvelope
	if r.store.Get(domain.WeatherCacheKey(session.Lang, session.RawLocation), &wxEnv) && wxEnv.Snapshot != nil {
		status := WeatherFresh
		if domain.NeedsWeatherRefresh(&wxEnv, now) {
			status = WeatherStale
		}
		r.view.WeatherStatus = status
		r.view.Weather = forecast.BuildView(session.Lang, wxEnv.Snapshot, now)
		r.view.WeatherUpdatedMs = wxEnv.TimestampMs
		r.view.Location = locationView(session, true)
	}

	var alEnv domain.AlmanacEnvelope
	if r.store.Get(domain.AlmanacCacheKey, &alEnv) && alEnv.Snapshot != nil {
		r.view.Almanac = almanac.BuildView(session.Lang, alEnv.Snapshot, r.terms)
		r.view.AlmanacDateKey = alEnv.DateKey
	}

	r.view.DateKey = domain.TaipeiDateKey(now)
}

// RefreshAll runs one full cycle: cached repaint, then weather and almanac
// refreshes. Dropped silently when a cycle is already in flight. The first
// completed cycle flips readiness regardless of outcome.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	if !r.acquire("full") {
		return nil
	}
	defer r.release()
	defer r.ready.Store(true)

	r.SeedFromCache()

	wxErr := r.refreshWeatherLocked(ctx)
	alErr := r.refreshAlmanacLocked(ctx)

	outcome := "ok"
	err := wxErr
	if err == nil {
		err = alErr
	}
	if err != nil {
		outcome = "error"
	}
	r.metrics.RefreshCycles.WithLabelValues("full", outcome).Inc()
	r.stamp()
	return err
}

// RefreshWeather refreshes only the weather panel. Dropped when busy.
func (r *Refresher) RefreshWeather(ctx context.Context) error {
	if !r.acquire("weather") {
		return nil
	}
	defer r.release()

	err := r.refreshWeatherLocked(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.metrics.RefreshCycles.WithLabelValues("weather", outcome).Inc()
	r.stamp()
	return err
}

// RefreshAlmanac refreshes only the almanac panel. Dropped when busy.
func (r *Refresher) RefreshAlmanac(ctx context.Context) error {
	if !r.acquire("almanac") {
		return nil
	}
	defer r.release()

	err := r.refreshAlmanacLocked(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.metrics.RefreshCycles.WithLabelValues("almanac", outcome).Inc()
	r.stamp()
	return err
}

// refreshWeatherLocked does the actual weather work. Caller holds the busy
// flag, not the mutex.
func (r *Refresher) refreshWeatherLocked(ctx context.Context) error {
	session := r.Session()
	now := r.clock.Now()
	key := domain.WeatherCacheKey(session.Lang, session.RawLocation)

	var cached domain.WeatherEnvelope
	if r.store.Get(key, &cached) && !domain.NeedsWeatherRefresh(&cached, now) {
		r.logger.Debug("weather cache hit", "key", key, "age_ms", now.UnixMilli()-cached.TimestampMs)
		r.setWeather(session, WeatherFresh, cached.Snapshot, cached.TimestampMs, true)
		return nil
	}

	geo, err := r.resolver.Resolve(ctx, session)
	if err != nil {
		r.logger.Warn("location resolution failed", "loc", session.RawLocation, "error", err)
		r.markWeatherFailed(session, false)
		return err
	}

	snapshot, err := r.forecast.Fetch(ctx, geo.Latitude, geo.Longitude)
	if err != nil {
		r.logger.Warn("forecast fetch failed", "loc", session.RawLocation, "error", err)
		r.markWeatherFailed(session, true)
		return err
	}

	ts := r.clock.Now().UnixMilli()
	r.store.Set(key, domain.WeatherEnvelope{
		TimestampMs: ts,
		Snapshot:    snapshot,
		Meta: domain.WeatherMeta{
			Location:  session.RawLocation,
			Lang:      session.Lang,
			Latitude:  geo.Latitude,
			Longitude: geo.Longitude,
		},
	})
	r.setWeather(session, WeatherFresh, snapshot, ts, true)
	return nil
}

// refreshAlmanacLocked does the actual almanac work. On failure the previous
// view stays on screen untouched.
func (r *Refresher) refreshAlmanacLocked(ctx context.Context) error {
	session := r.Session()
	now := r.clock.Now()
	todayKey := domain.TaipeiDateKey(now)

	var cached domain.AlmanacEnvelope
	if r.store.Get(domain.AlmanacCacheKey, &cached) && !domain.NeedsAlmanacRefresh(&cached, todayKey) {
		r.logger.Debug("almanac cache hit", "date", cached.DateKey)
		r.setAlmanac(session, cached.Snapshot, cached.DateKey)
		return nil
	}

	year, month, day := domain.TaipeiYMD(now)
	snapshot, err := r.almanac.Fetch(ctx, year, month, day)
	if err != nil {
		r.logger.Warn("almanac fetch failed, keeping previous view", "error", err)
		return err
	}

	r.store.Set(domain.AlmanacCacheKey, domain.AlmanacEnvelope{
		DateKey:   todayKey,
		SavedAtMs: r.clock.Now().UnixMilli(),
		Snapshot:  snapshot,
	})
	r.setAlmanac(session, snapshot, todayKey)
	return nil
}

// CheckRollover compares the current Taipei date key against the last seen
// one and refreshes the almanac on a change. Throttled to one check per
// minute unless force is set. Returns whether a rollover was handled.
func (r *Refresher) CheckRollover(ctx context.Context, force bool) bool {
	now := r.clock.Now()

	r.mu.Lock()
	if !force && now.UnixMilli()-r.lastRolloverCheckMs < rolloverCheckMinInterval.Milliseconds() {
		r.mu.Unlock()
		return false
	}
	r.lastRolloverCheckMs = now.UnixMilli()

	keyNow := domain.TaipeiDateKey(now)
	if keyNow == r.lastDateKey {
		r.mu.Unlock()
		return false
	}

	from := r.lastDateKey
	r.lastDateKey = keyNow
	r.view.DateKey = keyNow
	r.mu.Unlock()

	r.logger.Info("day rollover detected", "from", from, "to", keyNow)
	r.metrics.DayRollovers.Inc()

	if err := r.RefreshAlmanac(ctx); err != nil {
		r.logger.Warn("rollover almanac refresh failed", "error", err)
	}
	return true
}

// Resume handles a wake-from-idle: an unthrottled rollover check followed by
// a weather-only refresh.
func (r *Refresher) Resume(ctx context.Context) {
	r.logger.Info("resume", "at", r.clock.Now().Format(time.RFC3339))
	r.CheckRollover(ctx, true)
	if err := r.RefreshWeather(ctx); err != nil {
		r.logger.Warn("resume weather refresh failed", "error", err)
	}
}

// Switch changes the active session, repaints from cache, and pulls fresh
// weather for the new language and location.
func (r *Refresher) Switch(ctx context.Context, session domain.Session) error {
	r.mu.Lock()
	r.session = session
	r.view.Lang = session.Lang
	r.view.RawLocation = session.RawLocation
	r.view.Location = locationView(session, true)
	r.mu.Unlock()

	r.SeedFromCache()
	return r.RefreshWeather(ctx)
}

func (r *Refresher) setWeather(session domain.Session, status WeatherStatus, snapshot *domain.WeatherSnapshot, updatedMs int64, resolved bool) {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.view.WeatherStatus = status
	r.view.Weather = forecast.BuildView(session.Lang, snapshot, now)
	r.view.WeatherUpdatedMs = updatedMs
	r.view.Location = locationView(session, resolved)
}

// markWeatherFailed downgrades the weather panel after a failed refresh:
// an existing view turns stale, an empty one turns unavailable.
func (r *Refresher) markWeatherFailed(session domain.Session, resolved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view.WeatherStatus == WeatherFresh {
		r.view.WeatherStatus = WeatherStale
	} else if r.view.WeatherStatus != WeatherStale {
		r.view.WeatherStatus = WeatherUnavailable
	}
	r.view.Location = locationView(session, resolved)
}

func (r *Refresher) setAlmanac(session domain.Session, snapshot *domain.AlmanacSnapshot, dateKey string) {
	view := almanac.BuildView(session.Lang, snapshot, r.terms)
	r.metrics.UnknownYiJiTerms.Set(float64(len(r.terms.UnknownTerms())))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.view.Almanac = view
	r.view.AlmanacDateKey = dateKey
}

func (r *Refresher) stamp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view.UpdatedAtMs = r.clock.Now().UnixMilli()
	r.view.DateKey = domain.TaipeiDateKey(r.clock.Now())
}
