package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallcal/walldash/internal/almanac"
	"github.com/wallcal/walldash/internal/domain"
	"github.com/wallcal/walldash/internal/observability"
	"github.com/wallcal/walldash/internal/store"
)

type fakeResolver struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeResolver) Resolve(context.Context, domain.Session) (domain.GeoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.GeoResult{}, f.err
	}
	return domain.GeoResult{Latitude: 25.033, Longitude: 121.5654, Name: "信義區"}, nil
}

type fakeForecast struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{} // when set, Fetch waits until closed
}

func (f *fakeForecast) Fetch(context.Context, float64, float64) (*domain.WeatherSnapshot, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	var s domain.WeatherSnapshot
	temp := 23.6
	code := 61
	s.Current.Temperature = &temp
	s.Current.WeatherCode = &code
	return &s, nil
}

func (f *fakeForecast) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAlmanac struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeAlmanac) Fetch(_ context.Context, year, month, day int) (*domain.AlmanacSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AlmanacSnapshot{
		Code: 200,
		Data: &domain.AlmanacData{
			LunarMonth: "臘月", LunarDay: "初七", SolarTerm: "小寒",
			Yi: "祭祀", Ji: "動土",
			LunarYearN: json.Number("2024"), LunarMonN: json.Number("12"), LunarDayN: json.Number("7"),
		},
	}, nil
}

func (f *fakeAlmanac) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fixture struct {
	r        *Refresher
	store    *store.Store
	clock    *clockwork.FakeClock
	resolver *fakeResolver
	forecast *fakeForecast
	almanac  *fakeAlmanac
}

func newFixture(t *testing.T, at time.Time) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClockAt(at)
	st := store.New(store.NewMemoryBackend(), logger)
	resolver := &fakeResolver{}
	fc := &fakeForecast{}
	al := &fakeAlmanac{}

	session := domain.NewSession(domain.LangZH, "台北市信義區")
	r := New(session, st, resolver, fc, al, almanac.NewTermIndex(), clock, logger, observability.NewMetricsForTesting())
	return &fixture{r: r, store: st, clock: clock, resolver: resolver, forecast: fc, almanac: al}
}

// taipeiTime builds a wall-clock instant in Taipei local time.
func taipeiTime(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, domain.TaipeiLocation())
}

func TestRefreshAll_FetchesAndCaches(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))

	require.NoError(t, f.r.RefreshAll(context.Background()))

	v := f.r.Snapshot()
	assert.Equal(t, WeatherFresh, v.WeatherStatus)
	require.NotNil(t, v.Weather.Temperature)
	assert.Equal(t, 24, *v.Weather.Temperature)
	assert.Equal(t, "2025-01-06", v.AlmanacDateKey)
	assert.Equal(t, []string{"祭祀"}, v.Almanac.Yi)
	assert.True(t, v.Location.Resolved)
	assert.True(t, f.r.Ready())

	var wxEnv domain.WeatherEnvelope
	require.True(t, f.store.Get("wx:zh:台北市信義區", &wxEnv))
	assert.Equal(t, f.clock.Now().UnixMilli(), wxEnv.TimestampMs)
	assert.Equal(t, "台北市信義區", wxEnv.Meta.Location)

	var alEnv domain.AlmanacEnvelope
	require.True(t, f.store.Get(domain.AlmanacCacheKey, &alEnv))
	assert.Equal(t, "2025-01-06", alEnv.DateKey)
}

func TestRefreshWeather_FreshCacheSkipsNetwork(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))

	require.NoError(t, f.r.RefreshAll(context.Background()))
	resolverCalls := f.resolver.calls
	forecastCalls := f.forecast.callCount()

	// One hour later the envelope is still inside its TTL.
	f.clock.Advance(1 * time.Hour)
	require.NoError(t, f.r.RefreshWeather(context.Background()))

	assert.Equal(t, resolverCalls, f.resolver.calls)
	assert.Equal(t, forecastCalls, f.forecast.callCount())
	assert.Equal(t, WeatherFresh, f.r.Snapshot().WeatherStatus)
}

func TestRefreshWeather_ExpiredCacheRefetches(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))

	require.NoError(t, f.r.RefreshAll(context.Background()))
	forecastCalls := f.forecast.callCount()

	f.clock.Advance(2 * time.Hour)
	require.NoError(t, f.r.RefreshWeather(context.Background()))

	assert.Equal(t, forecastCalls+1, f.forecast.callCount())
}

func TestRefresh_OverlappingCyclesDropped(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))

	block := make(chan struct{})
	f.forecast.block = block

	done := make(chan error, 1)
	go func() { done <- f.r.RefreshAll(context.Background()) }()

	// Wait until the first cycle is inside the forecast fetch.
	require.Eventually(t, func() bool { return f.forecast.callCount() == 1 },
		time.Second, time.Millisecond)

	// Overlapping requests of every kind are dropped, not queued.
	assert.NoError(t, f.r.RefreshAll(context.Background()))
	assert.NoError(t, f.r.RefreshWeather(context.Background()))
	assert.NoError(t, f.r.RefreshAlmanac(context.Background()))
	assert.Equal(t, 1, f.forecast.callCount())
	assert.Equal(t, 0, f.almanac.callCount())

	close(block)
	require.NoError(t, <-done)

	assert.Equal(t, 1, f.forecast.callCount(), "exactly one fetch sequence ran")
	assert.Equal(t, 1, f.almanac.callCount())
}

func TestRefreshWeather_ResolutionFailure(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))
	f.resolver.err = domain.ErrNoGeocodingResult

	err := f.r.RefreshWeather(context.Background())
	require.ErrorIs(t, err, domain.ErrNoGeocodingResult)

	v := f.r.Snapshot()
	assert.Equal(t, WeatherUnavailable, v.WeatherStatus)
	assert.False(t, v.Location.Resolved)
	assert.Contains(t, v.Location.Text, "解析失敗")
}

func TestRefreshWeather_FetchFailureDowngradesToStale(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))

	require.NoError(t, f.r.RefreshAll(context.Background()))
	require.Equal(t, WeatherFresh, f.r.Snapshot().WeatherStatus)

	f.clock.Advance(2 * time.Hour)
	f.forecast.err = errors.New("upstream down")

	require.Error(t, f.r.RefreshWeather(context.Background()))

	v := f.r.Snapshot()
	assert.Equal(t, WeatherStale, v.WeatherStatus, "an existing view degrades to stale, not blank")
	assert.True(t, v.Location.Resolved)
}

func TestRefreshAlmanac_FailureKeepsPreviousView(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))

	require.NoError(t, f.r.RefreshAlmanac(context.Background()))
	require.Equal(t, []string{"祭祀"}, f.r.Snapshot().Almanac.Yi)

	// Next day's fetch fails; yesterday's panel stays up.
	f.clock.Advance(24 * time.Hour)
	f.almanac.err = errors.New("api down")

	require.Error(t, f.r.RefreshAlmanac(context.Background()))
	v := f.r.Snapshot()
	assert.Equal(t, []string{"祭祀"}, v.Almanac.Yi)
	assert.Equal(t, "2025-01-06", v.AlmanacDateKey)
}

func TestRefreshAlmanac_SameDayCacheHit(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))

	require.NoError(t, f.r.RefreshAlmanac(context.Background()))
	require.NoError(t, f.r.RefreshAlmanac(context.Background()))

	assert.Equal(t, 1, f.almanac.callCount(), "same-day refreshes reuse the daily slot")
}

func TestCheckRollover_DetectsTaipeiMidnight(t *testing.T) {
	// 23:59 Taipei on Jan 5.
	f := newFixture(t, taipeiTime(2025, 1, 5, 23, 59, 0))

	// First check initializes the baseline without firing.
	assert.False(t, f.r.CheckRollover(context.Background(), false))
	assert.Equal(t, 0, f.almanac.callCount())

	// Two minutes later it is Jan 6 in Taipei.
	f.clock.Advance(2 * time.Minute)
	assert.True(t, f.r.CheckRollover(context.Background(), false))
	require.Equal(t, 1, f.almanac.callCount())

	v := f.r.Snapshot()
	assert.Equal(t, "2025-01-06", v.DateKey)
	assert.Equal(t, "2025-01-06", v.AlmanacDateKey)
}

func TestCheckRollover_ThrottledToOncePerMinute(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 5, 23, 59, 30))

	assert.False(t, f.r.CheckRollover(context.Background(), false))

	// 45s later midnight has passed, but the throttle holds.
	f.clock.Advance(45 * time.Second)
	assert.False(t, f.r.CheckRollover(context.Background(), false))
	assert.Equal(t, 0, f.almanac.callCount())

	// Past the throttle window the rollover fires.
	f.clock.Advance(20 * time.Second)
	assert.True(t, f.r.CheckRollover(context.Background(), false))
	assert.Equal(t, 1, f.almanac.callCount())
}

func TestCheckRollover_ForceBypassesThrottle(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 5, 23, 59, 30))

	assert.False(t, f.r.CheckRollover(context.Background(), false))

	f.clock.Advance(45 * time.Second)
	assert.True(t, f.r.CheckRollover(context.Background(), true))
	assert.Equal(t, 1, f.almanac.callCount())
}

func TestResume_ForcesRolloverCheckAndWeatherRefresh(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 5, 23, 59, 30))

	require.NoError(t, f.r.RefreshAll(context.Background()))
	forecastCalls := f.forecast.callCount()
	almanacCalls := f.almanac.callCount()

	// Wake up the next morning: rollover fires despite the throttle, and
	// weather is refetched because the envelope is hours old.
	f.clock.Advance(8 * time.Hour)
	f.r.Resume(context.Background())

	assert.Equal(t, almanacCalls+1, f.almanac.callCount())
	assert.Equal(t, forecastCalls+1, f.forecast.callCount())
	assert.Equal(t, "2025-01-06", f.r.Snapshot().DateKey)
}

func TestSeedFromCache_StaleEnvelopeShownAsStale(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))

	temp := 20.0
	var snapshot domain.WeatherSnapshot
	snapshot.Current.Temperature = &temp
	f.store.Set("wx:zh:台北市信義區", domain.WeatherEnvelope{
		TimestampMs: f.clock.Now().Add(-3 * time.Hour).UnixMilli(),
		Snapshot:    &snapshot,
	})

	f.r.SeedFromCache()

	v := f.r.Snapshot()
	assert.Equal(t, WeatherStale, v.WeatherStatus)
	require.NotNil(t, v.Weather.Temperature)
	assert.Equal(t, 20, *v.Weather.Temperature)
}

func TestSeedFromCache_NothingCached(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))

	f.r.SeedFromCache()

	v := f.r.Snapshot()
	assert.Equal(t, WeatherUnavailable, v.WeatherStatus)
	assert.Empty(t, v.Almanac.Yi)
}

func TestSwitch_ChangesSessionAndRefetches(t *testing.T) {
	f := newFixture(t, taipeiTime(2025, 1, 6, 10, 0, 0))

	require.NoError(t, f.r.RefreshAll(context.Background()))
	forecastCalls := f.forecast.callCount()

	session := domain.NewSession(domain.LangEN, "Banqiao, New Taipei City")
	require.NoError(t, f.r.Switch(context.Background(), session))

	v := f.r.Snapshot()
	assert.Equal(t, domain.LangEN, v.Lang)
	assert.Equal(t, "Banqiao, New Taipei City", v.RawLocation)
	assert.Equal(t, forecastCalls+1, f.forecast.callCount(), "new location has no cached envelope")
	assert.Contains(t, v.Location.Text, "Banqiao")

	var wxEnv domain.WeatherEnvelope
	assert.True(t, f.store.Get("wx:en:Banqiao, New Taipei City", &wxEnv))
}
