// Package scheduler drives the dashboard's refresh cadence: a weather tick
// aligned to even wall-clock hours and a one-minute rollover poll.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/wallcal/walldash/internal/domain"
)

// weatherPeriod is the aligned weather cadence.
const weatherPeriod = 2 * time.Hour

// rolloverPollPeriod is how often the Taipei date key is re-checked.
const rolloverPollPeriod = 60 * time.Second

// jobTimeout bounds one scheduled refresh.
const jobTimeout = 2 * time.Minute

// Orchestrator is the slice of the refresher the scheduler drives.
type Orchestrator interface {
	RefreshAll(ctx context.Context) error
	RefreshWeather(ctx context.Context) error
	CheckRollover(ctx context.Context, force bool) bool
	Resume(ctx context.Context)
}

// NextAlignedTick returns the first instant strictly after now that falls on
// an even period boundary of the local wall clock. For a 2-hour period that
// is 00:00, 02:00, 04:00 and so on in now's location.
func NextAlignedTick(now time.Time, period time.Duration) time.Time {
	next := now.Truncate(time.Hour).Add(time.Hour)
	periodHours := int(period.Hours())
	if periodHours < 1 {
		periodHours = 1
	}
	for next.Hour()%periodHours != 0 {
		next = next.Add(time.Hour)
	}
	return next
}

// Scheduler arms the periodic refresh jobs.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	orchestrator Orchestrator
	logger       *slog.Logger
}

// New creates a Scheduler running in Taipei local time, the timezone the
// tick alignment and date rollovers are defined in.
func New(orchestrator Orchestrator, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler:    gocron.NewScheduler(domain.TaipeiLocation()),
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Start arms both jobs and starts the scheduler. The weather job first fires
// at the next even-hour boundary and then every fixed period with no
// re-alignment; the rollover poll fires every minute from now.
func (s *Scheduler) Start() error {
	next := NextAlignedTick(time.Now().In(domain.TaipeiLocation()), weatherPeriod)
	s.logger.Info("aligned schedule armed", "tz", domain.TimezoneName, "next", next.Format(time.RFC3339))

	_, err := s.scheduler.Every(weatherPeriod).StartAt(next).Do(func() {
		s.runJob("weather_tick", s.orchestrator.RefreshWeather)
	})
	if err != nil {
		return err
	}

	_, err = s.scheduler.Every(rolloverPollPeriod).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.orchestrator.CheckRollover(ctx, false)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Resume forwards a wake-from-idle signal to the orchestrator.
func (s *Scheduler) Resume() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	s.orchestrator.Resume(ctx)
}

// Stop stops the scheduler and cancels future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// runJob wraps a job body so one failed or panicking tick never kills the
// cadence.
func (s *Scheduler) runJob(name string, fn func(context.Context) error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("scheduled job panicked", "job", name, "panic", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		s.logger.Warn("scheduled job failed", "job", name, "error", err)
	}
}
