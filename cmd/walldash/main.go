package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wallcal/walldash/internal/adapter/httpapi"
	"github.com/wallcal/walldash/internal/almanac"
	"github.com/wallcal/walldash/internal/config"
	"github.com/wallcal/walldash/internal/domain"
	"github.com/wallcal/walldash/internal/forecast"
	"github.com/wallcal/walldash/internal/gazetteer"
	"github.com/wallcal/walldash/internal/geocode"
	"github.com/wallcal/walldash/internal/observability"
	"github.com/wallcal/walldash/internal/refresh"
	"github.com/wallcal/walldash/internal/scheduler"
	"github.com/wallcal/walldash/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	st := store.New(newBackend(cfg, logger), logger)

	gaz := gazetteer.New()
	if err := gaz.Load(); err != nil {
		logger.Error("gazetteer load failed", "error", err)
		os.Exit(1)
	}

	terms := almanac.NewTermIndex()
	if err := terms.Load(); err != nil {
		logger.Error("term dictionary load failed", "error", err)
		os.Exit(1)
	}

	geocodeClient := geocode.NewClient(cfg.UpstreamTimeout, logger, metrics)
	resolver := geocode.NewResolver(st, gaz, geocodeClient, clock, logger, metrics)
	forecastClient := forecast.NewClient(cfg.UpstreamTimeout, logger, metrics)
	almanacClient := almanac.NewClient(cfg.AlmanacBaseURL, cfg.AlmanacAPIKey, cfg.UpstreamTimeout, logger, metrics)

	session := domain.NewSession(domain.ParseLanguage(cfg.DefaultLang), cfg.DefaultLocation)
	refresher := refresh.New(session, st, resolver, forecastClient, almanacClient, terms, clock, logger, metrics)

	sched := scheduler.New(refresher, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := httpapi.NewApp(refresher, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// First full cycle: repaint from cache, then hit the network.
	go func() {
		startCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if err := refresher.RefreshAll(startCtx); err != nil {
			logger.Warn("initial refresh incomplete", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newBackend picks the cache backend: on-disk when a cache directory is
// configured and usable, in-memory otherwise.
func newBackend(cfg *config.Config, logger *slog.Logger) store.Backend {
	if cfg.CacheDir == "" {
		logger.Info("cache directory not set, using in-memory cache")
		return store.NewMemoryBackend()
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		logger.Warn("cache directory unusable, using in-memory cache", "dir", cfg.CacheDir, "error", err)
		return store.NewMemoryBackend()
	}
	logger.Info("cache directory ready", "dir", cfg.CacheDir)
	return store.NewFilesystemBackend(cfg.CacheDir)
}
