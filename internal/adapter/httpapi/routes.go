// Package httpapi is the render collaborator's boundary: a small Fiber app
// serving dashboard view snapshots, lifecycle triggers, and the usual
// health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wallcal/walldash/internal/domain"
	"github.com/wallcal/walldash/internal/refresh"
	"github.com/wallcal/walldash/internal/store"
)

var validate = validator.New()

// Orchestrator is the slice of the refresher the API serves.
type Orchestrator interface {
	Snapshot() refresh.DashboardView
	Session() domain.Session
	Switch(ctx context.Context, session domain.Session) error
	Resume(ctx context.Context)
	RefreshAll(ctx context.Context) error
	Ready() bool
}

// NewApp builds the Fiber app with all routes registered.
func NewApp(orchestrator Orchestrator, st *store.Store, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "walldash",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberrecover.New())
	app.Use(fiberlogger.New())

	registerRoutes(app, orchestrator, st, logger)
	return app
}

// viewQuery holds the optional display parameters every view endpoint takes.
type viewQuery struct {
	Lang string `validate:"omitempty,oneof=zh en"`
	Loc  string
}

func parseViewQuery(c *fiber.Ctx) (viewQuery, error) {
	q := viewQuery{
		Lang: c.Query("lang"),
		Loc:  c.Query("loc"),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// syncSession switches the active session when the request names a different
// language or location, pulling fresh data for it before responding.
func syncSession(c *fiber.Ctx, orchestrator Orchestrator, q viewQuery) error {
	if q.Lang == "" && q.Loc == "" {
		return nil
	}

	current := orchestrator.Session()
	lang := current.Lang
	if q.Lang != "" {
		lang = domain.ParseLanguage(q.Lang)
	}
	loc := q.Loc
	if loc == "" {
		loc = current.RawLocation
	}

	requested := domain.NewSession(lang, loc)
	if requested == current {
		return nil
	}
	return orchestrator.Switch(c.Context(), requested)
}

func registerRoutes(app *fiber.App, orchestrator Orchestrator, st *store.Store, logger *slog.Logger) {
	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		q, err := parseViewQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := syncSession(c, orchestrator, q); err != nil {
			logger.Warn("session switch refresh failed", "error", err)
		}
		return c.JSON(orchestrator.Snapshot())
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		q, err := parseViewQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := syncSession(c, orchestrator, q); err != nil {
			logger.Warn("session switch refresh failed", "error", err)
		}

		v := orchestrator.Snapshot()
		return c.JSON(fiber.Map{
			"status":     v.WeatherStatus,
			"weather":    v.Weather,
			"location":   v.Location,
			"updated_ms": v.WeatherUpdatedMs,
		})
	})

	v1.Get("/almanac", func(c *fiber.Ctx) error {
		v := orchestrator.Snapshot()
		return c.JSON(fiber.Map{
			"almanac":  v.Almanac,
			"date_key": v.AlmanacDateKey,
		})
	})

	// The wall display posts here when it wakes from idle.
	v1.Post("/resume", func(c *fiber.Ctx) error {
		orchestrator.Resume(c.Context())
		return c.JSON(orchestrator.Snapshot())
	})

	v1.Post("/cache/reset", func(c *fiber.Ctx) error {
		logger.Info("cache reset requested")
		st.Reset()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := orchestrator.RefreshAll(ctx); err != nil {
				logger.Warn("post-reset refresh failed", "error", err)
			}
		}()
		return c.SendStatus(fiber.StatusAccepted)
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Get("/readyz", func(c *fiber.Ctx) error {
		if !orchestrator.Ready() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
