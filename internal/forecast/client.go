// Package forecast fetches the Open-Meteo daily forecast and shapes it into
// the display view the render collaborator consumes.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wallcal/walldash/internal/domain"
	"github.com/wallcal/walldash/internal/observability"
)

// Client queries the Open-Meteo forecast API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a forecast client with a bounded request timeout and a
// circuit breaker in front of the upstream.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "forecast",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL:    "https://api.open-meteo.com/v1/forecast",
		httpClient: &http.Client{Timeout: timeout},
		breaker:    cb,
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch retrieves today's forecast for the given coordinates: current
// conditions, daily aggregates, and the hourly temperature series, all in
// Taipei local time and celsius.
func (c *Client) Fetch(ctx context.Context, latitude, longitude float64) (*domain.WeatherSnapshot, error) {
	params := url.Values{
		"latitude":         {strconv.FormatFloat(latitude, 'f', -1, 64)},
		"longitude":        {strconv.FormatFloat(longitude, 'f', -1, 64)},
		"timezone":         {domain.TimezoneName},
		"forecast_days":    {"1"},
		"temperature_unit": {"celsius"},
		"current":          {"temperature_2m,relative_humidity_2m,apparent_temperature,weather_code"},
		"daily":            {"temperature_2m_max,temperature_2m_min,precipitation_probability_max"},
		"hourly":           {"temperature_2m"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("forecast request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("forecast API error: status %d: %s", resp.StatusCode, body)
		}

		var snapshot domain.WeatherSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &snapshot, nil
	})
	c.metrics.UpstreamDuration.WithLabelValues("forecast").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues("forecast").Inc()
		return nil, err
	}

	return result.(*domain.WeatherSnapshot), nil
}
