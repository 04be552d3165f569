// Package almanac fetches the daily lunar-calendar payload and shapes it
// into the bilingual Yi/Ji panel view.
package almanac

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

// Client queries the calendar provider's daily query endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an almanac client. baseURL is the provider's query
// endpoint; apiKey is sent on every request.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "almanac",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    cb,
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch retrieves the almanac payload for one calendar day. A non-2xx
// status, a payload code other than 200, or a missing data object all fail
// with ErrMalformedAlmanac wrapping where applicable.
func (c *Client) Fetch(ctx context.Context, year, month, day int) (*domain.AlmanacSnapshot, error) {
	params := url.Values{
		"year":  {strconv.Itoa(year)},
		"month": {strconv.Itoa(month)},
		"day":   {strconv.Itoa(day)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("almanac request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("almanac API error: status %d: %s", resp.StatusCode, body)
		}

		var snapshot domain.AlmanacSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &snapshot, nil
	})
	c.metrics.UpstreamDuration.WithLabelValues("almanac").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues("almanac").Inc()
		return nil, err
	}

	snapshot := result.(*domain.AlmanacSnapshot)
	if snapshot.Code != 200 || snapshot.Data == nil {
		c.metrics.UpstreamErrors.WithLabelValues("almanac").Inc()
		return nil, fmt.Errorf("%w: code=%d message=%q", domain.ErrMalformedAlmanac, snapshot.Code, snapshot.Message)
	}

	c.logger.Debug("almanac fetched",
		"year", year, "month", month, "day", day,
		"jieqi", snapshot.Data.SolarTerm)
	return snapshot, nil
}
