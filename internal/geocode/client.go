package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wallcal/walldash/internal/domain"
	"github.com/wallcal/walldash/internal/observability"
)

// Client queries the Open-Meteo geocoding-by-name API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a geocoding client with a bounded request timeout and a
// circuit breaker in front of the upstream.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "geocoding",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL:    "https://geocoding-api.open-meteo.com/v1/search",
		httpClient: &http.Client{Timeout: timeout},
		breaker:    cb,
		logger:     logger,
		metrics:    metrics,
	}
}

// Search runs one geocoding query. countryCode is optional; when non-empty
// the search is constrained to that country. Returns the upstream's ranked
// candidates; an empty slice is a valid "no results" answer.
func (c *Client) Search(ctx context.Context, name string, lang domain.Language, countryCode string) ([]domain.GeoResult, error) {
	params := url.Values{
		"name":     {name},
		"count":    {"5"},
		"language": {string(lang)},
	}
	if countryCode != "" {
		params.Set("countryCode", countryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("geocoding request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("geocoding API error: status %d: %s", resp.StatusCode, body)
		}

		var decoded response
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return decoded, nil
	})
	c.metrics.UpstreamDuration.WithLabelValues("geocoding").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues("geocoding").Inc()
		return nil, err
	}

	decoded := result.(response)
	out := make([]domain.GeoResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		out = append(out, domain.GeoResult{
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Name:        r.Name,
			Admin1:      r.Admin1,
			Admin2:      r.Admin2,
			Timezone:    r.Timezone,
			CountryCode: r.CountryCode,
		})
	}
	return out, nil
}

// Open-Meteo geocoding API response types.

type response struct {
	Results []result `json:"results"`
}

type result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Name        string  `json:"name"`
	Admin1      string  `json:"admin1"`
	Admin2      string  `json:"admin2"`
	Timezone    string  `json:"timezone"`
	CountryCode string  `json:"country_code"`
}
