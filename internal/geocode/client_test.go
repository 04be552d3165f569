package geocode

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallcal/walldash/internal/domain"
	"github.com/wallcal/walldash/internal/observability"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	c.baseURL = server.URL
	return c
}

func TestSearch_DecodesResults(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"latitude":25.0096,"longitude":121.4591,"name":"板橋區",
			 "admin1":"新北市","timezone":"Asia/Taipei","country_code":"TW"}
		]}`))
	})

	results, err := c.Search(context.Background(), "板橋", domain.LangZH, "TW")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 25.0096, results[0].Latitude, 0.0001)
	assert.Equal(t, "板橋區", results[0].Name)
	assert.Equal(t, "新北市", results[0].Admin1)
	assert.Equal(t, "TW", results[0].CountryCode)

	assert.Equal(t, []string{"板橋"}, gotQuery["name"])
	assert.Equal(t, []string{"5"}, gotQuery["count"])
	assert.Equal(t, []string{"zh"}, gotQuery["language"])
	assert.Equal(t, []string{"TW"}, gotQuery["countryCode"])
}

func TestSearch_OmitsCountryCodeWhenEmpty(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	results, err := c.Search(context.Background(), "Banqiao", domain.LangEN, "")
	require.NoError(t, err)
	assert.Empty(t, results, "a body without results is a valid empty answer")
	assert.NotContains(t, gotQuery, "countryCode")
}

func TestSearch_NonOKStatusIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := c.Search(context.Background(), "板橋", domain.LangZH, "TW")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestSearch_MalformedBodyIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": not json`))
	})

	_, err := c.Search(context.Background(), "板橋", domain.LangZH, "TW")
	assert.Error(t, err)
}
