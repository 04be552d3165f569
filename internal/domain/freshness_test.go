package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func wxEnvelopeAt(ts time.Time) *WeatherEnvelope {
	return &WeatherEnvelope{
		TimestampMs: ts.UnixMilli(),
		Snapshot:    &WeatherSnapshot{},
	}
}

func TestNeedsWeatherRefresh_FreshWindow(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just fetched", 0, false},
		{"one minute", time.Minute, false},
		{"just under two hours", 2*time.Hour - time.Millisecond, false},
		{"exactly two hours", 2 * time.Hour, true},
		{"three hours", 3 * time.Hour, true},
		{"negative age (clock skew)", -time.Minute, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := wxEnvelopeAt(now.Add(-tc.age))
			assert.Equal(t, tc.want, NeedsWeatherRefresh(env, now))
		})
	}
}

func TestNeedsWeatherRefresh_DegenerateEnvelopes(t *testing.T) {
	now := time.Now()

	assert.True(t, NeedsWeatherRefresh(nil, now))
	assert.True(t, NeedsWeatherRefresh(&WeatherEnvelope{TimestampMs: now.UnixMilli()}, now),
		"missing snapshot")
	assert.True(t, NeedsWeatherRefresh(&WeatherEnvelope{Snapshot: &WeatherSnapshot{}}, now),
		"zero timestamp")
	assert.True(t, NeedsWeatherRefresh(&WeatherEnvelope{TimestampMs: -5, Snapshot: &WeatherSnapshot{}}, now),
		"negative timestamp")
}

func TestNeedsAlmanacRefresh(t *testing.T) {
	env := &AlmanacEnvelope{
		DateKey:  "2025-01-05",
		Snapshot: &AlmanacSnapshot{Code: 200, Data: &AlmanacData{}},
	}

	assert.False(t, NeedsAlmanacRefresh(env, "2025-01-05"))
	assert.True(t, NeedsAlmanacRefresh(env, "2025-01-06"), "day rollover")
	assert.True(t, NeedsAlmanacRefresh(nil, "2025-01-05"))
	assert.True(t, NeedsAlmanacRefresh(&AlmanacEnvelope{DateKey: "2025-01-05"}, "2025-01-05"),
		"missing snapshot")
	assert.True(t, NeedsAlmanacRefresh(&AlmanacEnvelope{Snapshot: env.Snapshot}, ""),
		"missing date key")
}

func TestGeoEnvelopeExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	fresh := GeoEnvelope{SavedAtMs: now.Add(-time.Hour).UnixMilli()}
	assert.False(t, fresh.Expired(now))

	edge := GeoEnvelope{SavedAtMs: now.Add(-7 * 24 * time.Hour).UnixMilli()}
	assert.False(t, edge.Expired(now), "exactly 7 days is still accepted")

	old := GeoEnvelope{SavedAtMs: now.Add(-7*24*time.Hour - time.Second).UnixMilli()}
	assert.True(t, old.Expired(now))

	assert.True(t, GeoEnvelope{}.Expired(now), "missing savedAt")
}

func TestTaipeiDateKey_RolloverBeforeUTC(t *testing.T) {
	// 2025-01-06 00:05 in Taipei is still 2025-01-05 16:05 UTC.
	utc := time.Date(2025, 1, 5, 16, 5, 0, 0, time.UTC)
	assert.Equal(t, "2025-01-06", TaipeiDateKey(utc))

	y, m, d := TaipeiYMD(utc)
	assert.Equal(t, 2025, y)
	assert.Equal(t, 1, m)
	assert.Equal(t, 6, d)
}

func TestCanonicalQuery(t *testing.T) {
	assert.Equal(t, "新北市板橋區", CanonicalQuery("  新北市板橋區 "))
	assert.Equal(t, "Xinyi District Taipei", CanonicalQuery("Xinyi   District\tTaipei"))
	assert.Equal(t, "", CanonicalQuery("   "))
}

func TestNewSession_DefaultsByLanguage(t *testing.T) {
	s := NewSession(LangZH, "")
	assert.Equal(t, "台北市信義區", s.RawLocation)

	s = NewSession(LangEN, "  ")
	assert.Equal(t, "Xinyi District Taipei", s.RawLocation)

	s = NewSession(LangEN, " Banqiao ")
	assert.Equal(t, "Banqiao", s.RawLocation)
}

func TestHasFiniteCoords(t *testing.T) {
	assert.True(t, GeoResult{Latitude: 25.03, Longitude: 121.56}.HasFiniteCoords())
	assert.True(t, GeoResult{}.HasFiniteCoords(), "zero coordinates are finite")

	nan := GeoResult{Latitude: nanFloat(), Longitude: 121.56}
	assert.False(t, nan.HasFiniteCoords())
}

func nanFloat() float64 {
	var zero float64
	return zero / zero
}
