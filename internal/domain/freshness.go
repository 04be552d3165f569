package domain

import "time"

const (
	// WeatherTTL is the maximum age of a weather envelope before refetch.
	WeatherTTL = 2 * time.Hour

	// GeoCacheTTL is the maximum age of a cached geocoding result.
	GeoCacheTTL = 7 * 24 * time.Hour
)

// NeedsWeatherRefresh reports whether a cached weather envelope must be
// refetched at time now. A missing envelope, missing snapshot, unusable
// timestamp, age of two hours or more, or a negative age (clock moved
// backwards) all force a refresh. Pure; callers re-evaluate on every tick.
func NeedsWeatherRefresh(env *WeatherEnvelope, now time.Time) bool {
	if env == nil || env.Snapshot == nil {
		return true
	}
	if env.TimestampMs <= 0 {
		return true
	}
	age := now.UnixMilli() - env.TimestampMs
	return age < 0 || age >= WeatherTTL.Milliseconds()
}

// NeedsAlmanacRefresh reports whether the daily almanac slot must be
// refetched given today's Taipei date key. Any mismatch means the stored
// envelope belongs to a previous day and is discarded, not merged.
func NeedsAlmanacRefresh(env *AlmanacEnvelope, todayKey string) bool {
	if env == nil || env.Snapshot == nil {
		return true
	}
	return env.DateKey == "" || env.DateKey != todayKey
}

// Expired reports whether a cached geocoding result is past its TTL at time
// now. Expired entries are ignored by readers but left in storage; the next
// successful resolution overwrites them.
func (e GeoEnvelope) Expired(now time.Time) bool {
	if e.SavedAtMs <= 0 {
		return true
	}
	return now.UnixMilli()-e.SavedAtMs > GeoCacheTTL.Milliseconds()
}
