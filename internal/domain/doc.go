// Package domain models the data the wall calendar dashboard assembles:
// resolved locations, weather forecast snapshots, and daily lunar-almanac
// snapshots, together with the freshness policy that decides when each
// cached snapshot must be refetched.
//
// # Cache key layout
//
// The persistent key-value store uses flat string keys:
//
//	geo:{lang}:{rawLocation}  → GeoEnvelope   (7-day TTL, expired entries ignored)
//	wx:{lang}:{rawLocation}   → WeatherEnvelope (2-hour TTL, clock-skew aware)
//	almanac:daily             → AlmanacEnvelope (single slot, today's date only)
//
// Keys embed the *raw* user-supplied location string, not the resolved
// candidate, so repeated queries for the same input hit the cache even when
// the upstream match used a rewritten query.
//
// # Taipei calendar dates
//
// The almanac is keyed by the calendar date in Asia/Taipei, formatted
// "YYYY-MM-DD". The date key is always computed in the target timezone, never
// UTC: at 2025-01-06T00:05 Taipei time the key is "2025-01-06" even though
// UTC still reads 2025-01-05. Taipei observes no daylight saving, so a fixed
// UTC+8 zone is an exact fallback when host tzdata is unavailable.
//
// # Freshness
//
// Weather envelopes are fresh for strictly less than two hours; a negative
// age (wall clock moved backwards) is treated as stale so the dashboard
// recovers from clock skew instead of trusting a future timestamp. Almanac
// envelopes are fresh only while their stored date key equals today's Taipei
// date key. Both predicates are pure functions of the envelope and the
// current time and are re-evaluated on every scheduler tick.
//
// # Weather codes
//
// Forecast snapshots carry WMO weather interpretation codes (0 clear, 1–3
// cloud cover, 45/48 fog, 51–67 drizzle and rain, 71–86 snow, 95–99
// thunderstorms). Codes map to i18n description keys and display emoji; an
// unrecognized code falls back to the generic "wx.unknown" description.
package domain
