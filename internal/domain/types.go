package domain

import (
	"encoding/json"
	"math"
	"strings"
)

// Language is a two-letter dashboard display language code.
type Language string

const (
	LangZH Language = "zh"
	LangEN Language = "en"
)

// ParseLanguage validates a raw language code, defaulting to zh.
func ParseLanguage(s string) Language {
	if s == string(LangEN) {
		return LangEN
	}
	return LangZH
}

// DefaultLocation returns the language-specific default location string used
// when the caller supplies none.
func DefaultLocation(lang Language) string {
	if lang == LangEN {
		return "Xinyi District Taipei"
	}
	return "台北市信義區"
}

// Session carries the language and raw location of one resolution cycle.
// It is threaded explicitly through every operation; there is no process-wide
// current language or location.
type Session struct {
	Lang        Language
	RawLocation string
}

// NewSession canonicalizes the raw location (trim, collapse whitespace) and
// falls back to the language default when the location is empty.
func NewSession(lang Language, rawLocation string) Session {
	raw := CanonicalQuery(rawLocation)
	if raw == "" {
		raw = DefaultLocation(lang)
	}
	return Session{Lang: lang, RawLocation: raw}
}

// CanonicalQuery trims and whitespace-collapses a free-form location string.
func CanonicalQuery(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// GeoResult is a resolved place: coordinates plus display metadata. Produced
// by either the local gazetteer or the remote geocoding API.
type GeoResult struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Name        string  `json:"name"`
	Admin1      string  `json:"admin1"`
	Admin2      string  `json:"admin2,omitempty"`
	Timezone    string  `json:"timezone"`
	CountryCode string  `json:"country_code"`
	MatchedName string  `json:"matched_name"`
}

// HasFiniteCoords reports whether both coordinates are finite numbers.
// A result failing this check is treated as not found: never cached,
// never rendered.
func (g GeoResult) HasFiniteCoords() bool {
	return !math.IsNaN(g.Latitude) && !math.IsInf(g.Latitude, 0) &&
		!math.IsNaN(g.Longitude) && !math.IsInf(g.Longitude, 0)
}

// GeoEnvelope is a cached GeoResult with its save time.
type GeoEnvelope struct {
	GeoResult
	SavedAtMs int64 `json:"savedAt"`
}

// WeatherSnapshot is the forecast payload for one location: current
// conditions, today's daily aggregates, and an hourly temperature series.
// Current fields are pointers so an absent upstream field renders as "no
// data" rather than a zero reading.
type WeatherSnapshot struct {
	Current struct {
		Time        string   `json:"time,omitempty"`
		Temperature *float64 `json:"temperature_2m,omitempty"`
		Humidity    *float64 `json:"relative_humidity_2m,omitempty"`
		Apparent    *float64 `json:"apparent_temperature,omitempty"`
		WeatherCode *int     `json:"weather_code,omitempty"`
	} `json:"current"`
	Daily struct {
		TempMax       []float64 `json:"temperature_2m_max,omitempty"`
		TempMin       []float64 `json:"temperature_2m_min,omitempty"`
		PrecipProbMax []float64 `json:"precipitation_probability_max,omitempty"`
	} `json:"daily"`
	Hourly struct {
		Time        []string  `json:"time,omitempty"`
		Temperature []float64 `json:"temperature_2m,omitempty"`
	} `json:"hourly"`
}

// WeatherMeta records which query produced a cached snapshot, so a stale
// envelope can never be repainted under a different language or location.
type WeatherMeta struct {
	Location  string   `json:"loc"`
	Lang      Language `json:"lang"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

// WeatherEnvelope wraps a snapshot with its fetch time (Unix milliseconds).
type WeatherEnvelope struct {
	TimestampMs int64            `json:"ts"`
	Snapshot    *WeatherSnapshot `json:"wx"`
	Meta        WeatherMeta      `json:"meta"`
}

// AlmanacData is the almanac provider's per-day payload. YIYEAR/YIMONTH/YIDAY
// arrive as either numbers or numeric strings depending on provider version,
// hence json.Number.
type AlmanacData struct {
	LunarMonth string      `json:"nyue"`
	LunarDay   string      `json:"nri"`
	SolarTerm  string      `json:"jieqi"`
	Yi         string      `json:"yi"` // pipe-delimited auspicious terms
	Ji         string      `json:"ji"` // pipe-delimited inauspicious terms
	LunarYearN json.Number `json:"YIYEAR"`
	LunarMonN  json.Number `json:"YIMONTH"`
	LunarDayN  json.Number `json:"YIDAY"`
}

// AlmanacSnapshot is the raw provider response envelope.
type AlmanacSnapshot struct {
	Code    int          `json:"code"`
	Message string       `json:"message,omitempty"`
	Data    *AlmanacData `json:"data"`
}

// AlmanacEnvelope is the single daily cache slot: one snapshot, valid only
// while DateKey equals today's Taipei date key.
type AlmanacEnvelope struct {
	DateKey   string           `json:"date"`
	SavedAtMs int64            `json:"savedAt"`
	Snapshot  *AlmanacSnapshot `json:"raw"`
}

// Cache key builders. Keys embed the raw location, not the resolved name.

func GeoCacheKey(lang Language, rawLocation string) string {
	return "geo:" + string(lang) + ":" + rawLocation
}

func WeatherCacheKey(lang Language, rawLocation string) string {
	return "wx:" + string(lang) + ":" + rawLocation
}

// AlmanacCacheKey is the single almanac cache slot.
const AlmanacCacheKey = "almanac:daily"
