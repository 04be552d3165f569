package refresh

import (
	"github.com/wallcal/walldash/internal/almanac"
	"github.com/wallcal/walldash/internal/domain"
	"github.com/wallcal/walldash/internal/forecast"
	"github.com/wallcal/walldash/internal/i18n"
)

// WeatherStatus is the weather panel's tri-state freshness.
type WeatherStatus string

const (
	// WeatherFresh means the view comes from a snapshot inside its TTL.
	WeatherFresh WeatherStatus = "fresh"

	// WeatherStale means the view comes from an expired snapshot kept on
	// screen while a refresh is pending or failing.
	WeatherStale WeatherStatus = "stale"

	// WeatherUnavailable means no usable snapshot exists at all.
	WeatherUnavailable WeatherStatus = "unavailable"
)

// LocationView is the location line under the weather panel.
type LocationView struct {
	Text     string `json:"text"`
	Resolved bool   `json:"resolved"`
}

// DashboardView is one consistent snapshot of everything the render
// collaborator paints.
type DashboardView struct {
	Lang        domain.Language `json:"lang"`
	RawLocation string          `json:"raw_location"`
	DateKey     string          `json:"date_key"`

	Location LocationView `json:"location"`

	WeatherStatus    WeatherStatus `json:"weather_status"`
	Weather          forecast.View `json:"weather"`
	WeatherUpdatedMs int64         `json:"weather_updated_ms,omitempty"`

	Almanac        almanac.View `json:"almanac"`
	AlmanacDateKey string       `json:"almanac_date_key,omitempty"`

	UpdatedAtMs int64 `json:"updated_at_ms,omitempty"`
}

func locationView(session domain.Session, resolved bool) LocationView {
	key := i18n.KeyLocationHint
	if !resolved {
		key = i18n.KeyLocationHintFail
	}
	return LocationView{
		Text:     i18n.T(session.Lang, key, map[string]string{"loc": session.RawLocation}),
		Resolved: resolved,
	}
}
