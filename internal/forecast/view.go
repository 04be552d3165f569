package forecast

import (
	"math"
	"strconv"
	"time"

	"github.com/wallcal/walldash/internal/domain"
	"github.com/wallcal/walldash/internal/i18n"
)

// trendHours is how far ahead the temperature trend looks.
const trendHours = 6

// TrendPoint is one hourly sample of the upcoming temperature trend.
type TrendPoint struct {
	Time        string  `json:"time"`
	Temperature float64 `json:"temperature"`
}

// View is the display-ready weather panel. Numeric fields are pointers:
// nil means the upstream omitted the reading and the panel shows a dash.
type View struct {
	Emoji         string       `json:"emoji"`
	Description   string       `json:"description"`
	Temperature   *int         `json:"temperature"`
	FeelsLike     *int         `json:"feels_like"`
	FeelsLikeText string       `json:"feels_like_text,omitempty"`
	Humidity      *int         `json:"humidity"`
	TempMin       *int         `json:"temp_min"`
	TempMax       *int         `json:"temp_max"`
	RainChance    *int         `json:"rain_chance"`
	Trend         []TrendPoint `json:"trend,omitempty"`
}

// BuildView shapes a raw snapshot into the display view for one language.
// now selects where the hourly trend window starts; the snapshot's hourly
// timestamps are interpreted in Taipei local time.
func BuildView(lang domain.Language, snapshot *domain.WeatherSnapshot, now time.Time) View {
	if snapshot == nil {
		return View{
			Emoji:       "❓",
			Description: i18n.T(lang, i18n.KeyWeatherNA, nil),
		}
	}

	cur := snapshot.Current
	v := View{
		Emoji:       emojiForCode(cur.WeatherCode),
		Description: i18n.T(lang, i18n.WeatherDescKey(cur.WeatherCode), nil),
		Temperature: round0(cur.Temperature),
		FeelsLike:   round0(cur.Apparent),
		Humidity:    round0(cur.Humidity),
		TempMin:     round0First(snapshot.Daily.TempMin),
		TempMax:     round0First(snapshot.Daily.TempMax),
		RainChance:  round0First(snapshot.Daily.PrecipProbMax),
		Trend:       trendPoints(snapshot, now),
	}
	if v.FeelsLike != nil {
		v.FeelsLikeText = i18n.T(lang, i18n.KeyWeatherFeels, map[string]string{"v": strconv.Itoa(*v.FeelsLike)})
	}
	return v
}

// emojiForCode maps a WMO weather interpretation code to a display glyph.
func emojiForCode(code *int) string {
	if code == nil {
		return "🌤️"
	}
	c := *code
	switch {
	case c == 0:
		return "☀️"
	case c == 1:
		return "🌤️"
	case c == 2:
		return "⛅"
	case c == 3:
		return "☁️"
	case c == 45 || c == 48:
		return "🌫️"
	case (c >= 51 && c <= 57) || (c >= 61 && c <= 67) || (c >= 80 && c <= 82):
		return "🌧️"
	case (c >= 71 && c <= 77) || c == 85 || c == 86:
		return "🌨️"
	case c == 95 || c == 96 || c == 99:
		return "⛈️"
	}
	return "🌤️"
}

// trendPoints collects up to trendHours hourly samples at or after now.
// Fewer than two usable points means no trend is drawn.
func trendPoints(snapshot *domain.WeatherSnapshot, now time.Time) []TrendPoint {
	times := snapshot.Hourly.Time
	temps := snapshot.Hourly.Temperature
	if len(times) == 0 || len(temps) == 0 {
		return nil
	}

	loc := domain.TaipeiLocation()
	var points []TrendPoint
	for i := 0; i < len(times) && i < len(temps); i++ {
		ts, err := time.ParseInLocation("2006-01-02T15:04", times[i], loc)
		if err != nil {
			continue
		}
		if !math.IsNaN(temps[i]) && !ts.Before(now) {
			points = append(points, TrendPoint{Time: times[i], Temperature: temps[i]})
		}
		if len(points) >= trendHours {
			break
		}
	}
	if len(points) < 2 {
		return nil
	}
	return points
}

// round0 rounds to the nearest integer; nil and non-finite values stay nil.
func round0(f *float64) *int {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}

func round0First(vals []float64) *int {
	if len(vals) == 0 {
		return nil
	}
	return round0(&vals[0])
}
