package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallcal/walldash/internal/domain"
)

func fptr(f float64) *float64 { return &f }
func iptr(n int) *int         { return &n }

func sampleSnapshot() *domain.WeatherSnapshot {
	var s domain.WeatherSnapshot
	s.Current.Temperature = fptr(23.6)
	s.Current.Apparent = fptr(25.4)
	s.Current.Humidity = fptr(78.2)
	s.Current.WeatherCode = iptr(61)
	s.Daily.TempMax = []float64{27.8}
	s.Daily.TempMin = []float64{19.3}
	s.Daily.PrecipProbMax = []float64{65.0}
	s.Hourly.Time = []string{
		"2025-01-06T13:00", "2025-01-06T14:00", "2025-01-06T15:00",
		"2025-01-06T16:00", "2025-01-06T17:00", "2025-01-06T18:00",
		"2025-01-06T19:00", "2025-01-06T20:00", "2025-01-06T21:00",
	}
	s.Hourly.Temperature = []float64{22, 23, 24, 24.5, 24, 23, 22, 21, 20}
	return &s
}

func TestBuildView_RoundsAndTranslates(t *testing.T) {
	now := time.Date(2025, 1, 6, 14, 30, 0, 0, domain.TaipeiLocation())

	v := BuildView(domain.LangZH, sampleSnapshot(), now)

	require.NotNil(t, v.Temperature)
	assert.Equal(t, 24, *v.Temperature)
	assert.Equal(t, 25, *v.FeelsLike)
	assert.Equal(t, 78, *v.Humidity)
	assert.Equal(t, 28, *v.TempMax)
	assert.Equal(t, 19, *v.TempMin)
	assert.Equal(t, 65, *v.RainChance)
	assert.Equal(t, "🌧️", v.Emoji)
	assert.Equal(t, "下雨（小）", v.Description)
	assert.Equal(t, "體感 25°C", v.FeelsLikeText)
}

func TestBuildView_EnglishDescription(t *testing.T) {
	now := time.Date(2025, 1, 6, 14, 30, 0, 0, domain.TaipeiLocation())

	v := BuildView(domain.LangEN, sampleSnapshot(), now)

	assert.Equal(t, "Rain (slight)", v.Description)
	assert.Equal(t, "Feels like 25°C", v.FeelsLikeText)
}

func TestBuildView_TrendStartsAtNowCapsAtSix(t *testing.T) {
	now := time.Date(2025, 1, 6, 14, 30, 0, 0, domain.TaipeiLocation())

	v := BuildView(domain.LangZH, sampleSnapshot(), now)

	// 14:30 skips the 13:00 and 14:00 samples; six points follow.
	require.Len(t, v.Trend, 6)
	assert.Equal(t, "2025-01-06T15:00", v.Trend[0].Time)
	assert.Equal(t, "2025-01-06T20:00", v.Trend[5].Time)
	assert.Equal(t, 24.0, v.Trend[0].Temperature)
}

func TestBuildView_TrendNeedsTwoPoints(t *testing.T) {
	s := sampleSnapshot()
	now := time.Date(2025, 1, 6, 20, 30, 0, 0, domain.TaipeiLocation())

	v := BuildView(domain.LangZH, s, now)

	// Only the 21:00 sample remains; a single point is not a trend.
	assert.Nil(t, v.Trend)
}

func TestBuildView_MissingFieldsStayNil(t *testing.T) {
	var s domain.WeatherSnapshot
	now := time.Date(2025, 1, 6, 14, 0, 0, 0, domain.TaipeiLocation())

	v := BuildView(domain.LangZH, &s, now)

	assert.Nil(t, v.Temperature)
	assert.Nil(t, v.FeelsLike)
	assert.Nil(t, v.Humidity)
	assert.Nil(t, v.TempMin)
	assert.Nil(t, v.TempMax)
	assert.Nil(t, v.RainChance)
	assert.Nil(t, v.Trend)
	assert.Empty(t, v.FeelsLikeText)
	assert.Equal(t, "🌤️", v.Emoji)
	assert.Equal(t, "天氣狀態", v.Description)
}

func TestBuildView_NilSnapshot(t *testing.T) {
	v := BuildView(domain.LangEN, nil, time.Now())

	assert.Equal(t, "❓", v.Emoji)
	assert.Equal(t, "N/A", v.Description)
}

func TestEmojiForCode(t *testing.T) {
	cases := []struct {
		code *int
		want string
	}{
		{nil, "🌤️"},
		{iptr(0), "☀️"},
		{iptr(2), "⛅"},
		{iptr(3), "☁️"},
		{iptr(45), "🌫️"},
		{iptr(55), "🌧️"},
		{iptr(63), "🌧️"},
		{iptr(81), "🌧️"},
		{iptr(75), "🌨️"},
		{iptr(86), "🌨️"},
		{iptr(95), "⛈️"},
		{iptr(42), "🌤️"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, emojiForCode(tc.code))
	}
}

func TestRound0(t *testing.T) {
	assert.Nil(t, round0(nil))
	assert.Equal(t, 24, *round0(fptr(23.5)))
	assert.Equal(t, -3, *round0(fptr(-2.5)))
	nan := 0.0
	nan /= nan
	assert.Nil(t, round0(&nan))
}
