// Package i18n holds the dashboard's bilingual string tables. Message keys
// are a typed enumeration; templates substitute {placeholder} tokens.
package i18n

import (
	"strconv"
	"strings"

	"github.com/wallcal/walldash/internal/domain"
)

// Key identifies one translatable message.
type Key string

const (
	KeyPanelWeatherTitle Key = "panel.weather.title"
	KeyPanelLunarTitle   Key = "panel.lunar.title"
	KeyLabelNow          Key = "label.now"
	KeyLabelUpdated      Key = "label.updated"
	KeyLunarYi           Key = "lunar.yi"
	KeyLunarJi           Key = "lunar.ji"
	KeyLunarDatePrefix   Key = "lunar.datePrefix"
	KeyLunarTermPrefix   Key = "lunar.termPrefix"
	KeyLunarNone         Key = "lunar.none"
	KeyWeatherToday      Key = "weather.today"
	KeyWeatherRain       Key = "weather.rain"
	KeyWeatherHumidity   Key = "weather.humidity"
	KeyWeatherFeels      Key = "weather.feels"
	KeyWeatherNA         Key = "weather.na"
	KeyWeatherLoading    Key = "weather.loading"
	KeyLocationFooter    Key = "location.footer"
	KeyLocationHint      Key = "location.weatherHint"
	KeyLocationHintFail  Key = "location.weatherHint.fail"
	KeyWxUnknown         Key = "wx.unknown"
)

// WeatherDescKey maps a WMO weather code to its description key. Unknown or
// missing codes fall back to the generic description.
func WeatherDescKey(code *int) Key {
	if code == nil {
		return KeyWxUnknown
	}
	k := Key("wx." + strconv.Itoa(*code))
	if _, ok := zh[k]; !ok {
		return KeyWxUnknown
	}
	return k
}

// T renders key in the given language, substituting each vars entry for its
// {name} token. Missing keys fall back to the zh table and finally to the
// key itself, so a table gap shows up on screen instead of crashing.
func T(lang domain.Language, key Key, vars map[string]string) string {
	table := zh
	if lang == domain.LangEN {
		table = en
	}

	s, ok := table[key]
	if !ok {
		if s, ok = zh[key]; !ok {
			s = string(key)
		}
	}

	for k, v := range vars {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

var zh = map[Key]string{
	KeyPanelWeatherTitle: "今日天氣",
	KeyPanelLunarTitle:   "農民曆",
	KeyLabelNow:          "現在：",
	KeyLabelUpdated:      "更新：",
	KeyLunarYi:           "宜",
	KeyLunarJi:           "忌",
	KeyLunarDatePrefix:   "農曆：",
	KeyLunarTermPrefix:   "節氣：",
	KeyLunarNone:         "無",
	KeyWeatherToday:      "今日",
	KeyWeatherRain:       "降雨",
	KeyWeatherHumidity:   "濕度",
	KeyWeatherFeels:      "體感 {v}°C",
	KeyWeatherNA:         "無資料",
	KeyWeatherLoading:    "更新中…",
	KeyLocationFooter:    "地點：{loc}",
	KeyLocationHint:      "地點：{loc}",
	KeyLocationHintFail:  "地點：{loc}（地名解析失敗，請換個寫法）",

	// WMO weather interpretation codes.
	"wx.0":       "晴朗",
	"wx.1":       "大致晴朗",
	"wx.2":       "局部多雲",
	"wx.3":       "陰天",
	"wx.45":      "有霧",
	"wx.48":      "霧（霧淞）",
	"wx.51":      "毛毛雨（小）",
	"wx.53":      "毛毛雨（中）",
	"wx.55":      "毛毛雨（大）",
	"wx.56":      "凍毛毛雨（小）",
	"wx.57":      "凍毛毛雨（大）",
	"wx.61":      "下雨（小）",
	"wx.63":      "下雨（中）",
	"wx.65":      "下雨（大）",
	"wx.66":      "凍雨（小）",
	"wx.67":      "凍雨（大）",
	"wx.71":      "下雪（小）",
	"wx.73":      "下雪（中）",
	"wx.75":      "下雪（大）",
	"wx.77":      "雪粒",
	"wx.80":      "陣雨（小）",
	"wx.81":      "陣雨（中）",
	"wx.82":      "陣雨（大）",
	"wx.85":      "陣雪（小）",
	"wx.86":      "陣雪（大）",
	"wx.95":      "雷雨",
	"wx.96":      "雷雨（冰雹）",
	"wx.99":      "強雷雨（冰雹）",
	KeyWxUnknown: "天氣狀態",
}

var en = map[Key]string{
	KeyPanelWeatherTitle: "Weather",
	KeyPanelLunarTitle:   "Lunar Almanac",
	KeyLabelNow:          "Now: ",
	KeyLabelUpdated:      "Updated: ",
	KeyLunarYi:           "Auspicious",
	KeyLunarJi:           "Inauspicious",
	KeyLunarDatePrefix:   "Lunar: ",
	KeyLunarTermPrefix:   "Solar term: ",
	KeyLunarNone:         "N/A",
	KeyWeatherToday:      "Today",
	KeyWeatherRain:       "Rain",
	KeyWeatherHumidity:   "Humidity",
	KeyWeatherFeels:      "Feels like {v}°C",
	KeyWeatherNA:         "N/A",
	KeyWeatherLoading:    "Updating…",
	KeyLocationFooter:    "Location: {loc}",
	KeyLocationHint:      "Location: {loc}",
	KeyLocationHintFail:  "Location: {loc} (Geocoding failed. Try another name.)",

	"wx.0":       "Clear sky",
	"wx.1":       "Mainly clear",
	"wx.2":       "Partly cloudy",
	"wx.3":       "Overcast",
	"wx.45":      "Fog",
	"wx.48":      "Rime fog",
	"wx.51":      "Drizzle (light)",
	"wx.53":      "Drizzle (moderate)",
	"wx.55":      "Drizzle (dense)",
	"wx.56":      "Freezing drizzle (light)",
	"wx.57":      "Freezing drizzle (dense)",
	"wx.61":      "Rain (slight)",
	"wx.63":      "Rain (moderate)",
	"wx.65":      "Rain (heavy)",
	"wx.66":      "Freezing rain (light)",
	"wx.67":      "Freezing rain (heavy)",
	"wx.71":      "Snow (slight)",
	"wx.73":      "Snow (moderate)",
	"wx.75":      "Snow (heavy)",
	"wx.77":      "Snow grains",
	"wx.80":      "Rain showers (slight)",
	"wx.81":      "Rain showers (moderate)",
	"wx.82":      "Rain showers (violent)",
	"wx.85":      "Snow showers (slight)",
	"wx.86":      "Snow showers (heavy)",
	"wx.95":      "Thunderstorm",
	"wx.96":      "Thunderstorm with hail",
	"wx.99":      "Thunderstorm with heavy hail",
	KeyWxUnknown: "Weather",
}
