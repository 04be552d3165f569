package almanac

import (
	"fmt"
	"strings"

	"github.com/wallcal/walldash/internal/domain"
)

// maxTermsShown caps each Yi/Ji list on the panel.
const maxTermsShown = 6

// jieqiS2T folds the simplified solar-term spellings some provider versions
// emit to their traditional forms.
var jieqiS2T = map[string]string{
	"谷雨": "穀雨",
	"惊蛰": "驚蟄",
	"处暑": "處暑",
	"白露": "白露",
	"霜降": "霜降",
}

// jieqiEn names the 24 solar terms in English.
var jieqiEn = map[string]string{
	"立春": "Start of Spring",
	"雨水": "Rain Water",
	"驚蟄": "Awakening of Insects",
	"春分": "Spring Equinox",
	"清明": "Clear and Bright",
	"穀雨": "Grain Rain",

	"立夏": "Start of Summer",
	"小滿": "Grain Full",
	"芒種": "Grain in Ear",
	"夏至": "Summer Solstice",
	"小暑": "Minor Heat",
	"大暑": "Major Heat",

	"立秋": "Start of Autumn",
	"處暑": "End of Heat",
	"白露": "White Dew",
	"秋分": "Autumn Equinox",
	"寒露": "Cold Dew",
	"霜降": "Frost's Descent",

	"立冬": "Start of Winter",
	"小雪": "Minor Snow",
	"大雪": "Major Snow",
	"冬至": "Winter Solstice",
	"小寒": "Minor Cold",
	"大寒": "Major Cold",
}

// View is the display-ready almanac panel for one language.
type View struct {
	LunarDateText string   `json:"lunar_date_text"`
	SolarTermText string   `json:"solar_term_text"`
	Yi            []string `json:"yi"`
	Ji            []string `json:"ji"`
}

// BuildView shapes a validated snapshot into the panel view. The zh view
// keeps the provider's lunar month/day strings; the en view prefers the
// numeric lunar date when the provider supplies one.
func BuildView(lang domain.Language, snapshot *domain.AlmanacSnapshot, terms *TermIndex) View {
	if snapshot == nil || snapshot.Data == nil {
		return View{}
	}
	d := snapshot.Data

	lunarDate := strings.TrimSpace(d.LunarMonth + " " + d.LunarDay)
	if lang == domain.LangEN {
		y, errY := d.LunarYearN.Int64()
		m, errM := d.LunarMonN.Int64()
		day, errD := d.LunarDayN.Int64()
		if errY == nil && errM == nil && errD == nil {
			lunarDate = fmt.Sprintf("Year %d, Month %d, Day %d", y, m, day)
		}
	}

	return View{
		LunarDateText: lunarDate,
		SolarTermText: translateJieqi(lang, d.SolarTerm),
		Yi:            translateTerms(lang, d.Yi, terms),
		Ji:            translateTerms(lang, d.Ji, terms),
	}
}

func translateJieqi(lang domain.Language, term string) string {
	s := strings.TrimSpace(term)
	if s == "" {
		return ""
	}
	if t, ok := jieqiS2T[s]; ok {
		s = t
	}
	if lang != domain.LangEN {
		return s
	}
	if en, ok := jieqiEn[s]; ok {
		return en
	}
	return s
}

// translateTerms splits a pipe-delimited term string, translates each token,
// and caps the list for display.
func translateTerms(lang domain.Language, pipeText string, terms *TermIndex) []string {
	var out []string
	for _, tok := range strings.Split(pipeText, "|") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		var translated string
		if lang == domain.LangEN {
			translated = terms.TranslateEn(tok)
		} else {
			translated = terms.TranslateZh(tok)
		}
		if translated == "" {
			continue
		}
		out = append(out, translated)
		if len(out) >= maxTermsShown {
			break
		}
	}
	return out
}
