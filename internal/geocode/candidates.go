package geocode

import (
	"strings"

	"github.com/wallcal/walldash/internal/domain"
)

// zhCityPrefixes are greater-Taipei city markers stripped to produce shorter
// query variants. Longer prefixes come first so "新北市" is removed before
// "新北" would partially match.
var zhCityPrefixes = []string{"新北市", "新北", "臺北市", "臺北", "台北市", "台北"}

// enCitySuffixes are trailing city qualifiers stripped from English queries.
var enCitySuffixes = []string{", New Taipei City", ", Taipei City", ", Taipei"}

// BuildCandidates derives the ordered remote-query candidates for a raw
// location string. The raw string always comes first; progressively shorter
// variants follow, de-duplicated while preserving order.
func BuildCandidates(raw string, lang domain.Language) []string {
	raw = domain.CanonicalQuery(raw)
	if raw == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	push := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	push(raw)
	if lang == domain.LangEN && !containsCJKRune(raw) {
		buildEnCandidates(raw, push)
	} else {
		buildZhCandidates(raw, push)
	}
	return out
}

func buildZhCandidates(raw string, push func(string)) {
	stripped := raw
	for _, prefix := range zhCityPrefixes {
		if rest := strings.TrimPrefix(stripped, prefix); rest != stripped {
			stripped = strings.TrimSpace(rest)
			break
		}
	}
	push(stripped)

	// Bare name without the trailing admin-division character.
	if r := []rune(stripped); len(r) > 1 {
		switch r[len(r)-1] {
		case '區', '鄉', '鎮', '市':
			push(string(r[:len(r)-1]))
		}
	}
}

func buildEnCandidates(raw string, push func(string)) {
	// First comma segment is usually the district proper.
	segment := raw
	if i := strings.Index(raw, ","); i >= 0 {
		segment = strings.TrimSpace(raw[:i])
	}
	push(segment)

	for _, suffix := range enCitySuffixes {
		if rest := strings.TrimSuffix(raw, suffix); rest != raw {
			push(strings.TrimSpace(rest))
			break
		}
	}

	if rest := strings.TrimSuffix(segment, " District"); rest != segment {
		push(strings.TrimSpace(rest))
	}
}

func containsCJKRune(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}
