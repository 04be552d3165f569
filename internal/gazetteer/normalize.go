package gazetteer

import "strings"

// normalizeZh canonicalizes a zh place string for matching: trim, fold the
// variant character 臺 to 台, turn commas into spaces, collapse whitespace.
// Idempotent.
func normalizeZh(s string) string {
	s = strings.ReplaceAll(s, "臺", "台")
	s = strings.ReplaceAll(s, "，", " ")
	s = strings.ReplaceAll(s, ",", " ")
	return strings.Join(strings.Fields(s), " ")
}

// normalizeEn canonicalizes an en place string: trim, lowercase, commas to
// spaces, collapse whitespace, and drop whole administrative words so
// "Xinyi District, Taipei City" and "xinyi taipei" match the same keys.
// Idempotent.
func normalizeEn(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "，", " ")
	s = strings.ReplaceAll(s, ",", " ")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		switch f {
		case "city", "county", "district", "township":
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// stripAdminSuffix removes one trailing administrative marker (區/鄉/鎮/市)
// from a district candidate. Never applied to city names: stripping 市 from
// "台北市" would break city detection.
func stripAdminSuffix(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	switch runes[len(runes)-1] {
	case '區', '鄉', '鎮', '市':
		return string(runes[:len(runes)-1])
	}
	return s
}

// stripCityMarker removes one trailing 市/縣 from a city name, producing the
// short alias ("台北市" → "台北") used for substring detection.
func stripCityMarker(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	switch runes[len(runes)-1] {
	case '市', '縣':
		return string(runes[:len(runes)-1])
	}
	return s
}

// containsCJK reports whether s contains any CJK unified ideograph. Used to
// pick the zh or en matching path regardless of the declared language.
func containsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}
