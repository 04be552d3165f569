// Package gazetteer answers Taiwan place-name queries from a static embedded
// table, so common locations resolve with zero network cost before the
// remote geocoding fallback is ever consulted.
package gazetteer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/wallcal/walldash/internal/domain"
)

//go:embed data/tw_locations.json
var embeddedLocations []byte

type cityEntry struct {
	City      string          `json:"city"`
	CityEn    string          `json:"city_en"`
	Districts []districtEntry `json:"districts"`
}

type districtEntry struct {
	Name      string  `json:"name"`
	NameEn    string  `json:"name_en"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// place is one indexed city+district row.
type place struct {
	city       string
	district   string
	cityEn     string
	districtEn string
	latitude   float64
	longitude  float64
}

type cityAlias struct {
	alias     string // substring used for detection ("台北市" or "台北")
	canonical string // index key ("台北市")
}

// Gazetteer is the lazily-built lookup table. Loading is idempotent and
// concurrent-safe: every caller shares one sync.Once build.
type Gazetteer struct {
	raw []byte

	once    sync.Once
	loadErr error

	byCityDistrict   map[string]*place   // zh "city|district"
	byDistrict       map[string][]*place // zh district, resource order
	byCityDistrictEn map[string]*place
	byDistrictEn     map[string][]*place
	cityAliases      []cityAlias // zh, resource order, full name before short
	cityAliasesEn    []cityAlias
}

// New creates a Gazetteer over the embedded Taiwan table.
func New() *Gazetteer {
	return &Gazetteer{raw: embeddedLocations}
}

// NewFromJSON creates a Gazetteer over a caller-supplied table, mainly for
// tests.
func NewFromJSON(data []byte) *Gazetteer {
	return &Gazetteer{raw: data}
}

// Load forces index construction. Safe to call concurrently; later calls
// return the first build's result.
func (g *Gazetteer) Load() error {
	g.once.Do(g.build)
	return g.loadErr
}

func (g *Gazetteer) build() {
	var cities []cityEntry
	if err := json.Unmarshal(g.raw, &cities); err != nil {
		g.loadErr = fmt.Errorf("parse locations table: %w", err)
		return
	}

	g.byCityDistrict = make(map[string]*place)
	g.byDistrict = make(map[string][]*place)
	g.byCityDistrictEn = make(map[string]*place)
	g.byDistrictEn = make(map[string][]*place)

	for _, c := range cities {
		city := normalizeZh(c.City)
		if city == "" {
			continue
		}

		g.addCityAlias(city)
		cityEn := normalizeEn(c.CityEn)
		if cityEn != "" {
			g.cityAliasesEn = append(g.cityAliasesEn, cityAlias{alias: cityEn, canonical: cityEn})
		}

		for _, d := range c.Districts {
			district := normalizeZh(d.Name)
			if district == "" || !finite(d.Latitude) || !finite(d.Longitude) {
				continue
			}

			p := &place{
				city:       city,
				district:   district,
				cityEn:     strings.TrimSpace(c.CityEn),
				districtEn: strings.TrimSpace(d.NameEn),
				latitude:   d.Latitude,
				longitude:  d.Longitude,
			}

			g.indexZh(city, district, p)

			distEn := normalizeEn(d.NameEn)
			if cityEn != "" && distEn != "" {
				g.indexEn(cityEn, distEn, p)
			}
		}
	}
}

// addCityAlias registers the full city name and, when distinct, its short
// form without the trailing 市/縣 marker. Full names come first so "台北市"
// wins over "台北" when both would match.
func (g *Gazetteer) addCityAlias(city string) {
	g.cityAliases = append(g.cityAliases, cityAlias{alias: city, canonical: city})
	if short := stripCityMarker(city); short != city && short != "" {
		g.cityAliases = append(g.cityAliases, cityAlias{alias: short, canonical: city})
	}
}

// indexZh stores the place under both the full district name and its
// suffix-stripped form, so "信義區" and "信義" hit the same row.
func (g *Gazetteer) indexZh(city, district string, p *place) {
	for _, d := range districtKeys(district) {
		key := city + "|" + d
		if _, exists := g.byCityDistrict[key]; !exists {
			g.byCityDistrict[key] = p
		}
		g.byDistrict[d] = append(g.byDistrict[d], p)
	}
}

func (g *Gazetteer) indexEn(cityEn, distEn string, p *place) {
	key := cityEn + "|" + distEn
	if _, exists := g.byCityDistrictEn[key]; !exists {
		g.byCityDistrictEn[key] = p
	}
	g.byDistrictEn[distEn] = append(g.byDistrictEn[distEn], p)
}

func districtKeys(district string) []string {
	if stripped := stripAdminSuffix(district); stripped != district && stripped != "" {
		return []string{district, stripped}
	}
	return []string{district}
}

// Lookup resolves a free-form place string against the local table. Script
// detection (presence of CJK characters) picks the zh or en path regardless
// of the caller's declared language. Returns false on any miss; never errors
// and never touches the network.
func (g *Gazetteer) Lookup(rawInput string) (domain.GeoResult, bool) {
	if g.Load() != nil || rawInput == "" {
		return domain.GeoResult{}, false
	}

	if containsCJK(rawInput) {
		return g.lookupZh(rawInput)
	}
	return g.lookupEn(rawInput)
}

func (g *Gazetteer) lookupZh(rawInput string) (domain.GeoResult, bool) {
	raw := normalizeZh(rawInput)
	if raw == "" {
		return domain.GeoResult{}, false
	}

	var foundCity cityAlias
	for _, c := range g.cityAliases {
		if strings.Contains(raw, c.alias) {
			foundCity = c
			break
		}
	}

	var candidates []string
	if foundCity.alias != "" {
		rest := strings.TrimSpace(strings.Replace(raw, foundCity.alias, "", 1))
		// A short alias match can leave the city's 市/縣 marker at the front
		// of the remainder ("台北" matched in "台北市信義區" leaves "市信義區").
		rest = strings.TrimLeft(rest, "市縣")
		if rest != "" {
			candidates = append(candidates, rest)
		}
	}
	if tokens := strings.Fields(raw); len(tokens) > 0 {
		candidates = append(candidates, tokens[len(tokens)-1])
	}
	candidates = expandSuffixVariants(candidates)

	// Exact city+district match first.
	if foundCity.canonical != "" {
		for _, d := range candidates {
			if p, ok := g.byCityDistrict[foundCity.canonical+"|"+d]; ok {
				return zhResult(p), true
			}
		}
	}

	// District-only fallback: ambiguous names resolve to the first place in
	// resource-declaration order.
	for _, d := range candidates {
		if list := g.byDistrict[d]; len(list) > 0 {
			return zhResult(list[0]), true
		}
	}

	return domain.GeoResult{}, false
}

func (g *Gazetteer) lookupEn(rawInput string) (domain.GeoResult, bool) {
	raw := normalizeEn(rawInput)
	if raw == "" {
		return domain.GeoResult{}, false
	}

	var foundCity cityAlias
	for _, c := range g.cityAliasesEn {
		if strings.Contains(raw, c.alias) {
			foundCity = c
			break
		}
	}

	var candidates []string
	if foundCity.alias != "" {
		if rest := strings.TrimSpace(strings.Replace(raw, foundCity.alias, "", 1)); rest != "" {
			candidates = append(candidates, rest)
		}
	}
	tokens := strings.Fields(raw)
	if len(tokens) > 0 {
		candidates = append(candidates, tokens[0], tokens[len(tokens)-1])
	}

	if foundCity.canonical != "" {
		for _, d := range candidates {
			if p, ok := g.byCityDistrictEn[foundCity.canonical+"|"+d]; ok {
				return enResult(p), true
			}
		}
	}

	for _, d := range candidates {
		if list := g.byDistrictEn[d]; len(list) > 0 {
			return enResult(list[0]), true
		}
	}

	return domain.GeoResult{}, false
}

// expandSuffixVariants keeps each candidate and, when different, its
// admin-suffix-stripped form, preserving order and dropping duplicates.
func expandSuffixVariants(candidates []string) []string {
	var out []string
	seen := make(map[string]bool)
	push := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, c := range candidates {
		push(c)
		push(stripAdminSuffix(c))
	}
	return out
}

func zhResult(p *place) domain.GeoResult {
	return domain.GeoResult{
		Latitude:    p.latitude,
		Longitude:   p.longitude,
		Name:        p.district,
		Admin1:      p.city,
		Timezone:    domain.TimezoneName,
		CountryCode: "TW",
		MatchedName: p.city + p.district,
	}
}

func enResult(p *place) domain.GeoResult {
	name := p.districtEn
	if name == "" {
		name = p.district
	}
	admin := p.cityEn
	if admin == "" {
		admin = p.city
	}
	return domain.GeoResult{
		Latitude:    p.latitude,
		Longitude:   p.longitude,
		Name:        name,
		Admin1:      admin,
		Timezone:    domain.TimezoneName,
		CountryCode: "TW",
		MatchedName: strings.TrimSpace(admin + " " + name),
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
