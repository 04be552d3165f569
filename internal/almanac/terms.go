package almanac

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed data/yiji.json
var embeddedTerms []byte

// s2tTerm folds common simplified Yi/Ji tokens to their traditional forms
// before index lookup.
var s2tTerm = map[string]string{
	"开市": "開市", "纳财": "納財", "纳采": "納采", "纳畜": "納畜",
	"动土": "動土", "上梁": "上樑", "安门": "安門", "补垣": "補垣",
	"开池": "開池", "取渔": "取漁", "栽种": "栽種", "经络": "經絡",
	"开光": "開光", "修坟": "修墳", "造桥": "造橋", "造庙": "造廟",
	"谢土": "謝土", "无": "無",
}

type termEntry struct {
	Key     string   `json:"key"`
	Aliases []string `json:"aliases"`
	ZhHant  string   `json:"zhHant"`
	En      string   `json:"en"`
}

type termDict struct {
	Version int         `json:"version"`
	Items   []termEntry `json:"items"`
}

// TermIndex translates almanac Yi/Ji tokens between scripts and languages.
// Unknown tokens pass through verbatim and are remembered for diagnostics.
type TermIndex struct {
	raw []byte

	once    sync.Once
	loadErr error
	index   map[string]*termEntry

	mu      sync.Mutex
	unknown map[string]bool
}

// NewTermIndex creates a TermIndex over the embedded dictionary.
func NewTermIndex() *TermIndex {
	return &TermIndex{raw: embeddedTerms, unknown: make(map[string]bool)}
}

// NewTermIndexFromJSON creates a TermIndex over caller-supplied data, mainly
// for tests.
func NewTermIndexFromJSON(data []byte) *TermIndex {
	return &TermIndex{raw: data, unknown: make(map[string]bool)}
}

// Load forces dictionary parsing. Safe to call concurrently.
func (ti *TermIndex) Load() error {
	ti.once.Do(ti.build)
	return ti.loadErr
}

func (ti *TermIndex) build() {
	var dict termDict
	if err := json.Unmarshal(ti.raw, &dict); err != nil {
		ti.loadErr = fmt.Errorf("parse term dictionary: %w", err)
		return
	}

	ti.index = make(map[string]*termEntry)
	for i := range dict.Items {
		it := &dict.Items[i]
		if key := normalizeToken(it.Key); key != "" {
			ti.index[key] = it
		}
		for _, a := range it.Aliases {
			if key := normalizeToken(a); key != "" {
				ti.index[key] = it
			}
		}
	}
}

// normalizeToken trims punctuation and whitespace, keeps the first
// space-separated token, and folds simplified characters to traditional.
func normalizeToken(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '、', '，', ',', '；', ';', '。', '.':
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	if t, ok := s2tTerm[s]; ok {
		s = t
	}
	return s
}

// TranslateZh returns the traditional-Chinese form of a Yi/Ji token.
func (ti *TermIndex) TranslateZh(term string) string {
	key, it := ti.lookup(term)
	if it == nil {
		return key
	}
	if it.ZhHant != "" {
		return it.ZhHant
	}
	return it.Key
}

// TranslateEn returns the English gloss of a Yi/Ji token, falling back to the
// traditional form when no gloss exists.
func (ti *TermIndex) TranslateEn(term string) string {
	key, it := ti.lookup(term)
	if it == nil {
		return key
	}
	if it.En != "" {
		return it.En
	}
	if it.ZhHant != "" {
		return it.ZhHant
	}
	return it.Key
}

func (ti *TermIndex) lookup(term string) (string, *termEntry) {
	key := normalizeToken(term)
	if key == "" || ti.Load() != nil {
		return key, nil
	}

	it, ok := ti.index[key]
	if !ok {
		ti.mu.Lock()
		ti.unknown[key] = true
		ti.mu.Unlock()
		return key, nil
	}
	return key, it
}

// UnknownTerms returns the distinct tokens seen with no dictionary entry
// since process start.
func (ti *TermIndex) UnknownTerms() []string {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	out := make([]string, 0, len(ti.unknown))
	for k := range ti.unknown {
		out = append(out, k)
	}
	return out
}
