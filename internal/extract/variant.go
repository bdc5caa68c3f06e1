package extract

import (
	"fmt"

	"goldrates-engine/internal/domain"
)

// Shape describes one logical table a vendor page carries.
type Shape struct {
	Table domain.TableType

	// Detection over the table's full text.
	Require []string
	Exclude []string

	// HeaderRows are skipped positionally; SkipLabels drop header-like rows
	// wherever they appear.
	HeaderRows int
	SkipLabels []string

	MinCells int
	HasSell  bool

	// Label maps the raw first-cell text to its canonical form. A false
	// result drops the row.
	Label func(raw string) (string, bool)
}

func (s Shape) Match(text string) bool {
	return containsAll(text, s.Require) && !containsAny(text, s.Exclude)
}

func (s Shape) label(raw string) (string, bool) {
	if s.Label == nil {
		return raw, true
	}
	return s.Label(raw)
}

func (s Shape) headerish(label string) bool {
	return label == "" || containsAny(label, s.SkipLabels)
}

// Variant is the extraction strategy for one vendor site.
type Variant interface {
	Site() domain.Site
	Shapes() []Shape
}

var variants = map[domain.Site]Variant{
	domain.SiteTTTBullion: tttBullion{},
	domain.SiteMSGold:     msGold{},
}

func For(site domain.Site) (Variant, error) {
	v, ok := variants[site]
	if !ok {
		return nil, fmt.Errorf("no extractor for site %q", site)
	}
	return v, nil
}
