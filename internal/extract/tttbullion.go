package extract

import "goldrates-engine/internal/domain"

// tttBullion publishes one gold table next to a silver one. Labels are
// stored as shown.
type tttBullion struct{}

func (tttBullion) Site() domain.Site { return domain.SiteTTTBullion }

func (tttBullion) Shapes() []Shape {
	return []Shape{{
		Table:      domain.OurRates,
		Require:    []string{"Gold"},
		Exclude:    []string{"Silver"},
		HeaderRows: 1,
		MinCells:   3,
		HasSell:    true,
	}}
}
