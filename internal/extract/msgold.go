package extract

import "goldrates-engine/internal/domain"

var msGoldRateRules = Rules{
	{All: []string{"USD", "oz"}, Label: "999.9 Gold USD / Oz"},
	{All: []string{"MYR", "kg"}, Label: "999.9 Gold MYR / KG"},
	{All: []string{"MYR", "tael"}, Label: "999.9 Gold MYR / Tael"},
	{All: []string{"MYR", "g"}, Label: "999.9 Gold MYR / Gram"},
	{All: []string{"USD", "MYR"}, Label: "USD / MYR"},
}

var msGoldPurity = PurityRules{
	Codes:  []string{"999.9", "999", "916", "835", "750", "375"},
	Suffix: "MYR / Gram",
}

var msGoldHeaderLabels = []string{"DETAILS", "WE BUY"}

// msGold publishes a buy/sell table and a buy-only table for customers
// selling back.
type msGold struct{}

func (msGold) Site() domain.Site { return domain.SiteMSGold }

func (msGold) Shapes() []Shape {
	return []Shape{
		{
			Table:      domain.OurRates,
			Require:    []string{"WE BUY", "WE SELL"},
			SkipLabels: msGoldHeaderLabels,
			MinCells:   3,
			HasSell:    true,
			Label: func(raw string) (string, bool) {
				return msGoldRateRules.Apply(raw), true
			},
		},
		{
			Table:      domain.CustomerSell,
			Require:    []string{"WE BUY"},
			Exclude:    []string{"WE SELL"},
			SkipLabels: msGoldHeaderLabels,
			MinCells:   2,
			Label:      msGoldPurity.Apply,
		},
	}
}
