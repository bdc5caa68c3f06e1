package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMSGoldRateRulesOrder(t *testing.T) {
	cases := map[string]string{
		"GOLD 999.9 (USD/oz)":   "999.9 Gold USD / Oz",
		"GOLD 999.9 (MYR/kg)":   "999.9 Gold MYR / KG",
		"GOLD 999.9 (MYR/tael)": "999.9 Gold MYR / Tael",
		"GOLD 999.9 (MYR/g)":    "999.9 Gold MYR / Gram",
		"USD/MYR":               "USD / MYR",
		"Platinum (USD/OZ)":     "Platinum (USD/OZ)",
	}
	for raw, want := range cases {
		assert.Equal(t, want, msGoldRateRules.Apply(raw), raw)
	}
}

func TestRulesFirstMatchWins(t *testing.T) {
	rs := Rules{
		{All: []string{"a"}, Label: "first"},
		{All: []string{"a", "b"}, Label: "second"},
	}
	assert.Equal(t, "first", rs.Apply("ab"))
	assert.Equal(t, "zz", rs.Apply("zz"))
}

func TestMSGoldPurity(t *testing.T) {
	cases := map[string]string{
		"Gold 999.9":     "999.9 MYR / Gram",
		"Gold 999 (24K)": "999 MYR / Gram",
		"916 (22K)":      "916 MYR / Gram",
		"835":            "835 MYR / Gram",
		"750 (18K)":      "750 MYR / Gram",
		"375 (9K)":       "375 MYR / Gram",
	}
	for raw, want := range cases {
		got, ok := msGoldPurity.Apply(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := msGoldPurity.Apply("Silver bar")
	assert.False(t, ok)
}
