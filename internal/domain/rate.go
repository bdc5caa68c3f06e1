package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RateRecord is one quoted instrument. WeSell is nil when the table has no
// sell column or the cell carried the "no value" marker.
type RateRecord struct {
	DetailName string
	WeBuy      decimal.Decimal
	WeSell     *decimal.Decimal
}

type rateWire struct {
	DetailName string          `json:"DetailName"`
	WeBuy      json.RawMessage `json:"WeBuy"`
	WeSell     json.RawMessage `json:"WeSell,omitempty"`
}

func (r RateRecord) MarshalJSON() ([]byte, error) {
	out := struct {
		DetailName string       `json:"DetailName"`
		WeBuy      json.Number  `json:"WeBuy"`
		WeSell     *json.Number `json:"WeSell,omitempty"`
	}{DetailName: r.DetailName, WeBuy: json.Number(r.WeBuy.String())}
	if r.WeSell != nil {
		n := json.Number(r.WeSell.String())
		out.WeSell = &n
	}
	return json.Marshal(out)
}

func (r *RateRecord) UnmarshalJSON(b []byte) error {
	var w rateWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	buy, ok, err := decodeAmount(w.WeBuy)
	if err != nil {
		return fmt.Errorf("WeBuy for %q: %w", w.DetailName, err)
	}
	if !ok {
		return fmt.Errorf("WeBuy for %q is missing", w.DetailName)
	}
	sell, ok, err := decodeAmount(w.WeSell)
	if err != nil {
		return fmt.Errorf("WeSell for %q: %w", w.DetailName, err)
	}
	r.DetailName = w.DetailName
	r.WeBuy = buy
	r.WeSell = nil
	if ok {
		r.WeSell = &sell
	}
	return nil
}

// decodeAmount accepts a JSON number or a numeric string. null, "" and "-"
// mean the value is absent.
func decodeAmount(raw json.RawMessage) (decimal.Decimal, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Decimal{}, false, nil
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "-" {
			return decimal.Decimal{}, false, nil
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	return d, true, nil
}

// Batch is one renderer result split by logical table.
type Batch struct {
	OurRates     []RateRecord `json:"OurRates"`
	CustomerSell []RateRecord `json:"CustomerSell"`
}

func (b Batch) Len() int    { return len(b.OurRates) + len(b.CustomerSell) }
func (b Batch) Empty() bool { return b.Len() == 0 }

// Dedupe collapses repeated detail names within each table. The last value
// wins and keeps the position of the first occurrence.
func (b Batch) Dedupe() Batch {
	return Batch{
		OurRates:     dedupe(b.OurRates),
		CustomerSell: dedupe(b.CustomerSell),
	}
}

func dedupe(in []RateRecord) []RateRecord {
	if len(in) == 0 {
		return in
	}
	idx := make(map[string]int, len(in))
	out := make([]RateRecord, 0, len(in))
	for _, r := range in {
		if i, ok := idx[r.DetailName]; ok {
			out[i] = r
			continue
		}
		idx[r.DetailName] = len(out)
		out = append(out, r)
	}
	return out
}

type Table struct {
	Type    TableType
	Records []RateRecord
}

// Tables yields the batch's records grouped by table type, in a stable order.
func (b Batch) Tables() []Table {
	return []Table{
		{Type: OurRates, Records: b.OurRates},
		{Type: CustomerSell, Records: b.CustomerSell},
	}
}
