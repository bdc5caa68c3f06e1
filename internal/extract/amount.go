package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

type AmountKind int

const (
	// AmountValue: a number was parsed.
	AmountValue AmountKind = iota
	// AmountAbsent: the cell carried the "no value" marker.
	AmountAbsent
	// AmountInvalid: no numeric token in the cell.
	AmountInvalid
)

var amountToken = regexp.MustCompile(`[\d,.]+`)

// ParseAmount reads the first numeric token of a cell. Grouping commas are
// dropped before conversion, so "1,234.50" and "1234.50" are equal.
func ParseAmount(text string) (decimal.Decimal, AmountKind) {
	text = CleanText(text)
	if text == "" || text == "-" {
		return decimal.Decimal{}, AmountAbsent
	}
	for _, tok := range amountToken.FindAllString(text, -1) {
		tok = strings.ReplaceAll(tok, ",", "")
		tok = strings.TrimRight(tok, ".")
		if tok == "" || strings.Trim(tok, ".") == "" {
			continue
		}
		d, err := decimal.NewFromString(tok)
		if err != nil {
			continue
		}
		return d, AmountValue
	}
	return decimal.Decimal{}, AmountInvalid
}
