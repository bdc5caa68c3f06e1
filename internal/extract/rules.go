package extract

import "strings"

// Rule rewrites a raw label when every token in All occurs in it.
// Matching is case-sensitive.
type Rule struct {
	All   []string
	Label string
}

// Rules is evaluated top to bottom; the first match wins.
type Rules []Rule

func (rs Rules) Apply(raw string) string {
	for _, r := range rs {
		if containsAll(raw, r.All) {
			return r.Label
		}
	}
	return raw
}

// PurityRules derives a canonical label from the first purity code found in
// the raw text. Codes that are prefixes of others must come later.
type PurityRules struct {
	Codes  []string
	Suffix string
}

func (p PurityRules) Apply(raw string) (string, bool) {
	for _, c := range p.Codes {
		if strings.Contains(raw, c) {
			return c + " " + p.Suffix, true
		}
	}
	return "", false
}
