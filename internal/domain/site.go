package domain

import (
	"fmt"
	"strings"
	"time"
)

type Site string

const (
	SiteTTTBullion Site = "tttbullion"
	SiteMSGold     Site = "msgold"
)

var Sites = []Site{SiteTTTBullion, SiteMSGold}

func ParseSite(s string) (Site, error) {
	switch Site(strings.ToLower(strings.TrimSpace(s))) {
	case SiteTTTBullion:
		return SiteTTTBullion, nil
	case SiteMSGold:
		return SiteMSGold, nil
	}
	return "", fmt.Errorf("unknown site variant %q", s)
}

func (s Site) String() string { return string(s) }

// FixedTimeout is the renderer wall-clock budget a site always gets,
// regardless of the configured script timeout. Zero means "use config".
func (s Site) FixedTimeout() time.Duration {
	if s == SiteTTTBullion {
		return 60 * time.Second
	}
	return 0
}

// Composite reports whether the renderer prints {OurRates, CustomerSell}
// for this site instead of a flat list.
func (s Site) Composite() bool {
	return s == SiteMSGold
}

type TableType string

const (
	OurRates     TableType = "OurRates"
	CustomerSell TableType = "CustomerSell"
)

func ParseTableType(s string) (TableType, error) {
	switch TableType(s) {
	case OurRates, CustomerSell:
		return TableType(s), nil
	}
	return "", fmt.Errorf("unknown table type %q", s)
}
