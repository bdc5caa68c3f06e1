package domain

import "time"

// ExtractionJob describes one renderer run. It is built once per tick and
// never mutated afterwards.
type ExtractionJob struct {
	Site              Site
	Company           string
	TargetURL         string
	NavigationTimeout time.Duration
	PostLoadWait      time.Duration
	OverallTimeout    time.Duration
}

// NewExtractionJob applies the site's fixed process timeout, if it has one,
// over the configured script timeout.
func NewExtractionJob(v Vendor, nav, wait, script time.Duration) ExtractionJob {
	timeout := script
	if fixed := v.Site.FixedTimeout(); fixed > 0 {
		timeout = fixed
	}
	return ExtractionJob{
		Site:              v.Site,
		Company:           v.Company,
		TargetURL:         v.URL,
		NavigationTimeout: nav,
		PostLoadWait:      wait,
		OverallTimeout:    timeout,
	}
}
