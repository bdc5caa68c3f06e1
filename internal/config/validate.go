package config

import (
	"fmt"
	"strings"

	"goldrates-engine/internal/domain"
	"goldrates-engine/internal/scheduler"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a trimmed copy of cfg and everything wrong
// with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Sites.List = make([]SiteConfig, len(cfg.Sites.List))
	for i, s := range cfg.Sites.List {
		s.Variant = strings.ToLower(strings.TrimSpace(s.Variant))
		s.Company = strings.TrimSpace(s.Company)
		s.URL = strings.TrimSpace(s.URL)
		out.Sites.List[i] = s

		if _, err := domain.ParseSite(s.Variant); err != nil {
			res.addErr("sites.list[%d].variant: %v", i, err)
		}
		if s.Company == "" {
			res.addErr("sites.list[%d].company is required", i)
		}
		if s.URL == "" {
			res.addErr("sites.list[%d].url is required", i)
		}
	}
	if len(out.Sites.List) == 0 {
		res.addErr("sites.list must have at least 1 vendor")
	} else if out.Sites.Option < 1 || out.Sites.Option > len(out.Sites.List) {
		res.addErr("sites.option must be 1..%d", len(out.Sites.List))
	}

	// polling sanity
	out.Polling.Cron = strings.TrimSpace(out.Polling.Cron)
	if out.Polling.Cron != "" {
		if _, err := scheduler.ParseSchedule(out.Polling.Cron, 0); err != nil {
			res.addErr("polling.cron: %v", err)
		}
	} else if out.Polling.IntervalSeconds <= 0 {
		res.addErr("polling.interval_seconds must be > 0")
	} else if out.Polling.IntervalSeconds < 15 {
		res.addWarn("polling.interval_seconds is very low (%d); vendors may block the host.", out.Polling.IntervalSeconds)
	}
	if out.Polling.InitialDelayMs < 0 {
		res.addErr("polling.initial_delay_ms must be >= 0")
	}

	// renderer timings
	if out.Renderer.NavigationTimeoutMs <= 0 {
		res.addErr("renderer.navigation_timeout_ms must be > 0")
	}
	if out.Renderer.WaitAfterNavigationMs < 0 {
		res.addErr("renderer.wait_after_navigation_ms must be >= 0")
	}
	if out.Renderer.ScriptTimeoutMs <= 0 {
		res.addErr("renderer.script_timeout_ms must be > 0")
	} else if out.Renderer.ScriptTimeoutMs < out.Renderer.NavigationTimeoutMs+out.Renderer.WaitAfterNavigationMs {
		res.addWarn("renderer.script_timeout_ms (%d) is shorter than navigation + wait; runs may be killed early.", out.Renderer.ScriptTimeoutMs)
	}
	switch strings.ToLower(strings.TrimSpace(out.Renderer.Fetcher)) {
	case "", "chrome", "http":
	default:
		res.addErr("renderer.fetcher must be chrome or http")
	}

	if strings.TrimSpace(out.Database.DSN) == "" {
		res.addErr("database.dsn is required")
	}
	if strings.TrimSpace(out.App.Listen) == "" {
		res.addWarn("app.listen is empty; the control API is disabled.")
	}
	if out.Events.RedisURL != "" && strings.TrimSpace(out.Events.RedisChannel) == "" {
		res.addErr("events.redis_channel is required when events.redis_url is set")
	}

	return out, res
}

// Vendor returns the selected vendor and, if configured, the next one as
// the alternate operators can switch to.
func (c Config) Vendor() (domain.Vendor, *domain.Vendor, error) {
	if c.Sites.Option < 1 || c.Sites.Option > len(c.Sites.List) {
		return domain.Vendor{}, nil, fmt.Errorf("sites.option %d out of range", c.Sites.Option)
	}
	toVendor := func(s SiteConfig) (domain.Vendor, error) {
		site, err := domain.ParseSite(s.Variant)
		if err != nil {
			return domain.Vendor{}, err
		}
		return domain.Vendor{Site: site, Company: s.Company, URL: s.URL}, nil
	}
	cur, err := toVendor(c.Sites.List[c.Sites.Option-1])
	if err != nil {
		return domain.Vendor{}, nil, err
	}
	if len(c.Sites.List) < 2 {
		return cur, nil, nil
	}
	alt, err := toVendor(c.Sites.List[c.Sites.Option%len(c.Sites.List)])
	if err != nil {
		return cur, nil, nil
	}
	return cur, &alt, nil
}
