package poll

import (
	"goldrates-engine/internal/config"
	"goldrates-engine/internal/domain"
)

// BuildJob turns the current configuration into the job for this tick,
// plus the alternate vendor named in failure recommendations.
func BuildJob(cfg config.Config) (domain.ExtractionJob, *domain.Vendor, error) {
	v, alt, err := cfg.Vendor()
	if err != nil {
		return domain.ExtractionJob{}, nil, err
	}
	job := domain.NewExtractionJob(v, cfg.NavigationTimeout(), cfg.PostLoadWait(), cfg.ScriptTimeout())
	return job, alt, nil
}
