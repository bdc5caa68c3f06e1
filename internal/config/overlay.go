package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// OverlayEnv applies GOLDRATES_* environment overrides on top of cfg.
func OverlayEnv(cfg *Config) error {
	cfg.App.DataDir = getenv("GOLDRATES_DATA_DIR", cfg.App.DataDir)
	cfg.App.Listen = getenv("GOLDRATES_LISTEN", cfg.App.Listen)
	cfg.Database.DSN = getenv("GOLDRATES_DATABASE_URL", cfg.Database.DSN)
	cfg.Logging.Level = getenv("GOLDRATES_LOG_LEVEL", cfg.Logging.Level)
	cfg.Events.RedisURL = getenv("GOLDRATES_REDIS_URL", cfg.Events.RedisURL)
	cfg.Renderer.Path = getenv("GOLDRATES_RENDERER_PATH", cfg.Renderer.Path)

	if v := strings.TrimSpace(os.Getenv("GOLDRATES_SITE_OPTION")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOLDRATES_SITE_OPTION: %w", err)
		}
		cfg.Sites.Option = n
	}
	if v := strings.TrimSpace(os.Getenv("GOLDRATES_INTERVAL_SECONDS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOLDRATES_INTERVAL_SECONDS: %w", err)
		}
		cfg.Polling.IntervalSeconds = n
	}
	return nil
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
