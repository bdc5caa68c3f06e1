package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"goldrates-engine/internal/bridge"
	"goldrates-engine/internal/config"
	"goldrates-engine/internal/events"
	"goldrates-engine/internal/poll"
	"goldrates-engine/internal/secrets"
	"goldrates-engine/internal/store"
)

// FetcherEnv tells the renderer child which page fetcher to use.
const FetcherEnv = "GOLDRATES_FETCHER"

// app is everything a long-running or one-shot command shares.
type app struct {
	cfgPath string
	cfgVal  *atomic.Value // config.Config
	log     *slog.Logger
	closeLg func() error

	store  store.RateStore
	bridge *bridge.Bridge
	hub    *events.Hub
	redis  *events.RedisPublisher
	runner *poll.Runner
}

func resolveDataDir(flag string) string {
	if flag != "" {
		return flag
	}
	if v := strings.TrimSpace(os.Getenv("GOLDRATES_DATA_DIR")); v != "" {
		return v
	}
	return "."
}

// loadConfig bootstraps config.yml in dataDir, applies the environment and
// validates the result.
func loadConfig(dataDir string) (config.Config, string, []string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return config.Config{}, "", nil, err
	}
	path, err := config.EnsureUserConfig(dataDir)
	if err != nil {
		return config.Config{}, "", nil, fmt.Errorf("config bootstrap failed: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := config.OverlayEnv(&cfg); err != nil {
		return config.Config{}, "", nil, err
	}
	cfg.App.DataDir = dataDir
	cfg, v := config.NormalizeAndValidate(cfg)
	if !v.OK() {
		return config.Config{}, "", nil, fmt.Errorf("invalid config %s: %s", path, strings.Join(v.Errors, "; "))
	}
	return cfg, path, v.Warnings, nil
}

// databaseDSN anchors relative SQLite paths in the data directory.
func databaseDSN(cfg config.Config) string {
	dsn := cfg.Database.DSN
	if store.Backend(dsn) != "sqlite" {
		return dsn
	}
	path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//")
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.App.DataDir, path)
}

func databasePassword(cfg config.Config, log *slog.Logger) string {
	pw, err := secrets.DatabasePassword(cfg.Database.PasswordKeyringAccount)
	if err != nil {
		if cfg.Database.PasswordKeyringAccount != "" {
			log.Warn("database password unavailable; relying on the DSN", "err", err)
		}
		return ""
	}
	return pw
}

func newApp(ctx context.Context, dataDir string) (*app, error) {
	cfg, path, warnings, err := loadConfig(dataDir)
	if err != nil {
		return nil, err
	}
	log, closeLog := config.SetupLogger(cfg.Logging.File, config.ParseLevel(cfg.Logging.Level))
	slog.SetDefault(log)
	for _, w := range warnings {
		log.Warn("config", "warning", w)
	}

	a := &app{cfgPath: path, cfgVal: &atomic.Value{}, log: log, closeLg: closeLog, hub: events.NewHub()}
	a.cfgVal.Store(cfg)

	dsn := databaseDSN(cfg)
	a.store, err = store.Open(ctx, dsn, databasePassword(cfg, log))
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("open %s store: %w", store.Backend(dsn), err)
	}
	log.Info("store ready", "backend", store.Backend(dsn))

	if cfg.Events.RedisURL != "" {
		a.redis, err = events.NewRedisPublisher(cfg.Events.RedisURL, cfg.Events.RedisChannel)
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err = a.redis.Ping(pctx)
			cancel()
		}
		if err != nil {
			log.Warn("redis events disabled", "err", err)
			if a.redis != nil {
				_ = a.redis.Close()
			}
			a.redis = nil
		}
	}

	a.bridge = bridge.New(bridge.Config{
		Executable: cfg.Renderer.Path,
		Env:        []string{FetcherEnv + "=" + cfg.Renderer.Fetcher},
		Logger:     log,
	})
	a.runner = &poll.Runner{
		Extractor: a.bridge,
		Store:     a.store,
		Bus:       &events.Bus{Hub: a.hub, Redis: a.redis, Logger: log},
		Logger:    log,
		CfgVal:    a.cfgVal,
	}
	return a, nil
}

func (a *app) config() config.Config { return a.cfgVal.Load().(config.Config) }

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("store close", "err", err)
	}
	_ = a.closeLg()
}
