package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type SiteConfig struct {
	Variant string `yaml:"variant"`
	Company string `yaml:"company"`
	URL     string `yaml:"url"`
}

type Config struct {
	App struct {
		Listen  string `yaml:"listen"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Database struct {
		DSN                    string `yaml:"dsn"`
		PasswordKeyringAccount string `yaml:"password_keyring_account"`
	} `yaml:"database"`

	Sites struct {
		// Option is the 1-based index into List of the vendor to poll.
		Option int          `yaml:"option"`
		List   []SiteConfig `yaml:"list"`
	} `yaml:"sites"`

	Polling struct {
		IntervalSeconds int    `yaml:"interval_seconds"`
		Cron            string `yaml:"cron"`
		InitialDelayMs  int    `yaml:"initial_delay_ms"`
	} `yaml:"polling"`

	Renderer struct {
		Path                  string `yaml:"path"`
		Fetcher               string `yaml:"fetcher"`
		NavigationTimeoutMs   int    `yaml:"navigation_timeout_ms"`
		WaitAfterNavigationMs int    `yaml:"wait_after_navigation_ms"`
		ScriptTimeoutMs       int    `yaml:"script_timeout_ms"`
	} `yaml:"renderer"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	Events struct {
		RedisURL     string `yaml:"redis_url"`
		RedisChannel string `yaml:"redis_channel"`
	} `yaml:"events"`
}

// Default mirrors the service's historical settings.
func Default() Config {
	var c Config
	c.App.Listen = "127.0.0.1:38471"
	c.App.DataDir = "."
	c.Database.DSN = "sqlite:goldrates.db"
	c.Sites.Option = 1
	c.Sites.List = []SiteConfig{
		{Variant: "tttbullion", Company: "TTTBullion", URL: "https://tttbullion.com/"},
		{Variant: "msgold", Company: "MSGold", URL: "https://www.msgold.com.my/"},
	}
	c.Polling.IntervalSeconds = 60
	c.Polling.InitialDelayMs = 500
	c.Renderer.Fetcher = "chrome"
	c.Renderer.NavigationTimeoutMs = 30000
	c.Renderer.WaitAfterNavigationMs = 5000
	c.Renderer.ScriptTimeoutMs = 60000
	c.Logging.Level = "info"
	c.Events.RedisChannel = "goldrates:events"
	return c
}

// Load reads path over the defaults, so keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.Polling.IntervalSeconds) * time.Second
}

func (c Config) InitialDelay() time.Duration {
	return time.Duration(c.Polling.InitialDelayMs) * time.Millisecond
}

func (c Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Renderer.NavigationTimeoutMs) * time.Millisecond
}

func (c Config) PostLoadWait() time.Duration {
	return time.Duration(c.Renderer.WaitAfterNavigationMs) * time.Millisecond
}

func (c Config) ScriptTimeout() time.Duration {
	return time.Duration(c.Renderer.ScriptTimeoutMs) * time.Millisecond
}
