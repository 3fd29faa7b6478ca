package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Values come from three layers,
// later layers winning: built-in defaults, an optional YAML file, and
// environment variables (including a .env file in the working directory).
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Sheet    SheetConfig    `yaml:"sheet"`
	Sink     SinkConfig     `yaml:"sink"`
	Hydrate  HydrateConfig  `yaml:"hydrate"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

type ProviderConfig struct {
	Token          string `yaml:"token"`
	BaseURL        string `yaml:"base_url"`
	Actor          string `yaml:"actor"`
	ResultsPerPage int    `yaml:"results_per_page"`
	MaxPages       int    `yaml:"max_pages"`
	TimeoutS       int    `yaml:"timeout_s"`
}

type SheetConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Tab             string `yaml:"tab"`
}

type SinkConfig struct {
	// Driver selects the lead destination: gsheet, csv, sqlite, postgres,
	// or stdout (used by --dry-run).
	Driver string `yaml:"driver"`
	// Path is the file location for the csv and sqlite drivers.
	Path string `yaml:"path"`
	// DSN is the connection string for the postgres driver.
	DSN string `yaml:"dsn"`
}

type HydrateConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Fingerprint   string  `yaml:"fingerprint"`
	RPS           float64 `yaml:"rps"`
	Jitter        float64 `yaml:"jitter"`
	MaxConcurrent int     `yaml:"max_concurrent"`
	ProxyFile     string  `yaml:"proxy_file"`
	TimeoutS      int     `yaml:"timeout_s"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type LogConfig struct {
	// Path enables rotating file logging alongside stdout when non-empty.
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL:        "https://api.apify.com",
			Actor:          "apify~google-search-scraper",
			ResultsPerPage: 100,
			MaxPages:       1,
			TimeoutS:       120,
		},
		Sheet: SheetConfig{
			Tab: "Leads",
		},
		Sink: SinkConfig{
			Driver: "gsheet",
		},
		Hydrate: HydrateConfig{
			Fingerprint:   "chrome",
			RPS:           0.5,
			Jitter:        0.3,
			MaxConcurrent: 2,
			TimeoutS:      20,
		},
		Metrics: MetricsConfig{
			Port: 9190,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// non-empty), and environment overrides. A .env file in the working directory
// is loaded first when present. The caller applies any flag overrides and
// then runs Validate.
func Load(path string) (Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv maps the environment contract onto the config. These names predate
// the YAML file and stay supported: APIFY_TOKEN, SHEET_CREDENTIALS, SHEET_ID,
// SHEET_TAB, RESULTS_PER_REQUEST.
func (c *Config) applyEnv() {
	if v := os.Getenv("APIFY_TOKEN"); v != "" {
		c.Provider.Token = v
	}
	if v := os.Getenv("SHEET_CREDENTIALS"); v != "" {
		c.Sheet.CredentialsFile = v
	}
	if v := os.Getenv("SHEET_ID"); v != "" {
		c.Sheet.SpreadsheetID = v
	}
	if v := os.Getenv("SHEET_TAB"); v != "" {
		c.Sheet.Tab = v
	}
	if v := os.Getenv("RESULTS_PER_REQUEST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Provider.ResultsPerPage = n
		}
	}
}

// Validate checks the fields every run needs plus the ones the selected sink
// driver needs.
func (c *Config) Validate() error {
	if c.Provider.Token == "" {
		return fmt.Errorf("config: provider token is required (APIFY_TOKEN)")
	}
	if c.Provider.ResultsPerPage <= 0 {
		return fmt.Errorf("config: provider.results_per_page must be > 0")
	}
	if c.Provider.MaxPages <= 0 {
		return fmt.Errorf("config: provider.max_pages must be > 0")
	}
	if c.Provider.TimeoutS <= 0 {
		return fmt.Errorf("config: provider.timeout_s must be > 0")
	}

	switch c.Sink.Driver {
	case "gsheet":
		if c.Sheet.CredentialsFile == "" {
			return fmt.Errorf("config: sheet.credentials_file is required (SHEET_CREDENTIALS)")
		}
		if c.Sheet.SpreadsheetID == "" {
			return fmt.Errorf("config: sheet.spreadsheet_id is required (SHEET_ID)")
		}
	case "csv", "sqlite":
		if c.Sink.Path == "" {
			return fmt.Errorf("config: sink.path is required for the %s driver", c.Sink.Driver)
		}
	case "postgres":
		if c.Sink.DSN == "" {
			return fmt.Errorf("config: sink.dsn is required for the postgres driver")
		}
	case "stdout":
	default:
		return fmt.Errorf("config: unknown sink driver %q", c.Sink.Driver)
	}

	if c.Hydrate.Enabled {
		if c.Hydrate.RPS <= 0 {
			return fmt.Errorf("config: hydrate.rps must be > 0")
		}
		if c.Hydrate.MaxConcurrent <= 0 {
			return fmt.Errorf("config: hydrate.max_concurrent must be > 0")
		}
	}

	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("config: metrics.port must be a valid port")
	}
	return nil
}
