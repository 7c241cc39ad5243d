// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Store       StoreConfig       `mapstructure:"store"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	Solver      SolverConfig      `mapstructure:"solver"`
	Scraper     ScraperConfig     `mapstructure:"scraper"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// CredentialsConfig holds the login identity used to authenticate the browser session.
type CredentialsConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// StoreConfig sets the path of the backing record file.
type StoreConfig struct {
	Path string `mapstructure:"path"`
	// OutputPath is accepted for compatibility but results are always
	// written back to Path. Reserved.
	OutputPath string `mapstructure:"output_path"`
}

// BrowserConfig configures the headless browser session.
type BrowserConfig struct {
	Headless             bool   `mapstructure:"headless"`
	UserAgent            string `mapstructure:"user_agent"`
	ProfileRoot          string `mapstructure:"profile_root"`
	ActionTimeoutSeconds int    `mapstructure:"action_timeout_seconds"`
	VisibleWaitSeconds   int    `mapstructure:"visible_wait_seconds"`
}

// SolverConfig configures the remote challenge solving service.
type SolverConfig struct {
	APIKey              string `mapstructure:"api_key"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
}

// ScraperConfig governs the per-record processing pipeline.
type ScraperConfig struct {
	NavigateSettleSeconds int  `mapstructure:"navigate_settle_seconds"`
	SubmitSettleSeconds   int  `mapstructure:"submit_settle_seconds"`
	HaltOnUnavailable     bool `mapstructure:"halt_on_unavailable"`
}

// MetricsConfig toggles the optional Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features and the log file sink.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	FilePath    string `mapstructure:"file_path"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.path", "urls.csv")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.profile_root", ".")
	v.SetDefault("browser.action_timeout_seconds", 45)
	v.SetDefault("browser.visible_wait_seconds", 5)
	v.SetDefault("solver.timeout_seconds", 120)
	v.SetDefault("solver.poll_interval_seconds", 5)
	v.SetDefault("scraper.navigate_settle_seconds", 5)
	v.SetDefault("scraper.submit_settle_seconds", 1)
	v.SetDefault("scraper.halt_on_unavailable", true)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.file_path", "scraper.log")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Credentials.Email == "" {
		return fmt.Errorf("credentials.email must be set")
	}
	if c.Credentials.Password == "" {
		return fmt.Errorf("credentials.password must be set")
	}
	if c.Solver.APIKey == "" {
		return fmt.Errorf("solver.api_key must be set")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must be set")
	}
	if c.Solver.TimeoutSeconds <= 0 {
		return fmt.Errorf("solver.timeout_seconds must be > 0")
	}
	if c.Browser.ActionTimeoutSeconds <= 0 {
		return fmt.Errorf("browser.action_timeout_seconds must be > 0")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must be set when metrics are enabled")
	}
	return nil
}

// NavigateSettle converts the post-navigation settle knob into a duration.
func (c Config) NavigateSettle() time.Duration {
	return time.Duration(c.Scraper.NavigateSettleSeconds) * time.Second
}

// SubmitSettle converts the post-submission settle knob into a duration.
func (c Config) SubmitSettle() time.Duration {
	return time.Duration(c.Scraper.SubmitSettleSeconds) * time.Second
}

// SolverTimeout converts the solver deadline knob into a duration.
func (c Config) SolverTimeout() time.Duration {
	return time.Duration(c.Solver.TimeoutSeconds) * time.Second
}
