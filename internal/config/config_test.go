package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
credentials:
  email: someone@gmail.com
  password: hunter2
store:
  path: channels.csv
  output_path: extracted.csv
browser:
  headless: false
  profile_root: /tmp/profiles
  action_timeout_seconds: 30
  visible_wait_seconds: 3
solver:
  api_key: solver-key
  timeout_seconds: 90
  poll_interval_seconds: 2
scraper:
  navigate_settle_seconds: 4
  submit_settle_seconds: 2
  halt_on_unavailable: false
metrics:
  enabled: true
  addr: ":9191"
logging:
  development: true
  file_path: out.log
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Credentials.Email != "someone@gmail.com" || cfg.Credentials.Password != "hunter2" {
		t.Fatalf("expected credentials to be loaded, got %+v", cfg.Credentials)
	}
	if cfg.Store.Path != "channels.csv" || cfg.Store.OutputPath != "extracted.csv" {
		t.Fatalf("expected store overrides to apply, got %+v", cfg.Store)
	}
	if cfg.Browser.Headless || cfg.Browser.ProfileRoot != "/tmp/profiles" {
		t.Fatalf("expected browser overrides to apply, got %+v", cfg.Browser)
	}
	if cfg.Scraper.HaltOnUnavailable {
		t.Fatalf("expected halt_on_unavailable override to apply")
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9191" {
		t.Fatalf("expected metrics overrides to apply, got %+v", cfg.Metrics)
	}
	if got := cfg.NavigateSettle(); got != 4*time.Second {
		t.Fatalf("expected navigate settle 4s, got %v", got)
	}
	if got := cfg.SubmitSettle(); got != 2*time.Second {
		t.Fatalf("expected submit settle 2s, got %v", got)
	}
	if got := cfg.SolverTimeout(); got != 90*time.Second {
		t.Fatalf("expected solver timeout 90s, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
credentials:
  email: someone@gmail.com
  password: hunter2
solver:
  api_key: solver-key
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Path != "urls.csv" {
		t.Fatalf("expected default store path, got %q", cfg.Store.Path)
	}
	if !cfg.Browser.Headless {
		t.Fatalf("expected headless default true")
	}
	if !cfg.Scraper.HaltOnUnavailable {
		t.Fatalf("expected halt_on_unavailable default true")
	}
	if cfg.Scraper.NavigateSettleSeconds != 5 || cfg.Scraper.SubmitSettleSeconds != 1 {
		t.Fatalf("expected settle defaults, got %+v", cfg.Scraper)
	}
	if cfg.Logging.FilePath != "scraper.log" {
		t.Fatalf("expected default log file, got %q", cfg.Logging.FilePath)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Credentials: CredentialsConfig{Email: "a@b.com", Password: "pw"},
		Store:       StoreConfig{Path: "urls.csv"},
		Browser:     BrowserConfig{ActionTimeoutSeconds: 45},
		Solver:      SolverConfig{APIKey: "key", TimeoutSeconds: 120},
	}

	tests := []struct {
		name string
		cfg  func() Config
		want string
	}{
		{
			name: "missing email",
			cfg: func() Config {
				c := base
				c.Credentials.Email = ""
				return c
			},
			want: "credentials.email",
		},
		{
			name: "missing password",
			cfg: func() Config {
				c := base
				c.Credentials.Password = ""
				return c
			},
			want: "credentials.password",
		},
		{
			name: "missing api key",
			cfg: func() Config {
				c := base
				c.Solver.APIKey = ""
				return c
			},
			want: "solver.api_key",
		},
		{
			name: "missing store path",
			cfg: func() Config {
				c := base
				c.Store.Path = ""
				return c
			},
			want: "store.path",
		},
		{
			name: "invalid solver timeout",
			cfg: func() Config {
				c := base
				c.Solver.TimeoutSeconds = 0
				return c
			},
			want: "solver.timeout_seconds",
		},
		{
			name: "metrics missing addr",
			cfg: func() Config {
				c := base
				c.Metrics.Enabled = true
				return c
			},
			want: "metrics.addr",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg().Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
