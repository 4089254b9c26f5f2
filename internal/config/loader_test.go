package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantError bool
		validate  func(*testing.T, *Config)
	}{
		{
			name: "valid full config",
			yaml: `
source:
  driver: "sqlite"
  path: "./source.sqlite"

defaults:
  timezone: "America/Chicago"
  workers: 4
  job_timeout: 90s

store:
  driver: "json"
  path: "./jobs.json"

server:
  addr: "127.0.0.1:9000"
  base_url: "http://reports.local"

schedule: "@hourly"

logging:
  format: "text"
  level: "debug"
  output: "stdout"
`,
			wantError: false,
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Source.Driver != "sqlite" || cfg.Source.Path != "./source.sqlite" {
					t.Errorf("unexpected source: %+v", cfg.Source)
				}
				if cfg.Defaults.Timezone != "America/Chicago" {
					t.Errorf("expected timezone America/Chicago, got %s", cfg.Defaults.Timezone)
				}
				if cfg.Defaults.Workers != 4 {
					t.Errorf("expected 4 workers, got %d", cfg.Defaults.Workers)
				}
				if cfg.Defaults.JobTimeout != 90*time.Second {
					t.Errorf("expected job timeout 90s, got %s", cfg.Defaults.JobTimeout)
				}
				if cfg.Server.BaseURL != "http://reports.local" {
					t.Errorf("expected base URL, got %q", cfg.Server.BaseURL)
				}
				if cfg.Schedule != "@hourly" {
					t.Errorf("expected schedule @hourly, got %q", cfg.Schedule)
				}
			},
		},
		{
			name:      "empty config gets defaults",
			yaml:      "",
			wantError: false,
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Source.Driver != "csv" || cfg.Source.Path != "./data" {
					t.Errorf("unexpected default source: %+v", cfg.Source)
				}
				if cfg.Defaults.Timezone != "UTC" {
					t.Errorf("expected default timezone UTC, got %s", cfg.Defaults.Timezone)
				}
				if cfg.Defaults.Workers != 8 {
					t.Errorf("expected default workers 8, got %d", cfg.Defaults.Workers)
				}
				if cfg.Defaults.JobTimeout != 0 {
					t.Errorf("expected no default job timeout, got %s", cfg.Defaults.JobTimeout)
				}
				if cfg.Store.Driver != "bbolt" {
					t.Errorf("expected default driver bbolt, got %s", cfg.Store.Driver)
				}
				if cfg.Store.Path != "./.storewatch.db" {
					t.Errorf("expected default path ./.storewatch.db, got %s", cfg.Store.Path)
				}
				if cfg.Server.Addr != ":8080" {
					t.Errorf("expected default addr :8080, got %s", cfg.Server.Addr)
				}
				if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" || cfg.Logging.Output != "stderr" {
					t.Errorf("unexpected default logging: %+v", cfg.Logging)
				}
			},
		},
		{
			name: "sqlite source default path",
			yaml: `
source:
  driver: sqlite
`,
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Source.Path != "./storewatch.sqlite" {
					t.Errorf("expected sqlite default path, got %s", cfg.Source.Path)
				}
			},
		},
		{
			name: "json store default path",
			yaml: `
store:
  driver: json
`,
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Store.Path != "./.storewatch.json" {
					t.Errorf("expected json default path, got %s", cfg.Store.Path)
				}
			},
		},
		{
			name: "invalid source driver",
			yaml: `
source:
  driver: "postgres"
`,
			wantError: true,
		},
		{
			name: "invalid store driver",
			yaml: `
store:
  driver: "sqlite"
`,
			wantError: true,
		},
		{
			name: "negative workers",
			yaml: `
defaults:
  workers: -1
`,
			wantError: true,
		},
		{
			name: "negative job timeout",
			yaml: `
defaults:
  job_timeout: -5s
`,
			wantError: true,
		},
		{
			name: "unknown timezone",
			yaml: `
defaults:
  timezone: "Mars/Olympus_Mons"
`,
			wantError: true,
		},
		{
			name: "invalid schedule",
			yaml: `
schedule: "whenever"
`,
			wantError: true,
		},
		{
			name: "invalid logging format",
			yaml: `
logging:
  format: "xml"
`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create temp file with YAML content
			tmpFile := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(tmpFile, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("failed to write temp config: %v", err)
			}

			cfg, err := LoadConfig(tmpFile)

			if tt.wantError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantError && tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
source:
  driver: csv
  path: [unclosed
`
	if err := os.WriteFile(tmpFile, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	_, err := LoadConfig(tmpFile)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte("defaults:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	t.Setenv(EnvWorkers, "16")
	t.Setenv(EnvJobTimeout, "2m")
	t.Setenv(EnvStoreDriver, "memory")
	t.Setenv(EnvBaseURL, "https://example.test")

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Workers != 16 {
		t.Errorf("expected workers 16 from env, got %d", cfg.Defaults.Workers)
	}
	if cfg.Defaults.JobTimeout != 2*time.Minute {
		t.Errorf("expected job timeout 2m from env, got %s", cfg.Defaults.JobTimeout)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("expected store driver memory from env, got %s", cfg.Store.Driver)
	}
	if cfg.Server.BaseURL != "https://example.test" {
		t.Errorf("expected base URL from env, got %s", cfg.Server.BaseURL)
	}
}

func TestLoadDefault(t *testing.T) {
	t.Setenv(EnvSourceDriver, "sqlite")
	t.Setenv(EnvSourcePath, "/var/lib/storewatch/source.sqlite")

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source.Driver != "sqlite" || cfg.Source.Path != "/var/lib/storewatch/source.sqlite" {
		t.Errorf("source = %+v, want env values", cfg.Source)
	}
	if cfg.Defaults.Timezone != "UTC" || cfg.Defaults.Workers != 8 {
		t.Errorf("defaults not applied: %+v", cfg.Defaults)
	}
	if cfg.Store.Driver != "bbolt" {
		t.Errorf("expected default store driver bbolt, got %s", cfg.Store.Driver)
	}

	t.Setenv(EnvLogFormat, "xml")
	if _, err := LoadDefault(); err == nil {
		t.Error("expected validation error for bad log format")
	}
}

func TestApplyEnvOverridesInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad workers", map[string]string{EnvWorkers: "many"}},
		{"bad timeout", map[string]string{EnvJobTimeout: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			lookup := func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			}
			if err := applyEnvOverrides(cfg, lookup); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storewatch.yaml")

	cfg := NewDefaultConfig()
	cfg.Defaults.JobTimeout = 5 * time.Minute
	cfg.Schedule = "@daily"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Defaults.JobTimeout != 5*time.Minute {
		t.Errorf("job timeout = %s, want 5m", loaded.Defaults.JobTimeout)
	}
	if loaded.Schedule != "@daily" || loaded.Source.StatusFile != "store_status.csv" {
		t.Errorf("unexpected reloaded config: %+v", loaded)
	}
}

func TestSaveConfigRejectsInvalid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.Driver = "cassandra"
	if err := SaveConfig(cfg, filepath.Join(t.TempDir(), "bad.yaml")); err == nil {
		t.Error("expected validation error, got nil")
	}
}
