package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Diff.ReconcileParameterTypes {
		t.Error("parameter type reconciliation should be off by default")
	}
	if !cfg.Scan.RespectGitignore {
		t.Error("gitignore should be respected by default")
	}
	if cfg.Diff.Format != "json" {
		t.Errorf("Diff.Format = %q, want json", cfg.Diff.Format)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.History.Path != DefaultConfig().History.Path {
		t.Errorf("History.Path = %q", cfg.History.Path)
	}
	if cfg.Scan.MaxFileSizeBytes != DefaultConfig().Scan.MaxFileSizeBytes {
		t.Errorf("Scan.MaxFileSizeBytes = %d", cfg.Scan.MaxFileSizeBytes)
	}
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Scan.Workers = 3
	cfg.Scan.Exclude = []string{"**/internal/**"}
	cfg.Diff.Format = "human"

	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Scan.Workers != 3 {
		t.Errorf("Scan.Workers = %d, want 3", got.Scan.Workers)
	}
	if got.Diff.Format != "human" {
		t.Errorf("Diff.Format = %q, want human", got.Diff.Format)
	}
	if len(got.Scan.Exclude) != 1 || got.Scan.Exclude[0] != "**/internal/**" {
		t.Errorf("Scan.Exclude = %v", got.Scan.Exclude)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APIDIFF_SCAN_WORKERS", "7")

	cfg, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scan.Workers != 7 {
		t.Errorf("Scan.Workers = %d, want 7", cfg.Scan.Workers)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"version":1,"diff":{"format":"xml"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load("", path)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Load() error = %v, want *ConfigError", err)
	}
	if cfgErr.Field != "diff.format" {
		t.Errorf("Field = %q, want diff.format", cfgErr.Field)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"version", func(c *Config) { c.Version = 9 }, "version"},
		{"workers", func(c *Config) { c.Scan.Workers = -1 }, "scan.workers"},
		{"max size", func(c *Config) { c.Scan.MaxFileSizeBytes = -5 }, "scan.maxFileSizeBytes"},
		{"backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.maxBackups"},
		{"format", func(c *Config) { c.Diff.Format = "csv" }, "diff.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Errorf("Validate() = %v, want error on %s", err, tt.field)
			}
		})
	}
}
