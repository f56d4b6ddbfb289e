package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Dir is the per-project directory holding config, history and logs.
const Dir = ".apidiff"

const currentVersion = 1

// Config is the apidiff configuration stored in .apidiff/config.json.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
	Scan    ScanConfig    `json:"scan" mapstructure:"scan"`
	Diff    DiffConfig    `json:"diff" mapstructure:"diff"`
	History HistoryConfig `json:"history" mapstructure:"history"`
	Policy  PolicyConfig  `json:"policy" mapstructure:"policy"`
}

// LoggingConfig controls the optional log file. Console verbosity comes from
// the -v and --quiet flags.
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// ScanConfig controls source discovery and parallel extraction.
type ScanConfig struct {
	Workers          int      `json:"workers" mapstructure:"workers"`
	MaxFileSizeBytes int64    `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	RespectGitignore bool     `json:"respectGitignore" mapstructure:"respectGitignore"`
	Exclude          []string `json:"exclude" mapstructure:"exclude"`
}

// DiffConfig holds defaults for `apidiff diff`.
type DiffConfig struct {
	ReconcileParameterTypes bool   `json:"reconcileParameterTypes" mapstructure:"reconcileParameterTypes"`
	Format                  string `json:"format" mapstructure:"format"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// PolicyConfig points at the waiver file.
type PolicyConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: currentVersion,
		Logging: LoggingConfig{
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
		Scan: ScanConfig{
			Workers:          0,
			MaxFileSizeBytes: 2 << 20,
			RespectGitignore: true,
		},
		Diff: DiffConfig{
			Format: "json",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(Dir, "history.db"),
		},
		Policy: PolicyConfig{
			Path: filepath.Join(Dir, "policy.toml"),
		},
	}
}

// Load reads configuration for the project rooted at repoRoot. An explicit
// path takes precedence over .apidiff/config.json. APIDIFF_* environment
// variables override file values (APIDIFF_SCAN_WORKERS=8).
func Load(repoRoot, explicitPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("APIDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(filepath.Join(repoRoot, Dir))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("scan.maxFileSizeBytes", d.Scan.MaxFileSizeBytes)
	v.SetDefault("scan.respectGitignore", d.Scan.RespectGitignore)
	v.SetDefault("scan.exclude", d.Scan.Exclude)
	v.SetDefault("diff.reconcileParameterTypes", d.Diff.ReconcileParameterTypes)
	v.SetDefault("diff.format", d.Diff.Format)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("policy.path", d.Policy.Path)
}

// Save writes the configuration to .apidiff/config.json under repoRoot.
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), append(data, '\n'), 0o644)
}

// Formats lists the accepted values of diff.format.
var Formats = []string{"json", "yaml", "human", "listing"}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if c.Version != currentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if c.Scan.Workers < 0 {
		return &ConfigError{Field: "scan.workers", Message: "must not be negative"}
	}
	if c.Scan.MaxFileSizeBytes < 0 {
		return &ConfigError{Field: "scan.maxFileSizeBytes", Message: "must not be negative"}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}
	for _, f := range Formats {
		if c.Diff.Format == f {
			return nil
		}
	}
	return &ConfigError{Field: "diff.format", Message: fmt.Sprintf("unknown format %q", c.Diff.Format)}
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
