package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Dir is the project directory holding configuration and the results ledger.
const Dir = ".verify"

// CurrentVersion is the only supported config schema version.
const CurrentVersion = 1

// Config represents the project configuration stored in .verify/config.json
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	// Directory holds snapshot files, relative to the package under test.
	Directory  string        `json:"directory" mapstructure:"directory"`
	AutoVerify bool          `json:"autoVerify" mapstructure:"autoVerify"`
	Extension  string        `json:"extension" mapstructure:"extension"`
	Scrub      ScrubConfig   `json:"scrub" mapstructure:"scrub"`
	Rules      RulesConfig   `json:"rules" mapstructure:"rules"`
	Ledger     LedgerConfig  `json:"ledger" mapstructure:"ledger"`
	Logging    LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ScrubConfig toggles value scrubbing
type ScrubConfig struct {
	Guids     bool `json:"guids" mapstructure:"guids"`
	DateTimes bool `json:"dateTimes" mapstructure:"dateTimes"`
	Paths     bool `json:"paths" mapstructure:"paths"`
}

// RulesConfig contains the default member filter rules
type RulesConfig struct {
	IgnoreEmptyCollections bool `json:"ignoreEmptyCollections" mapstructure:"ignoreEmptyCollections"`
	IgnoreFalse            bool `json:"ignoreFalse" mapstructure:"ignoreFalse"`
	IncludeObsoletes       bool `json:"includeObsoletes" mapstructure:"includeObsoletes"`

	// File is a rules declaration file relative to the project root.
	// Empty means .verify/rules.toml or .verify/rules.yaml when present.
	File string `json:"file" mapstructure:"file"`
}

// LedgerConfig contains results ledger configuration
type LedgerConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:   CurrentVersion,
		Directory: "testdata",
		Extension: "txt",
		Scrub: ScrubConfig{
			Guids:     true,
			DateTimes: true,
			Paths:     true,
		},
		Rules: RulesConfig{
			IgnoreEmptyCollections: true,
		},
		Ledger: LedgerConfig{
			Enabled: false,
			Path:    filepath.Join(Dir, "results.db"),
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
	}
}

// LoadConfig loads configuration from .verify/config.json under root.
// VERIFY_* environment variables override file values, e.g.
// VERIFY_AUTOVERIFY=true or VERIFY_LOGGING_LEVEL=debug.
func LoadConfig(root string) (*Config, error) {
	if data, err := os.ReadFile(filepath.Join(root, Dir, "config.json")); err == nil {
		if err := ValidateSchema(data); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", Dir, err)
		}
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, Dir))

	v.SetEnvPrefix("VERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read %s config: %w", Dir, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s config: %w", Dir, err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("version", cfg.Version)
	v.SetDefault("directory", cfg.Directory)
	v.SetDefault("autoVerify", cfg.AutoVerify)
	v.SetDefault("extension", cfg.Extension)
	v.SetDefault("scrub.guids", cfg.Scrub.Guids)
	v.SetDefault("scrub.dateTimes", cfg.Scrub.DateTimes)
	v.SetDefault("scrub.paths", cfg.Scrub.Paths)
	v.SetDefault("rules.ignoreEmptyCollections", cfg.Rules.IgnoreEmptyCollections)
	v.SetDefault("rules.ignoreFalse", cfg.Rules.IgnoreFalse)
	v.SetDefault("rules.includeObsoletes", cfg.Rules.IncludeObsoletes)
	v.SetDefault("rules.file", cfg.Rules.File)
	v.SetDefault("ledger.enabled", cfg.Ledger.Enabled)
	v.SetDefault("ledger.path", cfg.Ledger.Path)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Save writes the configuration to .verify/config.json
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported version %d", c.Version)}
	}
	if c.Directory == "" {
		return &ConfigError{Field: "directory", Message: "must not be empty"}
	}
	if c.Extension == "" || strings.HasPrefix(c.Extension, ".") {
		return &ConfigError{Field: "extension", Message: fmt.Sprintf("invalid extension %q", c.Extension)}
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logging.Level)) {
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if c.Logging.Format != "human" && c.Logging.Format != "json" {
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	if c.Ledger.Enabled && c.Ledger.Path == "" {
		return &ConfigError{Field: "ledger.path", Message: "required when the ledger is enabled"}
	}
	if c.Rules.File != "" {
		if _, err := rulesFormat(c.Rules.File); err != nil {
			return &ConfigError{Field: "rules.file", Message: err.Error()}
		}
	}
	return nil
}

// LedgerPath resolves the ledger path against root.
func (c *Config) LedgerPath(root string) string {
	if filepath.IsAbs(c.Ledger.Path) {
		return c.Ledger.Path
	}
	return filepath.Join(root, c.Ledger.Path)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
