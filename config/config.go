package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration constants. See [Config] for field descriptions.
const (
	// DefaultReadTimeout bounds read-style remote calls (listings, stat,
	// content fetch)
	DefaultReadTimeout = 10 * time.Second

	// DefaultActionTimeout bounds action-style remote calls (build, delete,
	// create, upload)
	DefaultActionTimeout = 30 * time.Second

	// DefaultMaxUploadFiles is the client-side folder upload file count guard
	DefaultMaxUploadFiles = 10_000

	// DefaultMaxUploadBytes is the client-side folder upload cumulative size guard
	DefaultMaxUploadBytes = 100_000_000
)

// Config contains runtime configuration values for the remote explorer.
type Config struct {
	ReadTimeout    time.Duration // Timeout for read-style remote calls (Default 10s)
	ActionTimeout  time.Duration // Timeout for action-style remote calls (Default 30s)
	MaxUploadFiles int           // Folder upload file count limit, checked before any network call (Default 10000)
	MaxUploadBytes int64         // Folder upload cumulative byte limit, checked before any network call (Default 100000000)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	ReadTimeoutSecs   *int   `yaml:"read_timeout_secs,omitempty" json:"read_timeout_secs,omitempty"`
	ActionTimeoutSecs *int   `yaml:"action_timeout_secs,omitempty" json:"action_timeout_secs,omitempty"`
	MaxUploadFiles    *int   `yaml:"max_upload_files,omitempty" json:"max_upload_files,omitempty"`
	MaxUploadBytes    *int64 `yaml:"max_upload_bytes,omitempty" json:"max_upload_bytes,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		ReadTimeout:    DefaultReadTimeout,
		ActionTimeout:  DefaultActionTimeout,
		MaxUploadFiles: DefaultMaxUploadFiles,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

// NewConfig creates a Config from defaults with override applied on top.
// A nil override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.ReadTimeoutSecs != nil {
		c.ReadTimeout = time.Duration(*override.ReadTimeoutSecs) * time.Second
	}
	if override.ActionTimeoutSecs != nil {
		c.ActionTimeout = time.Duration(*override.ActionTimeoutSecs) * time.Second
	}
	if override.MaxUploadFiles != nil {
		c.MaxUploadFiles = *override.MaxUploadFiles
	}
	if override.MaxUploadBytes != nil {
		c.MaxUploadBytes = *override.MaxUploadBytes
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
