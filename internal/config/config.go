// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"

	"pricing-engine/internal/errors"
	"pricing-engine/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Engine contains evaluation settings
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Output contains output configuration
	Output OutputConfig `json:"output" yaml:"output"`

	// Storage contains persistence configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// EngineConfig contains evaluation settings
type EngineConfig struct {
	// DisplayPrecision is the number of decimals used in breakdown text (-1 keeps raw values)
	DisplayPrecision int `json:"display_precision" yaml:"display_precision"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format" yaml:"default_format"`

	// ShowDetails shows the calculation line under each breakdown entry
	ShowDetails bool `json:"show_details" yaml:"show_details"`
}

// StorageConfig selects the document store backend
type StorageConfig struct {
	// Backend is memory, file or bolt
	Backend string `json:"backend" yaml:"backend"`

	// Path is the directory (file) or database file (bolt)
	Path string `json:"path" yaml:"path"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" yaml:"addr"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Version: "1.0",
		Engine: EngineConfig{
			DisplayPrecision: 2,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			ShowDetails:   true,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    filepath.Join(homeDir, ".pricing-engine", "store"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns the per-user configuration file location
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".pricing-engine", "config.yaml")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load loads configuration from a JSON or YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Config("failed to read config", err).WithContext("file", path)
	}

	config := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Config("failed to parse config", err).WithContext("file", path)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	if c.Engine.DisplayPrecision < -1 || c.Engine.DisplayPrecision > 340 {
		return errors.Newf(errors.TypeConfig, "display_precision must be between -1 and 340, got %d", c.Engine.DisplayPrecision)
	}
	switch c.Storage.Backend {
	case "memory", "file", "bolt":
	default:
		return errors.Newf(errors.TypeConfig, "unknown storage backend: %s", c.Storage.Backend)
	}
	return nil
}

// Marshal encodes the configuration as YAML or JSON, chosen by the path extension
func (c *Config) Marshal(path string) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(c)
	}
	return json.MarshalIndent(c, "", "  ")
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := c.Marshal(path)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var (
	globalMu     sync.RWMutex
	globalConfig = Default()
)

// Get returns the global configuration
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = config
}
