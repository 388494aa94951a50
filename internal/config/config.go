// Package config holds the application configuration for the quadra CLI
// and server, loadable from files, environment variables, and flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/quadra-ocr/quadra/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for the quadra application.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Pipeline pipeline.Config `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	CropDir    string `mapstructure:"crop_dir" yaml:"crop_dir" json:"crop_dir"`
	OverlayDir string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Pipeline: pipeline.DefaultConfig(),
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if err := c.Pipeline.Validate(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	return nil
}

// Save writes the configuration to the given path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
