package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	dirMode  = 0700
	fileMode = 0600

	DefaultAddress         = "127.0.0.1"
	DefaultPort            = 8080
	DefaultModelPath       = "models/cardio.yaml"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultShutdownTimeout = 5 * time.Second
)

// Config represents the service configuration file.
type Config struct {
	Address         string        `json:"address" yaml:"address"`
	Port            int           `json:"port" yaml:"port"`
	ModelPath       string        `json:"model" yaml:"model"`
	LogLevel        string        `json:"log_level" yaml:"log_level"`
	LogFormat       string        `json:"log_format" yaml:"log_format"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Address:         DefaultAddress,
		Port:            DefaultPort,
		ModelPath:       DefaultModelPath,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Load reads the config file at path. An empty path yields the defaults;
// values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the config values.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout can't be negative, got %s", c.ShutdownTimeout)
	}
	return nil
}

// Save writes c to path, creating the parent directory when needed.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
