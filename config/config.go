// Package config handles configuration for the asset tools: pipeline
// options plus logging settings, loaded from YAML over defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-assets/loader"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Config holds all tool settings.
type Config struct {
	Loader  loader.LoadOptions `yaml:"loader"`
	Logging LoggingConfig      `yaml:"logging"`
}

// Default returns a Config with the pipeline and logging defaults.
func Default() *Config {
	return &Config{
		Loader: loader.DefaultLoadOptions(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
