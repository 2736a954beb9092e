// Package config loads waylog settings from the project's .waylog.yaml
// file and WAYLOG_* environment variables, with sensible defaults for
// everything.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = ".waylog"
	configType = "yaml"
	envPrefix  = "WAYLOG"

	// DefaultProvider is used when no provider is configured
	DefaultProvider = "claude"

	// DefaultIntervalSeconds is the periodic sync interval
	DefaultIntervalSeconds = 30

	// DefaultOutputDir is the transcript directory name, relative to the
	// project directory
	DefaultOutputDir = ".waylog"
)

// Config holds the effective waylog settings for one project.
type Config struct {
	// Provider is the source format to ingest (claude, codex, gemini)
	Provider string

	// IntervalSeconds is the periodic sync interval for watch mode
	IntervalSeconds int

	// OutputDir is the transcript directory name under the project
	OutputDir string
}

// Interval returns the sync interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Load reads the config file from projectDir, if present, applying
// environment overrides and defaults. A missing file is not an error.
func Load(projectDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(projectDir)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("provider", DefaultProvider)
	v.SetDefault("interval_seconds", DefaultIntervalSeconds)
	v.SetDefault("output_dir", DefaultOutputDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Provider:        v.GetString("provider"),
		IntervalSeconds: v.GetInt("interval_seconds"),
		OutputDir:       v.GetString("output_dir"),
	}

	if cfg.IntervalSeconds <= 0 {
		cfg.IntervalSeconds = DefaultIntervalSeconds
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	return cfg, nil
}
