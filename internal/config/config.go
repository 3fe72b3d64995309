// Package config reads harness settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by all commands. Command-line flags take
// precedence over these values.
type Config struct {
	// Engine is the engine executable.
	Engine string `env:"TALLYREG_ENGINE" envDefault:"openmc"`

	// EngineArgs are passed to every engine run before scenario arguments.
	EngineArgs []string `env:"TALLYREG_ENGINE_ARGS" envSeparator:" "`

	// Database is the run history database. Empty disables recording.
	Database string `env:"TALLYREG_DB"`

	// Parallel bounds how many scenarios run at once.
	Parallel int `env:"TALLYREG_PARALLEL" envDefault:"1"`

	// Timeout bounds each engine run. Zero means no limit.
	Timeout time.Duration `env:"TALLYREG_TIMEOUT" envDefault:"0s"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Parallel < 1 {
		return Config{}, fmt.Errorf("TALLYREG_PARALLEL must be at least 1, got %d", cfg.Parallel)
	}
	if cfg.Timeout < 0 {
		return Config{}, fmt.Errorf("TALLYREG_TIMEOUT must not be negative, got %s", cfg.Timeout)
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
