package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. MINIGUN_LOG_LEVEL.
const Prefix = "MINIGUN"

// Config holds settings read from the environment. Command line flags
// override these.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"warn"`
	LogDev    bool   `envconfig:"LOG_DEV" default:"false"`
	Output    string `envconfig:"OUTPUT" default:"text"`
	NoColor   bool   `envconfig:"NO_COLOR" default:"false"`
	UserAgent string `envconfig:"USER_AGENT"`
}

// Load reads the MINIGUN_* environment variables and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}
	if errs := ValidateConfig(&cfg); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// Default returns the configuration used when the environment sets nothing.
func Default() *Config {
	return &Config{
		LogLevel: "warn",
		Output:   "text",
	}
}
