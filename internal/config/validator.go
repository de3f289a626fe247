package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects every problem found by ValidateConfig.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, err := range ve {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validOutputs = []string{"text", "json", "yaml"}
)

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) ValidationErrors {
	var errors ValidationErrors

	if !contains(validLevels, strings.ToLower(config.LogLevel)) {
		errors = append(errors, ValidationError{
			Path:    Prefix + "_LOG_LEVEL",
			Message: fmt.Sprintf("unknown level %q (valid: %s)", config.LogLevel, strings.Join(validLevels, ", ")),
		})
	}

	if !contains(validOutputs, strings.ToLower(config.Output)) {
		errors = append(errors, ValidationError{
			Path:    Prefix + "_OUTPUT",
			Message: fmt.Sprintf("unknown output format %q (valid: %s)", config.Output, strings.Join(validOutputs, ", ")),
		})
	}

	return errors
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
