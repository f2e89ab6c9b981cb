// Package config loads process configuration from the environment.
//
// Every Riftholm service reads its settings from RIFTHOLM_-prefixed
// environment variables into a plain struct; command-line flags may
// override the parsed values afterwards.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
