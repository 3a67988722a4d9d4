package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every postshelf environment variable.
const EnvPrefix = "POSTSHELF_"

// ParseEnv loads configuration from environment variables.
//
// Struct tags name variables without the shared prefix, so
// `env:"HTTP_ADDR"` reads POSTSHELF_HTTP_ADDR.
func ParseEnv(target any) error {
	return ParseEnvWithPrefix(target, EnvPrefix)
}

// ParseEnvWithPrefix loads configuration using a caller-supplied prefix.
func ParseEnvWithPrefix(target any, prefix string) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
