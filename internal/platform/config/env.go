package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from the process environment.
func ParseEnv(target any) error {
	return ParseEnvFrom(target, nil)
}

// ParseEnvFrom loads configuration from environ, or from the process
// environment when environ is nil. Values are trimmed before parsing.
func ParseEnvFrom(target any, environ map[string]string) error {
	if environ == nil {
		environ = env.ToMap(os.Environ())
	}
	trimmed := make(map[string]string, len(environ))
	for key, value := range environ {
		trimmed[key] = strings.TrimSpace(value)
	}
	if err := env.ParseWithOptions(target, env.Options{Environment: trimmed}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
