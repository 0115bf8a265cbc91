package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays variables that are set in environment (the process
// environment when nil). Unset variables leave fields untouched.
//
// When DB_HOST is set and DATABASE_DSN is not, the DSN is assembled from
// DB_HOST, DB_USER, DB_PASS and DB_DATABASE.
func parseEnv(cfg *Config, environment map[string]string) error {
	if environment == nil {
		environment = env.ToMap(os.Environ())
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if _, ok := environment["DATABASE_DSN"]; !ok && cfg.DBHost != "" {
		cfg.DatabaseDSN = cfg.assembleDSN()
	}
	return nil
}
