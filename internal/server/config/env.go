package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// parseEnv overlays variables that are set in the environment. Unset
// variables leave the current value alone. A nil environ means the process
// environment.
func parseEnv(config *Config, environ map[string]string) error {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}
