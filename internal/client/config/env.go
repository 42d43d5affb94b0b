package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv overlays cfg with RESTODASH_* variables. Variables from the
// dotenv file are used only where environ lacks them; a missing dotenv file
// is not an error.
func parseEnv(cfg *Config, environ map[string]string, dotenv string) error {
	if environ == nil {
		environ = env.ToMap(os.Environ())
	}

	merged := make(map[string]string, len(environ))
	if dotenv != "" {
		fileVars, err := godotenv.Read(dotenv)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", dotenv, err)
		}
		for k, v := range fileVars {
			merged[k] = v
		}
	}
	for k, v := range environ {
		merged[k] = v
	}

	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: merged,
	}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
