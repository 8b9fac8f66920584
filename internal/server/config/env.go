package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv overlays environment variables onto config. Unset variables leave
// the current value alone. A nil environ means the process environment.
func parseEnv(config *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(config, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// loadDotEnv reads .env.local and .env from the working directory or its
// parent. godotenv never overrides variables that are already set, and a
// missing file is not an error.
func loadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err == nil {
			continue
		}

		cwd, err := os.Getwd()
		if err != nil {
			continue
		}
		parent := filepath.Dir(cwd)
		if parent == "" || parent == cwd {
			continue
		}
		_ = godotenv.Load(filepath.Join(parent, name))
	}
}
