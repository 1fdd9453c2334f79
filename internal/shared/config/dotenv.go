package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"resume-analyzer/internal/shared/telemetry"
)

// loadEnvFiles loads KEY=VALUE pairs from the given files if they exist.
// Variables already present in the environment are not overridden.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			telemetry.Warn("config.dotenv_unreadable", map[string]any{"path": path, "error": err})
		}
	}
}
