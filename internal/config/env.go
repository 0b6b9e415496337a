package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/layoutstate/internal/logfields"
)

// envFiles are loaded in order. Variables already set in the process
// environment are never overridden.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("failed to load env file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("loaded env file", logfields.Path(path))
	}
}
