// Package cli consolidates the initialization steps shared by
// cmd/evlog and cmd/evlog-worker.
package cli

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"evlog/internal/backend"
	"evlog/internal/config"
	"evlog/internal/log"
)

// Bootstrap runs the shared startup sequence: load the environment
// file, read configuration, install the logger and validate. Exits the
// process when the configuration is unusable.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from the configured level and
// sets it as the default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// Timezone resolves the configured location. Validate has already
// rejected unknown names, so the fallback only covers "Local".
func Timezone(logger *log.Logger, cfg *config.Config) *time.Location {
	loc := cfg.Location()
	logger.Debug("timezone resolved", "timezone", loc.String())
	return loc
}

// OpenStore opens the configured persistence backend or exits.
func OpenStore(logger *log.Logger, cfg *config.Config) *backend.Result {
	result, err := backend.Open(cfg, logger)
	if err != nil {
		logger.Error("opening store failed", log.FieldError, err)
		os.Exit(1)
	}
	return result
}
