// Package config provides centralized configuration management for csvimport.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
//
// Command-line flags describe the job (what to import and where). The
// environment describes the installation (which backend, credentials, logging).
package config

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver selects the database backend: spanner, postgres or sqlite (default: spanner)
	Driver string `env:"IMPORT_DRIVER" default:"spanner"`

	// Project is the Google Cloud project that owns the Spanner instance.
	// Required when Driver is spanner.
	Project string `env:"SPANNER_PROJECT" envAlt:"GOOGLE_CLOUD_PROJECT"`

	// URL is a PostgreSQL connection string. When empty the postgres backend
	// connects to host=<instance_id> dbname=<database_id>.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`
}

// ImportConfig holds CSV processing settings.
type ImportConfig struct {
	// SanitizeUTF8 replaces invalid UTF-8 bytes with U+FFFD instead of failing (default: false)
	SanitizeUTF8 bool `env:"IMPORT_SANITIZE_UTF8" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
