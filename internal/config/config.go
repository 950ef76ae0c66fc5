// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables, and
// an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Backend names for the persisted vault store.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the local API listening address (ip:port).
	Addr string

	// Backend selects the vault store: "file", "sqlite", or "postgres".
	Backend string

	// FilePath is the vault file location for the file and sqlite backends.
	FilePath string

	// DatabaseDSN holds the connection string for the postgres backend.
	DatabaseDSN string

	// LogLevel sets the logging verbosity.
	LogLevel string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.Backend, "s", BackendFile, "vault store backend (file, sqlite, postgres)")
	flag.StringVar(&options.FilePath, "f", "vault.json", "vault file path")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.LogLevel, "l", "info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}
	if backend := os.Getenv("VAULT_BACKEND"); backend != "" {
		options.Backend = backend
	}
	if filePath := os.Getenv("VAULT_FILE"); filePath != "" {
		options.FilePath = filePath
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}

	return options
}
