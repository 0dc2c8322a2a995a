// Package config loads and validates skyvault configuration.
//
// Configuration comes from four layers, each overriding the one before:
//
//  1. Built-in defaults (DefaultConfig)
//  2. The TOML config file (Load)
//  3. SKYVAULT_* environment variables (ReadEnvOverrides)
//  4. Command-line flags (CLIOverrides)
//
// Resolve applies the chain and returns the effective configuration.
package config

// Config is the full on-disk configuration.
type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Session   SessionConfig   `toml:"session"`
	Transfers TransfersConfig `toml:"transfers"`
	Streaming StreamingConfig `toml:"streaming"`
	Journal   JournalConfig   `toml:"journal"`
	Logging   LoggingConfig   `toml:"logging"`
}

// EngineConfig selects the storage engine.
type EngineConfig struct {
	// Provider is the registered engine name, e.g. "mem".
	Provider string `toml:"provider"`
	// DSN is the provider-specific connection string.
	DSN string `toml:"dsn"`
}

// SessionConfig holds login defaults.
type SessionConfig struct {
	// Email is the account to log in as when none is given on the
	// command line.
	Email string `toml:"email"`
}

// TransfersConfig tunes uploads and downloads.
type TransfersConfig struct {
	// Parallel is the number of transfers run concurrently.
	Parallel int `toml:"parallel"`
}

// StreamingConfig tunes streamed reads.
type StreamingConfig struct {
	// ChunkSize is the read chunk size, e.g. "2MiB" or "512KB".
	ChunkSize string `toml:"chunk_size"`
}

// JournalConfig controls the local operation journal.
type JournalConfig struct {
	Enabled bool `toml:"enabled"`
	// Path is the journal database file. Empty means the default
	// location under the user data directory.
	Path string `toml:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Format is one of auto, text, json.
	Format string `toml:"format"`
	// File appends logs to the given path instead of stderr.
	File string `toml:"file"`
}

// CLIOverrides carries command-line flag values. A nil field means the
// flag was not specified.
type CLIOverrides struct {
	Provider *string
	DSN      *string
	Email    *string
	Parallel *int
	LogLevel *string
	Verbose  *bool
}
