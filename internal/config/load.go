package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads and validates the config file at path. Values not present
// in the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	md, err := toml.Decode(string(raw), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(md); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults
// instead of an error.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Resolve applies environment and command-line overrides on top of a
// loaded config and returns the effective configuration.
func Resolve(cfg Config, env EnvOverrides, cli CLIOverrides) Config {
	// Layer 3: environment variables override the file.
	if env.Provider != "" {
		cfg.Engine.Provider = env.Provider
	}
	if env.DSN != "" {
		cfg.Engine.DSN = env.DSN
	}
	if env.Email != "" {
		cfg.Session.Email = env.Email
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}

	// Layer 4: command-line flags override everything.
	if cli.Provider != nil {
		cfg.Engine.Provider = *cli.Provider
	}
	if cli.DSN != nil {
		cfg.Engine.DSN = *cli.DSN
	}
	if cli.Email != nil {
		cfg.Session.Email = *cli.Email
	}
	if cli.Parallel != nil {
		cfg.Transfers.Parallel = *cli.Parallel
	}
	if cli.LogLevel != nil {
		cfg.Logging.Level = *cli.LogLevel
	}
	if cli.Verbose != nil && *cli.Verbose {
		cfg.Logging.Level = "debug"
	}

	return cfg
}
