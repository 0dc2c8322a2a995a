package config

import "os"

// Environment variables recognized by skyvault.
const (
	// EnvConfig points at an alternate config file.
	EnvConfig = "SKYVAULT_CONFIG"
	// EnvProvider overrides engine.provider.
	EnvProvider = "SKYVAULT_PROVIDER"
	// EnvDSN overrides engine.dsn.
	EnvDSN = "SKYVAULT_DSN"
	// EnvEmail overrides session.email.
	EnvEmail = "SKYVAULT_EMAIL"
	// EnvLogLevel overrides logging.level.
	EnvLogLevel = "SKYVAULT_LOG_LEVEL"
)

// EnvOverrides carries values read from the environment. An empty
// field means the variable was not set.
type EnvOverrides struct {
	Provider string
	DSN      string
	Email    string
	LogLevel string
}

// ReadEnvOverrides collects the SKYVAULT_* override variables from the
// process environment.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		Provider: os.Getenv(EnvProvider),
		DSN:      os.Getenv(EnvDSN),
		Email:    os.Getenv(EnvEmail),
		LogLevel: os.Getenv(EnvLogLevel),
	}
}
