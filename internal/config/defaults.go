package config

// Built-in defaults, overridden by the config file, environment
// variables, and command-line flags in that order.
const (
	DefaultProvider  = "mem"
	DefaultParallel  = 4
	DefaultChunkSize = "2MiB"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "auto"
)

// DefaultConfig returns a Config populated with built-in defaults.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			Provider: DefaultProvider,
		},
		Transfers: TransfersConfig{
			Parallel: DefaultParallel,
		},
		Streaming: StreamingConfig{
			ChunkSize: DefaultChunkSize,
		},
		Journal: JournalConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
