package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

// Validate checks the configuration for values no command could use.
func (c Config) Validate() error {
	if c.Engine.Provider == "" {
		return fmt.Errorf("engine.provider must not be empty")
	}

	if c.Transfers.Parallel < 1 {
		return fmt.Errorf("transfers.parallel must be at least 1, got %d", c.Transfers.Parallel)
	}

	chunk, err := parseSize(c.Streaming.ChunkSize)
	if err != nil {
		return fmt.Errorf("streaming.chunk_size: %w", err)
	}
	if chunk <= 0 {
		return fmt.Errorf("streaming.chunk_size must be positive, got %q", c.Streaming.ChunkSize)
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}

	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of auto, text, json; got %q", c.Logging.Format)
	}

	return nil
}
