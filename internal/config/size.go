package config

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kilobyte = 1000
	megabyte = 1000 * kilobyte
	gigabyte = 1000 * megabyte
	terabyte = 1000 * gigabyte

	kibibyte = 1024
	mebibyte = 1024 * kibibyte
	gibibyte = 1024 * mebibyte
	tebibyte = 1024 * gibibyte
)

// Longer suffixes first so "MiB" is not matched as "B".
var sizeSuffixes = []struct {
	suffix     string
	multiplier int64
}{
	{"TIB", tebibyte},
	{"GIB", gibibyte},
	{"MIB", mebibyte},
	{"KIB", kibibyte},
	{"TB", terabyte},
	{"GB", gigabyte},
	{"MB", megabyte},
	{"KB", kilobyte},
	{"B", 1},
}

// parseSize converts a human-readable size such as "2MiB", "512KB" or
// "1048576" into bytes. IEC suffixes are powers of 1024, SI suffixes
// powers of 1000, and a bare number is raw bytes.
func parseSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty size")
	}

	upper := strings.ToUpper(trimmed)
	for _, entry := range sizeSuffixes {
		if !strings.HasSuffix(upper, entry.suffix) {
			continue
		}
		numPart := strings.TrimSpace(strings.TrimSuffix(upper, entry.suffix))
		if numPart == "" {
			return 0, fmt.Errorf("invalid size %q", s)
		}
		value, err := strconv.ParseFloat(numPart, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size %q", s)
		}
		if value < 0 {
			return 0, fmt.Errorf("size must not be negative: %q", s)
		}
		return int64(value * float64(entry.multiplier)), nil
	}

	value, err := strconv.ParseInt(upper, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if value < 0 {
		return 0, fmt.Errorf("size must not be negative: %q", s)
	}
	return value, nil
}

// StreamChunkBytes returns streaming.chunk_size in bytes.
func (c Config) StreamChunkBytes() (int64, error) {
	return parseSize(c.Streaming.ChunkSize)
}
