package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"0", 0},
		{"1024", 1024},
		{"1KB", 1000},
		{"1KiB", 1024},
		{"2MiB", 2_097_152},
		{"10MB", 10_000_000},
		{"1.5KiB", 1536},
		{"1GiB", 1_073_741_824},
		{"1TB", 1_000_000_000_000},
		{"1TiB", 1_099_511_627_776},
		{"512B", 512},
		{"2 MiB", 2_097_152},
		{"2mib", 2_097_152},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSize_Invalid(t *testing.T) {
	tests := []string{"", "  ", "abc", "-5", "-1KiB", "KiB", "1QB"}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := parseSize(input)
			assert.Error(t, err)
		})
	}
}

func TestStreamChunkBytes_Default(t *testing.T) {
	got, err := DefaultConfig().StreamChunkBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(2_097_152), got)
}
