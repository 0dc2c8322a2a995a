package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_HonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	dir, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-config", "skyvault"), dir)
}

func TestDefaultDataDir_HonorsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	dir, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-data", "skyvault"), dir)
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-config", "skyvault", "config.toml"), path)
}

func TestDefaultJournalPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	path, err := DefaultJournalPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-data", "skyvault", "journal.db"), path)
}

func TestConfigPath_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/custom.toml")

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.toml", path)
}

func TestConfigPath_FallsBackToDefault(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-config", "skyvault", "config.toml"), path)
}
