package config

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEffective_Defaults(t *testing.T) {
	cfg := DefaultConfig()

	var buf bytes.Buffer

	err := RenderEffective(&cfg, &buf)
	require.NoError(t, err)

	out := buf.String()

	for _, section := range []string{"[engine]", "[session]", "[transfers]", "[streaming]", "[journal]", "[logging]"} {
		assert.Contains(t, out, section)
	}

	assert.Contains(t, out, `provider = "mem"`)
	assert.Contains(t, out, "parallel = 4")
	assert.Contains(t, out, `chunk_size = "2MiB"`)
	assert.Contains(t, out, "enabled = true")
	assert.Contains(t, out, `level  = "info"`)
}

func TestRenderEffective_OmitsEmptyOptionals(t *testing.T) {
	cfg := DefaultConfig()

	var buf bytes.Buffer

	err := RenderEffective(&cfg, &buf)
	require.NoError(t, err)

	// DSN, journal path, and log file are unset by default.
	assert.NotContains(t, buf.String(), "dsn")
	assert.NotContains(t, buf.String(), "path")
	assert.NotContains(t, buf.String(), "file")
}

func TestRenderEffective_IncludesSetOptionals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.DSN = "latency=5ms"
	cfg.Journal.Path = "/var/lib/skyvault/journal.db"
	cfg.Logging.File = "/var/log/skyvault.log"

	var buf bytes.Buffer

	err := RenderEffective(&cfg, &buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `dsn      = "latency=5ms"`)
	assert.Contains(t, buf.String(), `path    = "/var/lib/skyvault/journal.db"`)
	assert.Contains(t, buf.String(), `file   = "/var/log/skyvault.log"`)
}

// failAfterWriter fails every write after the first n bytes.
type failAfterWriter struct {
	n       int
	written int
}

func (w *failAfterWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.n {
		return 0, errors.New("write failed")
	}

	w.written += len(p)

	return len(p), nil
}

func TestRenderEffective_PropagatesWriteError(t *testing.T) {
	cfg := DefaultConfig()

	err := RenderEffective(&cfg, &failAfterWriter{n: 10})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "write failed"))
}
