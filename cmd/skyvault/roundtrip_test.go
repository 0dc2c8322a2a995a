package main

// These tests drive complete command invocations through newRootCmd the
// way a user would. The config file points every invocation at the same
// named in-memory engine, so sequential commands see one account the way
// sequential CLI runs see one provider.

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skyvault "github.com/skyvault/skyvault-go"
	"github.com/skyvault/skyvault-go/internal/journal"
)

// cliFixture writes a hermetic config file backed by a process-shared
// in-memory engine and returns a runner that executes one invocation.
func cliFixture(t *testing.T) (run func(args ...string) error, dir, journalPath string) {
	t.Helper()

	dir = t.TempDir()
	journalPath = filepath.Join(dir, "journal.db")
	cfgPath := filepath.Join(dir, "config.toml")

	cfg := fmt.Sprintf(`[engine]
provider = "mem"
dsn = "name=%s"

[session]
email = "roundtrip@skyvault.test"

[journal]
enabled = true
path = %q
`, uuid.NewString(), journalPath)

	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	clearEnvOverrides(t)
	t.Setenv(envPassword, "hunter2")

	origCfg := resolvedCfg
	origConfigPath := flagConfigPath
	origQuiet := flagQuiet
	t.Cleanup(func() {
		resolvedCfg = origCfg
		flagConfigPath = origConfigPath
		flagQuiet = origQuiet
	})

	run = func(args ...string) error {
		cmd := newRootCmd()
		cmd.SetArgs(append([]string{"--config", cfgPath, "--quiet"}, args...))

		return cmd.Execute()
	}

	return run, dir, journalPath
}

func TestRoundTripFileLifecycle(t *testing.T) {
	run, dir, _ := cliFixture(t)

	content := []byte("skyvault keeps this intact end to end\n")
	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, content, 0o600))

	require.NoError(t, run("put", src))
	require.NoError(t, run("stat", "/notes.txt"))

	require.NoError(t, run("mkdir", "/docs/reports"))
	require.NoError(t, run("mv", "/notes.txt", "/docs"))

	err := run("stat", "/notes.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, skyvault.ErrNotFound)

	require.NoError(t, run("stat", "/docs/notes.txt"))
	require.NoError(t, run("cp", "/docs/notes.txt", "/"))

	dst := filepath.Join(dir, "fetched.txt")
	require.NoError(t, run("get", "/notes.txt", dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestRoundTripFolderRemoval(t *testing.T) {
	run, dir, _ := cliFixture(t)

	src := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(src, []byte("keep"), 0o600))

	require.NoError(t, run("mkdir", "/archive"))
	require.NoError(t, run("put", src, "--to", "/archive"))

	err := run("rm", "/archive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--recursive")

	require.NoError(t, run("rm", "-r", "/archive"))

	assert.ErrorIs(t, run("stat", "/archive"), skyvault.ErrNotFound)
	assert.ErrorIs(t, run("stat", "/archive/keep.txt"), skyvault.ErrNotFound)
}

func TestRoundTripAccountAndSharing(t *testing.T) {
	run, dir, _ := cliFixture(t)

	src := filepath.Join(dir, "brief.txt")
	require.NoError(t, os.WriteFile(src, []byte("meeting brief"), 0o600))

	require.NoError(t, run("login"))
	require.NoError(t, run("mkdir", "/team"))
	require.NoError(t, run("share", "/team", "friend@example.net", "--access", "read-write"))
	require.NoError(t, run("put", src, "--to", "/team"))
	require.NoError(t, run("export", "/team/brief.txt"))
	require.NoError(t, run("whoami"))
	require.NoError(t, run("config", "show"))
	require.NoError(t, run("logout"))
}

func TestRoundTripJournal(t *testing.T) {
	run, dir, journalPath := cliFixture(t)

	content := []byte("journaled transfer bytes\n")
	src := filepath.Join(dir, "log.txt")
	require.NoError(t, os.WriteFile(src, content, 0o600))

	require.NoError(t, run("put", src))

	dst := filepath.Join(dir, "log-copy.txt")
	require.NoError(t, run("get", "/log.txt", dst))
	require.NoError(t, run("cat", "/log.txt"))
	require.NoError(t, run("status"))

	j, err := journal.Open(journalPath, testLogger())
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Recent(context.Background(), defaultStatusLimit)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, "stream", entries[0].Op)
	assert.Equal(t, "download", entries[1].Op)
	assert.Equal(t, "upload", entries[2].Op)
	assert.NotEmpty(t, entries[1].Handle)

	for _, e := range entries {
		assert.Equal(t, "/log.txt", e.Path)
		assert.Equal(t, int64(len(content)), e.Bytes)
		assert.Equal(t, "ok", e.Status)
		assert.False(t, e.FinishedAt.IsZero())
	}
}
