package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyvault/skyvault-go/engine"
	"github.com/skyvault/skyvault-go/internal/config"
	"github.com/skyvault/skyvault-go/internal/journal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOutcomeFromError(t *testing.T) {
	terr := &engine.TransferError{Code: 3, Message: "session expired"}
	rerr := &engine.RequestError{Type: engine.RequestLogin, Code: 5, Message: "quota exceeded"}

	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{"nil", nil, 0, ""},
		{"transfer error", terr, 3, "session expired"},
		{"request error", rerr, 5, "quota exceeded"},
		{"wrapped transfer error", fmt.Errorf("downloading /a.txt: %w", terr), 3, "session expired"},
		{"local error", errors.New("no such file"), -1, "no such file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := outcomeFromError(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func TestJournaled_RecordsSuccess(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()

	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"), logger)
	require.NoError(t, err)

	t.Cleanup(func() { j.Close() })

	err = journaled(ctx, j, logger, "upload", "/notes.txt", "", func() (int64, error) {
		return 42, nil
	})
	require.NoError(t, err)

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "upload", entries[0].Op)
	assert.Equal(t, "/notes.txt", entries[0].Path)
	assert.Equal(t, int64(42), entries[0].Bytes)
	assert.Equal(t, "ok", entries[0].Status)
}

func TestJournaled_RecordsFailure(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()

	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"), logger)
	require.NoError(t, err)

	t.Cleanup(func() { j.Close() })

	terr := &engine.TransferError{Code: 3, Message: "session expired"}

	err = journaled(ctx, j, logger, "download", "/big.bin", "1a2b", func() (int64, error) {
		return 7, terr
	})
	require.ErrorIs(t, err, terr)

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "failed", entries[0].Status)
	assert.Equal(t, 3, entries[0].StatusCode)
	assert.Equal(t, "session expired", entries[0].Message)
	assert.Equal(t, int64(7), entries[0].Bytes)
	assert.Equal(t, "1a2b", entries[0].Handle)
}

func TestJournaled_NilJournalRunsFn(t *testing.T) {
	called := false

	err := journaled(context.Background(), nil, testLogger(), "upload", "/x", "", func() (int64, error) {
		called = true
		return 0, nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestOpenJournal_Disabled(t *testing.T) {
	oldCfg := resolvedCfg

	t.Cleanup(func() { resolvedCfg = oldCfg })

	resolvedCfg = config.Config{}
	resolvedCfg.Journal.Enabled = false

	j, err := openJournal(testLogger())
	require.NoError(t, err)
	assert.Nil(t, j)
}

func TestOpenJournal_CreatesDirectory(t *testing.T) {
	oldCfg := resolvedCfg

	t.Cleanup(func() { resolvedCfg = oldCfg })

	dbPath := filepath.Join(t.TempDir(), "state", "journal.db")

	resolvedCfg = config.Config{}
	resolvedCfg.Journal.Enabled = true
	resolvedCfg.Journal.Path = dbPath

	j, err := openJournal(testLogger())
	require.NoError(t, err)
	require.NotNil(t, j)

	t.Cleanup(func() { j.Close() })

	_, err = os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err)
}
