package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/skyvault/skyvault-go/engine"
	"github.com/skyvault/skyvault-go/internal/config"
	"github.com/skyvault/skyvault-go/internal/journal"
)

const defaultStatusLimit = 20

// openJournal opens the transfer journal, creating its directory if
// needed. Returns nil when the journal is disabled in config.
func openJournal(logger *slog.Logger) (*journal.Journal, error) {
	if !resolvedCfg.Journal.Enabled {
		return nil, nil
	}

	path := resolvedCfg.Journal.Path
	if path == "" {
		var err error

		path, err = config.DefaultJournalPath()
		if err != nil {
			return nil, fmt.Errorf("locating journal: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	return journal.Open(path, logger)
}

// openJournalLogged is openJournal for transfer commands, where a journal
// problem must not block the transfer. Failures are logged and a nil
// journal returned.
func openJournalLogged(logger *slog.Logger) *journal.Journal {
	j, err := openJournal(logger)
	if err != nil {
		logger.Warn("journal unavailable", slog.String("error", err.Error()))
		return nil
	}

	return j
}

// journaled records a transfer in the journal around fn. Journal failures
// are logged but never fail the transfer itself; a nil journal runs fn
// directly.
func journaled(
	ctx context.Context, j *journal.Journal, logger *slog.Logger,
	op, path, handle string, fn func() (int64, error),
) error {
	if j == nil {
		_, err := fn()
		return err
	}

	id, recErr := j.Record(ctx, op, path, handle)
	if recErr != nil {
		logger.Warn("journal record failed", slog.String("error", recErr.Error()))

		_, err := fn()

		return err
	}

	bytes, err := fn()

	code, message := outcomeFromError(err)
	if finErr := j.Finish(ctx, id, bytes, code, message); finErr != nil {
		logger.Warn("journal finish failed", slog.String("error", finErr.Error()))
	}

	return err
}

// outcomeFromError maps a transfer result to journal status fields.
// Engine-reported failures keep their provider code; local failures
// (missing file, canceled context) use -1.
func outcomeFromError(err error) (code int, message string) {
	if err == nil {
		return 0, ""
	}

	var terr *engine.TransferError
	if errors.As(err, &terr) {
		return terr.Code, terr.Message
	}

	var rerr *engine.RequestError
	if errors.As(err, &rerr) {
		return rerr.Code, rerr.Message
	}

	return -1, err.Error()
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List recent transfers from the journal",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}

	cmd.Flags().IntP("limit", "n", defaultStatusLimit, "number of entries to show")

	return cmd
}

// statusJSONEntry is the JSON output schema for a single journal entry.
type statusJSONEntry struct {
	ID         string `json:"id"`
	Op         string `json:"op"`
	Path       string `json:"path"`
	Handle     string `json:"handle,omitempty"`
	Bytes      int64  `json:"bytes"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	j, err := openJournal(logger)
	if err != nil {
		return err
	}

	if j == nil {
		statusf("Journal is disabled (journal.enabled = false).\n")
		return nil
	}
	defer j.Close()

	entries, err := j.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if flagJSON {
		return printStatusJSON(entries)
	}

	printStatusText(entries)

	return nil
}

func printStatusJSON(entries []journal.Entry) error {
	out := make([]statusJSONEntry, 0, len(entries))

	for _, e := range entries {
		je := statusJSONEntry{
			ID:         e.ID,
			Op:         e.Op,
			Path:       e.Path,
			Handle:     e.Handle,
			Bytes:      e.Bytes,
			Status:     e.Status,
			StatusCode: e.StatusCode,
			Message:    e.Message,
			StartedAt:  e.StartedAt.UTC().Format(time.RFC3339),
		}

		if !e.FinishedAt.IsZero() {
			je.FinishedAt = e.FinishedAt.UTC().Format(time.RFC3339)
		}

		out = append(out, je)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printStatusText(entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Println("No transfers recorded.")
		return
	}

	headers := []string{"STARTED", "OP", "PATH", "SIZE", "RESULT"}
	rows := make([][]string, 0, len(entries))

	for _, e := range entries {
		result := e.Status
		if e.Status == "failed" && e.Message != "" {
			result = fmt.Sprintf("failed: %s", e.Message)
		}

		rows = append(rows, []string{
			formatTime(e.StartedAt),
			e.Op,
			e.Path,
			formatSize(e.Bytes),
			result,
		})
	}

	printTable(os.Stdout, headers, rows)
}
