// Package journal records transfer history in a local SQLite database.
//
// Each upload, download or stream performed by the CLI gets one row:
// created by Record when the transfer starts and completed by Finish
// when it ends. Recent lists the latest entries for display.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	// Pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Entry status constants for the entries.status column.
const (
	statusRunning = "running"
	statusOK      = "ok"
	statusFailed  = "failed"
)

const (
	sqlInsertEntry = `INSERT INTO entries
		(id, op, path, handle, bytes, status, status_code, message, started_at)
		VALUES (?, ?, ?, ?, 0, '` + statusRunning + `', 0, NULL, ?)`

	sqlFinishEntry = `UPDATE entries
		SET bytes = ?, status = ?, status_code = ?, message = ?, finished_at = ?
		WHERE id = ? AND status = '` + statusRunning + `'`

	sqlRecentEntries = `SELECT id, op, path, handle, bytes, status,
		status_code, message, started_at, finished_at
		FROM entries ORDER BY started_at DESC, id LIMIT ?`
)

// Entry is one recorded transfer.
type Entry struct {
	ID         string
	Op         string
	Path       string
	Handle     string
	Bytes      int64
	Status     string
	StatusCode int
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the transfer is still running
}

// Journal is the sole writer to the journal database.
type Journal struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// Open opens the SQLite database at dbPath, runs migrations, and
// returns a ready-to-use journal. The database uses WAL mode with a
// busy timeout so concurrent CLI invocations queue instead of failing.
func Open(dbPath string, logger *slog.Logger) (*Journal, error) {
	// DSN parameters ensure pragmas apply to every connection from the pool.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"+
			"&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: opening database %s: %w", dbPath, err)
	}

	// Sole-writer pattern: only one connection writes at a time.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("journal opened", slog.String("db_path", dbPath))

	return &Journal{
		db:      db,
		logger:  logger,
		nowFunc: time.Now,
	}, nil
}

// Record inserts a running entry for a transfer that just started and
// returns its id.
func (j *Journal) Record(ctx context.Context, op, path, handle string) (string, error) {
	id := uuid.New().String()
	startedAt := j.nowFunc().UnixNano()

	_, err := j.db.ExecContext(ctx, sqlInsertEntry,
		id, op, path, nullString(handle), startedAt)
	if err != nil {
		return "", fmt.Errorf("journal: recording %s %s: %w", op, path, err)
	}

	return id, nil
}

// Finish marks a running entry as done, recording the transferred byte
// count and the outcome. A zero code means success.
func (j *Journal) Finish(ctx context.Context, id string, bytes int64, code int, message string) error {
	status := statusOK
	if code != 0 {
		status = statusFailed
	}

	finishedAt := j.nowFunc().UnixNano()

	result, err := j.db.ExecContext(ctx, sqlFinishEntry,
		bytes, status, code, nullString(message), finishedAt, id)
	if err != nil {
		return fmt.Errorf("journal: finishing entry %s: %w", id, err)
	}

	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return fmt.Errorf("journal: finishing entry %s rows affected: %w", id, rowsErr)
	}

	if rows == 0 {
		return fmt.Errorf("journal: finishing entry %s: entry not %s", id, statusRunning)
	}

	return nil
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, sqlRecentEntries, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: listing entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		e, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating entries: %w", err)
	}

	return entries, nil
}

// scanEntry scans a single row from the entries table, handling
// nullable columns with sql.Null* types.
func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		e          Entry
		handle     sql.NullString
		message    sql.NullString
		startedAt  int64
		finishedAt sql.NullInt64
	)

	err := rows.Scan(
		&e.ID, &e.Op, &e.Path, &handle, &e.Bytes, &e.Status,
		&e.StatusCode, &message, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: scanning entry: %w", err)
	}

	e.Handle = handle.String
	e.Message = message.String
	e.StartedAt = time.Unix(0, startedAt)

	if finishedAt.Valid {
		e.FinishedAt = time.Unix(0, finishedAt.Int64)
	}

	return &e, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: s, Valid: true}
}
