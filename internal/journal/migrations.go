package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrate brings the journal schema up to date. The .sql migrations are
// embedded in the binary and applied through goose's provider API, which
// records applied versions in a goose_db_version table next to the
// journal tables.
func migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	// goose wants the .sql files at the root of the filesystem it is given.
	schema, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("journal: embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, schema)
	if err != nil {
		return fmt.Errorf("journal: migration provider: %w", err)
	}

	applied, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("journal: migrating schema: %w", err)
	}

	if len(applied) == 0 {
		logger.Debug("journal schema up to date")
		return nil
	}
	for _, res := range applied {
		logger.Info("journal migration applied",
			slog.String("source", res.Source.Path),
			slog.Int64("duration_ms", res.Duration.Milliseconds()),
		)
	}

	return nil
}
