package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/lightorm/ormerr"
)

// openSQLite opens or creates the database file behind t.
//
// A missing file is only created when writing is allowed; the schema is
// applied once, right after creation, inside one transaction.
func openSQLite(ctx context.Context, t FileTarget, o *options) (*sql.DB, error) {
	existed, err := fileExists(t)
	if err != nil {
		return nil, err
	}
	if !existed && o.readOnly {
		return nil, ormerr.NewReadOnly(
			fmt.Sprintf("%q does not exist and read-only mode was requested", t.filename()), nil)
	}

	db, err := sql.Open("sqlite3", sqliteDSN(t, o.readOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an in-memory
	// database alive for the store's lifetime.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, closeAfter(db, fmt.Errorf("failed to connect to database: %w", err))
	}

	if err := applyPragmas(ctx, db); err != nil {
		return nil, closeAfter(db, fmt.Errorf("failed to apply pragmas: %w", err))
	}

	if !existed && len(o.schema) > 0 {
		o.logger.Info("creating database", "path", t.filename(), "statements", len(o.schema))
		if err := applySchema(ctx, db, o.schema); err != nil {
			return nil, closeAfter(db, err)
		}
	}
	return db, nil
}

func fileExists(t FileTarget) (bool, error) {
	if t.inMemory() {
		return false, nil
	}
	_, err := os.Stat(t.filename())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", t.filename(), err)
	}
}

// sqliteDSN adds mode=ro for read-only opens, turning plain paths into
// "file:" URIs.
func sqliteDSN(t FileTarget, readOnly bool) string {
	if !readOnly {
		return t.Path
	}
	dsn := t.Path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&mode=ro"
	}
	return dsn + "?mode=ro"
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
