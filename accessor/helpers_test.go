package accessor

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lightorm/executor"
)

var testSchema = []string{
	`create table est (
    est integer primary key,
    site int,
    date int,
    flow real
    )`,
	`create table site (
    site integer primary key,
    name text,
    region text
    )`,
	`create table pizza (
    id integer primary key,
    name text,
    price real
    )`,
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestAccessor opens a fresh SQLite database with the test schema and
// returns an accessor on it plus the raw database.
func createTestAccessor(t *testing.T) (*Accessor, *executor.Executor, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range testSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	exec := executor.New(db, executor.SQLite, executor.WithLogger(quietLogger()))
	return New(exec, WithLogger(quietLogger())), exec, db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("select count(*) from "+table).Scan(&n))
	return n
}
