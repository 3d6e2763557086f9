package executor

import (
	"bytes"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

var estSchema = []string{
	`create table est (
    est integer primary key,
    site int,
    date int,
    flow real
    )`,
	`create table site (
    site integer primary key,
    name text
    )`,
}

// quietLogger discards diagnostics.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bufferLogger captures diagnostics for assertions.
func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

// createTestDB opens a fresh SQLite database with the est/site schema.
func createTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range estSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

// createMockDB returns a sqlmock database matching queries exactly.
func createMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}
