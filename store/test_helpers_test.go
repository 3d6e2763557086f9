package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/kelseyhightower/envconfig"
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

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testDBPath returns a path for a database file that does not exist yet.
func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// createTestStore creates a fresh SQLite store with the est/site schema.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), FileTarget{Path: testDBPath(t)},
		WithSchema(estSchema),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type testEnv struct {
	PostgresDSN string `envconfig:"LIGHTORM_TEST_POSTGRES_DSN"`
}

// postgresDSN returns the live Postgres connection string or skips the test.
func postgresDSN(t *testing.T) string {
	t.Helper()
	var env testEnv
	require.NoError(t, envconfig.Process("", &env))
	if env.PostgresDSN == "" {
		t.Skip("LIGHTORM_TEST_POSTGRES_DSN not set")
	}
	return env.PostgresDSN
}
