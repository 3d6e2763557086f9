package executor

import (
	"fmt"

	"github.com/roach88/lightorm/internal/sqltext"
)

// Dialect identifies the backend behind an executor.
type Dialect int

const (
	// SQLite is the embedded, file-backed store (mattn/go-sqlite3).
	SQLite Dialect = iota

	// Postgres is the server-backed store (jackc/pgx via database/sql).
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// DriverName returns the database/sql driver name registered for d.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	default:
		return "sqlite3"
	}
}

// Placeholder returns the native positional parameter style of d.
func (d Dialect) Placeholder() sqltext.Placeholder {
	switch d {
	case Postgres:
		return sqltext.PlaceholderDollar
	default:
		return sqltext.PlaceholderQuestion
	}
}
