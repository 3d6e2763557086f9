package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/roach88/lightorm/internal/sqltext"
	"github.com/roach88/lightorm/ormerr"
)

const tableExistsQuery = `select exists (select 1 from pg_tables where tablename = $1)`

// openPostgres connects to the server behind t.
//
// Schema statements run only when the table named by the first
// "create table" statement is missing. Read-only connections mark every
// transaction read-only on the server and never apply schema.
func openPostgres(ctx context.Context, t NetworkTarget, o *options) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(t.ConnString)
	if err != nil {
		invalid := ormerr.NewInvalidTarget(t.String(), "cannot parse connection string")
		invalid.Err = err
		return nil, invalid
	}
	if o.readOnly {
		cfg.RuntimeParams["default_transaction_read_only"] = "on"
	}

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		return nil, closeAfter(db, fmt.Errorf("failed to connect to database: %w", err))
	}

	if err := ensurePostgresSchema(ctx, db, t.String(), o); err != nil {
		return nil, closeAfter(db, err)
	}
	return db, nil
}

// ensurePostgresSchema applies o.schema unless the table named by its first
// "create table" statement already exists.
func ensurePostgresSchema(ctx context.Context, db *sql.DB, target string, o *options) error {
	if o.readOnly || len(o.schema) == 0 {
		return nil
	}

	table, ok := sqltext.CreateTableName(o.schema)
	if !ok {
		o.logger.Warn("schema has no create table statement; not applied", "target", target)
		return nil
	}

	var exists bool
	if err := db.QueryRowContext(ctx, tableExistsQuery, table).Scan(&exists); err != nil {
		return fmt.Errorf("check table %s: %w", table, err)
	}
	if exists {
		return nil
	}

	o.logger.Info("creating schema", "target", target, "table", table, "statements", len(o.schema))
	return applySchema(ctx, db, o.schema)
}
