// Package store opens the backing database, applies schema on creation and
// hands out sessions for record access.
//
// Two backends exist: an embedded SQLite file (FileTarget) and a PostgreSQL
// server (NetworkTarget). Sessions and transactions opened from one Store
// share its identity cache.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/lightorm/accessor"
	"github.com/roach88/lightorm/executor"
	"github.com/roach88/lightorm/identity"
)

// Option configures Open.
type Option func(*options)

type options struct {
	schema   []string
	readOnly bool
	logger   *slog.Logger
	generic  string
}

// WithSchema sets the DDL statements applied, in order, when the store is
// created. They are never reapplied to an existing store.
func WithSchema(stmts []string) Option {
	return func(o *options) { o.schema = stmts }
}

// WithReadOnly opens the store without write access.
func WithReadOnly(readOnly bool) Option {
	return func(o *options) { o.readOnly = readOnly }
}

// WithLogger sets the logger shared by the store, its executors and
// accessors. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithGenericIdentity changes the generic identity column name ("id").
func WithGenericIdentity(name string) Option {
	return func(o *options) { o.generic = name }
}

// Store is an open database together with its identity cache.
type Store struct {
	db       *sql.DB
	target   Target
	dialect  executor.Dialect
	readOnly bool
	logger   *slog.Logger
	resolver *identity.Resolver

	closeOnce sync.Once
	closeErr  error
}

// Open opens target, creating it and applying the schema when it does not
// exist yet.
func Open(ctx context.Context, target Target, opts ...Option) (*Store, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	var (
		db      *sql.DB
		dialect executor.Dialect
		err     error
	)
	switch t := target.(type) {
	case FileTarget:
		dialect = executor.SQLite
		db, err = openSQLite(ctx, t, o)
	case NetworkTarget:
		dialect = executor.Postgres
		db, err = openPostgres(ctx, t, o)
	case nil:
		return nil, errors.New("store: nil target")
	default:
		return nil, fmt.Errorf("store: unsupported target %T", target)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target, err)
	}

	o.logger.Debug("store opened", "target", target.String(), "dialect", dialect.String(), "read_only", o.readOnly)
	return &Store{
		db:       db,
		target:   target,
		dialect:  dialect,
		readOnly: o.readOnly,
		logger:   o.logger,
		resolver: identity.NewResolver(identity.WithGenericColumn(o.generic)),
	}, nil
}

// OpenLocator parses locator with ParseTarget and opens it.
func OpenLocator(ctx context.Context, locator string, opts ...Option) (*Store, error) {
	target, err := ParseTarget(locator)
	if err != nil {
		return nil, err
	}
	return Open(ctx, target, opts...)
}

// Target returns the opened target.
func (s *Store) Target() Target { return s.target }

// Dialect returns the backend dialect.
func (s *Store) Dialect() executor.Dialect { return s.dialect }

// ReadOnly reports whether the store was opened read-only.
func (s *Store) ReadOnly() bool { return s.readOnly }

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB { return s.db }

// Resolver returns the identity cache shared by all sessions.
func (s *Store) Resolver() *identity.Resolver { return s.resolver }

// Session returns an autocommit session: every statement takes effect
// immediately.
func (s *Store) Session() *Session {
	return s.newSession(s.db)
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, session: s.newSession(tx)}, nil
}

// InTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(*Session) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx.Session()); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return multierror.Append(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	return tx.Commit()
}

// Close closes the database. Further calls return the first result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func (s *Store) newSession(conn executor.Conn) *Session {
	exec := executor.New(conn, s.dialect, executor.WithLogger(s.logger))
	return &Session{
		exec:     exec,
		accessor: accessor.New(exec, accessor.WithResolver(s.resolver), accessor.WithLogger(s.logger)),
	}
}

// Session pairs an executor with an accessor on the same connection.
// A session is meant for one logical thread of control.
type Session struct {
	exec     *executor.Executor
	accessor *accessor.Accessor
}

// Executor returns the raw query executor.
func (s *Session) Executor() *executor.Executor { return s.exec }

// Accessor returns the record accessor.
func (s *Session) Accessor() *accessor.Accessor { return s.accessor }

// Tx is an open transaction.
type Tx struct {
	tx      *sql.Tx
	session *Session
}

// Session returns the session bound to the transaction.
func (t *Tx) Session() *Session { return t.session }

// Commit makes the transaction's writes durable.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards the transaction's writes.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// applySchema runs stmts in order inside one transaction.
func applySchema(ctx context.Context, db *sql.DB, stmts []string) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
				err = multierror.Append(err, rerr)
			}
		}
	}()

	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// closeAfter closes c following a failure, keeping both errors.
func closeAfter(c io.Closer, err error) error {
	if cerr := c.Close(); cerr != nil {
		return multierror.Append(err, fmt.Errorf("close: %w", cerr))
	}
	return err
}
