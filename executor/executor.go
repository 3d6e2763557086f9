package executor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/lightorm/internal/sqltext"
	"github.com/roach88/lightorm/ormerr"
	"github.com/roach88/lightorm/record"
)

// Conn is implemented by *sql.DB, *sql.Tx and *sql.Conn.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for statement diagnostics.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Executor runs SQL written with the canonical "?" placeholder against one
// connection and returns rows as ordered field mappings.
//
// An Executor does no locking and holds no state besides its connection;
// use one per logical thread of control.
type Executor struct {
	conn    Conn
	dialect Dialect
	logger  *slog.Logger
}

// New creates an executor running on conn with the placeholder style of
// dialect.
func New(conn Conn, dialect Dialect, opts ...Option) *Executor {
	e := &Executor{
		conn:    conn,
		dialect: dialect,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithConn returns an executor with the same dialect and logger bound to
// conn. Used to run the same code inside a transaction.
func (e *Executor) WithConn(conn Conn) *Executor {
	return &Executor{conn: conn, dialect: e.dialect, logger: e.logger}
}

// Dialect returns the backend dialect.
func (e *Executor) Dialect() Dialect { return e.dialect }

// Logger returns the diagnostics logger.
func (e *Executor) Logger() *slog.Logger { return e.logger }

// Run executes query with args.
//
// Statements starting with "select" return their rows; anything else is
// executed and returns nil rows.
//
// When the first argument is itself a []any, a record.Fields or a
// map[string]any and the statement is not a select, Run treats args as a
// batch and executes the statement once per element (see RunBatch).
// Mapping elements bind as named parameters. A select given a single such
// argument binds its contents as the parameter list.
func (e *Executor) Run(ctx context.Context, query string, args ...any) ([]record.Fields, error) {
	if len(args) > 0 && isBatchElement(args[0]) {
		if sqltext.IsSelect(query) {
			if len(args) > 1 {
				return nil, fmt.Errorf("executor: batch execution of a select is not supported")
			}
			return e.run(ctx, query, expandElement(args[0]))
		}
		batch := make([][]any, len(args))
		for i, a := range args {
			if !isBatchElement(a) {
				return nil, fmt.Errorf("executor: batch element %d is %T, not a parameter list", i, a)
			}
			batch[i] = expandElement(a)
		}
		return nil, e.RunBatch(ctx, query, batch)
	}
	return e.run(ctx, query, args)
}

// RunBatch executes a non-select statement once per parameter list.
// It stops at the first failure. The batch is not wrapped in a transaction;
// run it on a transaction-bound executor for all-or-nothing behavior.
func (e *Executor) RunBatch(ctx context.Context, query string, batch [][]any) error {
	if sqltext.IsSelect(query) {
		return fmt.Errorf("executor: batch execution of a select is not supported")
	}
	bound, err := e.rebind(query)
	if err != nil {
		return e.fail(query, nil, err)
	}
	e.logger.Debug("executing batch", "query", bound, "size", len(batch))
	for _, args := range batch {
		if _, err := e.conn.ExecContext(ctx, bound, args...); err != nil {
			return e.fail(query, args, err)
		}
	}
	return nil
}

// RunSingle runs a select that must produce exactly one row.
func (e *Executor) RunSingle(ctx context.Context, query string, args ...any) (record.Fields, error) {
	rows, err := e.Run(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, ormerr.NewNotSingle(query, args, len(rows))
	}
	return rows[0], nil
}

// Columns returns the column names of table using a zero-row projection.
func (e *Executor) Columns(ctx context.Context, table string) (cols []string, err error) {
	name, err := sqltext.Ident(table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("select * from %s where 1 = 0", name)

	e.logger.Debug("probing columns", "table", name)
	rows, err := e.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, e.fail(query, nil, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = e.fail(query, nil, cerr)
		}
	}()

	cols, err = rows.Columns()
	if err != nil {
		return nil, e.fail(query, nil, err)
	}
	return cols, nil
}

func (e *Executor) run(ctx context.Context, query string, args []any) (out []record.Fields, err error) {
	bound, err := e.rebind(query)
	if err != nil {
		return nil, e.fail(query, args, err)
	}

	if !sqltext.IsSelect(query) {
		e.logger.Debug("executing", "query", bound, "args", len(args))
		if _, err := e.conn.ExecContext(ctx, bound, args...); err != nil {
			return nil, e.fail(query, args, err)
		}
		return nil, nil
	}

	e.logger.Debug("querying", "query", bound, "args", len(args))
	rows, err := e.conn.QueryContext(ctx, bound, args...)
	if err != nil {
		return nil, e.fail(query, args, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = e.fail(query, args, cerr)
		}
	}()

	out, err = scanRows(query, rows)
	if err != nil {
		if ormerr.IsMalformedTable(err) {
			e.logger.Error("malformed table", "query", query)
			return nil, err
		}
		return nil, e.fail(query, args, err)
	}
	return out, nil
}

func (e *Executor) rebind(query string) (string, error) {
	bound, _, err := sqltext.Rebind(query, e.dialect.Placeholder())
	return bound, err
}

// fail reports a failed statement and converts err into an *ormerr.Error.
func (e *Executor) fail(query string, args []any, err error) error {
	e.logger.Error("query failed",
		"query", query,
		"args", args,
		"dialect", e.dialect.String(),
		"error", err,
	)
	return classify(query, args, err)
}

// scanRows materializes every row. Reading everything up front lets callers
// issue further queries on the same connection while using the result.
func scanRows(query string, rows *sql.Rows) ([]record.Fields, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := []record.Fields{}
	for rows.Next() {
		if len(cols) == 0 {
			return nil, ormerr.NewMalformedTable(query)
		}
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		fields := make(record.Fields, 0, len(cols))
		for i, col := range cols {
			v, err := record.ValueOf(dest[i])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col, err)
			}
			fields.Set(col, v)
		}
		out = append(out, fields)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func isBatchElement(v any) bool {
	switch v.(type) {
	case []any, record.Fields, map[string]any:
		return true
	default:
		return false
	}
}

// expandElement turns one batch element into database/sql arguments.
func expandElement(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case record.Fields:
		args := make([]any, len(val))
		for i, f := range val {
			args[i] = sql.Named(f.Name, f.Value)
		}
		return args
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		args := make([]any, len(keys))
		for i, k := range keys {
			args[i] = sql.Named(k, val[k])
		}
		return args
	default:
		return []any{v}
	}
}
