// Package accessor reads, creates and updates single rows addressed by a
// field filter instead of hand-written SQL.
//
// Every operation validates the table and column names it places into SQL
// text; values are always bound as parameters. The identity column of each
// table is found through an identity.Resolver shared by all accessors
// derived from the same root.
package accessor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/roach88/lightorm/identity"
	"github.com/roach88/lightorm/internal/sqltext"
	"github.com/roach88/lightorm/ormerr"
	"github.com/roach88/lightorm/record"
)

// Runner executes SQL written with "?" markers. *executor.Executor
// implements it.
type Runner interface {
	Run(ctx context.Context, query string, args ...any) ([]record.Fields, error)
	Columns(ctx context.Context, table string) ([]string, error)
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithResolver shares an existing identity cache.
func WithResolver(r *identity.Resolver) Option {
	return func(a *Accessor) {
		if r != nil {
			a.resolver = r
		}
	}
}

// WithLogger sets the diagnostics logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Accessor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Accessor performs record operations on one Runner.
type Accessor struct {
	exec     Runner
	resolver *identity.Resolver
	logger   *slog.Logger
}

// New creates an accessor running on exec. Without WithResolver it gets a
// fresh identity cache.
func New(exec Runner, opts ...Option) *Accessor {
	a := &Accessor{
		exec:   exec,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.resolver == nil {
		a.resolver = identity.NewResolver()
	}
	return a
}

// WithExecutor returns an accessor sharing the identity cache and logger but
// running on exec, typically a transaction-bound executor.
func (a *Accessor) WithExecutor(exec Runner) *Accessor {
	return &Accessor{exec: exec, resolver: a.resolver, logger: a.logger}
}

// Resolver returns the identity cache.
func (a *Accessor) Resolver() *identity.Resolver { return a.resolver }

// FindOption adjusts a Find call.
type FindOption func(*findConfig)

type findConfig struct {
	asRecord bool
	multi    bool
}

// AsRecord selects full rows instead of only the identity column.
func AsRecord() FindOption {
	return func(c *findConfig) { c.asRecord = true }
}

// AllowMulti permits more than one matching row.
func AllowMulti() FindOption {
	return func(c *findConfig) { c.multi = true }
}

// Find looks up the rows of table matching every field in ident. Null
// values in ident match NULL columns. An empty ident matches every row.
//
// No match is an empty Result, not an error. More than one match fails with
// AMBIGUOUS_RESULT unless AllowMulti is given.
func (a *Accessor) Find(ctx context.Context, table string, ident record.Fields, opts ...FindOption) (Result, error) {
	var cfg findConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	name, err := sqltext.Ident(table)
	if err != nil {
		return Result{}, err
	}
	idCol, err := a.resolver.Resolve(ctx, a.exec, name)
	if err != nil {
		return Result{}, err
	}

	projection := idCol
	if cfg.asRecord {
		projection = "*"
	}
	st, err := buildSelect(name, projection, ident)
	if err != nil {
		return Result{}, err
	}

	rows, err := a.exec.Run(ctx, st.SQL, st.Args...)
	if err != nil {
		return Result{}, err
	}
	if len(rows) > 1 && !cfg.multi {
		return Result{}, ormerr.NewAmbiguous(name, ident.String(), len(rows))
	}

	return Result{table: name, identity: idCol, records: cfg.asRecord, rows: rows}, nil
}

// FindIdentity returns the identity value of the single row matching ident.
func (a *Accessor) FindIdentity(ctx context.Context, table string, ident record.Fields) (record.Value, bool, error) {
	res, err := a.Find(ctx, table, ident)
	if err != nil {
		return nil, false, err
	}
	v, ok := res.Identity()
	return v, ok, nil
}

// FindRecord returns the single row matching ident, or nil.
func (a *Accessor) FindRecord(ctx context.Context, table string, ident record.Fields) (*record.Record, error) {
	res, err := a.Find(ctx, table, ident, AsRecord())
	if err != nil {
		return nil, err
	}
	return res.Record(), nil
}

// FindAllIdentities returns the identity values of every row matching ident.
func (a *Accessor) FindAllIdentities(ctx context.Context, table string, ident record.Fields) ([]record.Value, error) {
	res, err := a.Find(ctx, table, ident, AllowMulti())
	if err != nil {
		return nil, err
	}
	return res.Identities(), nil
}

// FindAllRecords returns every row matching ident.
func (a *Accessor) FindAllRecords(ctx context.Context, table string, ident record.Fields) ([]*record.Record, error) {
	res, err := a.Find(ctx, table, ident, AsRecord(), AllowMulti())
	if err != nil {
		return nil, err
	}
	return res.Records(), nil
}

// FindOrCreateIdentity returns the identity of the row matching ident,
// inserting ident merged over defaults when none exists. created reports
// whether a row was inserted.
func (a *Accessor) FindOrCreateIdentity(ctx context.Context, table string, ident, defaults record.Fields) (record.Value, bool, error) {
	res, created, err := a.findOrCreate(ctx, table, ident, defaults, false)
	if err != nil {
		return nil, false, err
	}
	v, _ := res.Identity()
	return v, created, nil
}

// FindOrCreateRecord is FindOrCreateIdentity returning the full row.
func (a *Accessor) FindOrCreateRecord(ctx context.Context, table string, ident, defaults record.Fields) (*record.Record, bool, error) {
	res, created, err := a.findOrCreate(ctx, table, ident, defaults, true)
	if err != nil {
		return nil, false, err
	}
	return res.Record(), created, nil
}

// findOrCreate inserts the merged fields and reads the row back with a
// second lookup keyed on all of them. The pair is not atomic; a merged field
// set matching several rows fails with AMBIGUOUS_RESULT.
func (a *Accessor) findOrCreate(ctx context.Context, table string, ident, defaults record.Fields, asRecord bool) (Result, bool, error) {
	var opts []FindOption
	if asRecord {
		opts = append(opts, AsRecord())
	}

	res, err := a.Find(ctx, table, ident, opts...)
	if err != nil {
		return Result{}, false, err
	}
	if !res.Empty() {
		return res, false, nil
	}

	merged := ident.Merge(defaults)
	st, err := buildInsert(res.Table(), merged)
	if err != nil {
		return Result{}, false, err
	}
	if _, err := a.exec.Run(ctx, st.SQL, st.Args...); err != nil {
		return Result{}, false, err
	}
	a.logger.Debug("inserted row", "table", res.Table(), "fields", merged.String())

	res, err = a.Find(ctx, table, merged, opts...)
	if err != nil {
		return Result{}, false, err
	}
	if res.Empty() {
		return Result{}, false, ormerr.NewNotSingle(st.SQL, st.Args, 0)
	}
	return res, true, nil
}

// UpdateOption adjusts an Update call.
type UpdateOption func(*updateConfig)

type updateConfig struct {
	table string
}

// WithTable names the table explicitly. The identity column is then taken
// to be the field matching the generic identity name ("id" by default),
// compared without regard to case.
func WithTable(table string) UpdateOption {
	return func(c *updateConfig) { c.table = table }
}

// Update writes every non-identity field of rec to the row with rec's
// identity.
//
// The table comes from WithTable, else from the record's origin when it was
// read through an accessor, else from the name of its first field, which
// then also names the identity column. Nothing is committed; run Update in
// a transaction or on an autocommit session. A record without non-identity
// fields is left alone.
func (a *Accessor) Update(ctx context.Context, rec *record.Record, opts ...UpdateOption) error {
	if rec == nil {
		return ormerr.NewInvalidRecord("", "nil record")
	}
	var cfg updateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	fields := rec.Fields()
	var table, idCol string
	switch {
	case cfg.table != "":
		table, idCol = cfg.table, fieldNamed(fields, a.resolver.GenericColumn())
	case rec.Table() != "" && rec.IdentityColumn() != "":
		table, idCol = rec.Table(), rec.IdentityColumn()
	case len(fields) > 0:
		table, idCol = fields[0].Name, fields[0].Name
	default:
		return ormerr.NewInvalidRecord("", "empty record without table")
	}

	name, err := sqltext.Ident(table)
	if err != nil {
		return err
	}
	st, ok, err := buildUpdate(name, idCol, fields)
	if err != nil {
		if ormerr.CodeOf(err) != "" {
			return err
		}
		return ormerr.NewInvalidRecord(name, err.Error())
	}
	if !ok {
		a.logger.Debug("nothing to update", "table", name, "identity", idCol)
		return nil
	}

	_, err = a.exec.Run(ctx, st.SQL, st.Args...)
	return err
}

// fieldNamed returns the name of the first field equal to col ignoring
// case, or col when there is none.
func fieldNamed(fields record.Fields, col string) string {
	for _, f := range fields {
		if strings.EqualFold(f.Name, col) {
			return f.Name
		}
	}
	return col
}
