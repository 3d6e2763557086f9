// Package identity decides which column of a table is its identity column.
//
// Two conventions exist: the identity column is named after the table
// (table "est", column "est"), or it carries a fixed generic name ("id").
// A Resolver probes each table once and remembers the answer.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DefaultGenericColumn is the generic identity column name.
const DefaultGenericColumn = "id"

// Prober lists the columns of a table. *executor.Executor implements it.
type Prober interface {
	Columns(ctx context.Context, table string) ([]string, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGenericColumn changes the generic identity column name.
func WithGenericColumn(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.generic = name
		}
	}
}

// Resolver caches the identity convention of every table it has probed.
// Entries never expire; the schema is assumed fixed for the resolver's
// lifetime. Safe for concurrent use.
type Resolver struct {
	generic string

	mu    sync.RWMutex
	cache map[string]string
}

// NewResolver creates an empty resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		generic: DefaultGenericColumn,
		cache:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GenericColumn returns the generic identity column name.
func (r *Resolver) GenericColumn() string { return r.generic }

// Resolve returns the identity column of table, probing through p on first
// use. A failed probe is returned as is and not cached.
func (r *Resolver) Resolve(ctx context.Context, p Prober, table string) (string, error) {
	if col, ok := r.Cached(table); ok {
		return col, nil
	}

	cols, err := p.Columns(ctx, table)
	if err != nil {
		return "", fmt.Errorf("resolve identity of %s: %w", table, err)
	}

	col := table
	for _, c := range cols {
		if strings.EqualFold(c, r.generic) {
			col = c
			break
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A concurrent probe may have won; keep the first answer.
	if existing, ok := r.cache[table]; ok {
		return existing, nil
	}
	r.cache[table] = col
	return col, nil
}

// Cached returns the cached identity column of table, if any.
func (r *Resolver) Cached(table string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.cache[table]
	return col, ok
}

// Forget drops the cached entry for table.
func (r *Resolver) Forget(table string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, table)
}
