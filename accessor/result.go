package accessor

import "github.com/roach88/lightorm/record"

// Result holds the rows matched by Find.
type Result struct {
	table    string
	identity string
	records  bool
	rows     []record.Fields
}

// Table returns the queried table.
func (r Result) Table() string { return r.table }

// IdentityColumn returns the resolved identity column of the table.
func (r Result) IdentityColumn() string { return r.identity }

// Len returns the number of matched rows.
func (r Result) Len() int { return len(r.rows) }

// Empty reports whether nothing matched.
func (r Result) Empty() bool { return len(r.rows) == 0 }

// Identities returns the identity value of every row in order.
func (r Result) Identities() []record.Value {
	out := make([]record.Value, len(r.rows))
	for i, row := range r.rows {
		out[i] = r.identityOf(row)
	}
	return out
}

// Identity returns the identity of the first row.
func (r Result) Identity() (record.Value, bool) {
	if len(r.rows) == 0 {
		return nil, false
	}
	return r.identityOf(r.rows[0]), true
}

// Records returns every row as a record bound to the table. Rows of an
// identity-only lookup carry just the identity column.
func (r Result) Records() []*record.Record {
	out := make([]*record.Record, len(r.rows))
	for i, row := range r.rows {
		out[i] = record.New(r.table, r.identity, row)
	}
	return out
}

// Record returns the first row as a record, or nil.
func (r Result) Record() *record.Record {
	if len(r.rows) == 0 {
		return nil
	}
	return record.New(r.table, r.identity, r.rows[0])
}

// identityOf reads the identity value of row. Identity-only rows have a
// single column whose reported name may differ in case from the table name.
func (r Result) identityOf(row record.Fields) record.Value {
	if !r.records && len(row) == 1 {
		return row[0].Value
	}
	v, _ := row.Get(r.identity)
	return v
}
