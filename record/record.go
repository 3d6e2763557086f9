package record

import "fmt"

// Record is one full row of a table, identity column included.
//
// A record read through the accessor remembers the table it came from and
// which column is its identity, so it can be written back without hints.
// Records are snapshots: nothing refreshes them after the read.
type Record struct {
	table    string
	identity string
	fields   Fields
}

// New creates a record for table whose identity column is identity.
// Either name may be empty for records built by hand.
func New(table, identity string, fields Fields) *Record {
	return &Record{table: table, identity: identity, fields: fields}
}

// Table returns the table the record was read from, or "".
func (r *Record) Table() string { return r.table }

// IdentityColumn returns the name of the identity column, or "".
func (r *Record) IdentityColumn() string { return r.identity }

// Identity returns the identity value, or nil when the identity column is
// unknown or missing.
func (r *Record) Identity() Value {
	if r.identity == "" {
		return nil
	}
	v, _ := r.fields.Get(r.identity)
	return v
}

// Get returns the value of column name. Missing columns read as nil.
func (r *Record) Get(name string) Value {
	v, _ := r.fields.Get(name)
	return v
}

// Set changes the value of column name.
func (r *Record) Set(name string, v Value) {
	r.fields.Set(name, v)
}

// Fields returns the ordered mapping view of the row. The returned slice is
// a copy; use Set to modify the record.
func (r *Record) Fields() Fields { return r.fields.Clone() }

// Map returns the row as a map of driver values.
func (r *Record) Map() map[string]any { return r.fields.Map() }

// Columns returns the column names in order.
func (r *Record) Columns() []string { return r.fields.Names() }

func (r *Record) String() string {
	if r.table == "" {
		return r.fields.String()
	}
	return fmt.Sprintf("%s%s", r.table, r.fields.String())
}

// MarshalJSON renders the row as an ordered JSON object.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.fields.MarshalJSON()
}
