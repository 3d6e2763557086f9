package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Field is a single column name and its value.
type Field struct {
	Name  string
	Value Value
}

// F builds a Field from a plain Go value.
// Panics if v is not a supported scalar; use ValueOf for untrusted input.
// Example: record.Fields{record.F("date", 2010), record.F("site", nil)}
func F(name string, v any) Field {
	return Field{Name: name, Value: MustValueOf(v)}
}

// Fields is an ordered mapping from column name to value.
//
// Order is kept so generated column lists follow the caller's order, but it
// has no meaning when Fields is used as a filter. Names are unique; Set
// replaces an existing entry in place.
type Fields []Field

// FromMap builds Fields from a map. Keys are sorted so the result is
// deterministic.
func FromMap(m map[string]any) (Fields, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Fields, 0, len(keys))
	for _, k := range keys {
		v, err := ValueOf(m[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out = append(out, Field{Name: k, Value: v})
	}
	return out, nil
}

// Names returns the field names in order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, fld := range f {
		names[i] = fld.Name
	}
	return names
}

// Values returns the field values in order.
func (f Fields) Values() []Value {
	vals := make([]Value, len(f))
	for i, fld := range f {
		vals[i] = fld.Value
	}
	return vals
}

// Get returns the value stored under name.
func (f Fields) Get(name string) (Value, bool) {
	for _, fld := range f {
		if fld.Name == name {
			return fld.Value, true
		}
	}
	return nil, false
}

// Set stores v under name, replacing an existing value in place or
// appending a new field.
func (f *Fields) Set(name string, v Value) {
	if v == nil {
		v = Null{}
	}
	for i := range *f {
		if (*f)[i].Name == name {
			(*f)[i].Value = v
			return
		}
	}
	*f = append(*f, Field{Name: name, Value: v})
}

// Delete removes name if present.
func (f *Fields) Delete(name string) {
	for i := range *f {
		if (*f)[i].Name == name {
			*f = append((*f)[:i], (*f)[i+1:]...)
			return
		}
	}
}

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	copy(out, f)
	return out
}

// Merge lays f over base: the result starts with base's fields in order,
// f's values win on conflict and f's new names are appended.
func (f Fields) Merge(base Fields) Fields {
	out := base.Clone()
	for _, fld := range f {
		out.Set(fld.Name, fld.Value)
	}
	return out
}

// Map returns the fields as a map of driver values (nil, int64, float64,
// string).
func (f Fields) Map() map[string]any {
	m := make(map[string]any, len(f))
	for _, fld := range f {
		if fld.Value == nil {
			m[fld.Name] = nil
			continue
		}
		v, _ := fld.Value.Value()
		m[fld.Name] = v
	}
	return m
}

// String renders the fields as {name: value, ...} in order.
func (f Fields) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fld := range f {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s: %v", fld.Name, displayValue(fld.Value))
	}
	buf.WriteByte('}')
	return buf.String()
}

func displayValue(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Text:
		return fmt.Sprintf("%q", string(val))
	default:
		return val
	}
}

// MarshalJSON implements json.Marshaler, keeping field order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fld := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(fld.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", fld.Name, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalValue(fld.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", fld.Name, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping the document's key
// order. Nested arrays and objects are rejected.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields: expected JSON object")
	}

	out := Fields{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("fields: expected string key, got %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		if _, nested := valTok.(json.Delim); nested {
			return fmt.Errorf("fields: key %q: nested values are not scalars", key)
		}
		v, err := ValueOf(valTok)
		if err != nil {
			return fmt.Errorf("fields: key %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}
