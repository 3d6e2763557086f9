package record

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Value is a sealed interface over the scalar types a column can hold.
// Only Null, Int, Real and Text implement it.
//
// Every Value is also a driver.Valuer, so values bind directly as query
// arguments without conversion by the caller.
type Value interface {
	driver.Valuer
	value()
}

// Null is the SQL NULL value.
type Null struct{}

func (Null) value() {}

// Value implements driver.Valuer.
func (Null) Value() (driver.Value, error) { return nil, nil }

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (Null) String() string { return "null" }

// Int is an integer column value.
type Int int64

func (Int) value() {}

// Value implements driver.Valuer.
func (i Int) Value() (driver.Value, error) { return int64(i), nil }

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Real is a floating point column value.
type Real float64

func (Real) value() {}

// Value implements driver.Valuer.
func (r Real) Value() (driver.Value, error) { return float64(r), nil }

func (r Real) String() string { return strconv.FormatFloat(float64(r), 'g', -1, 64) }

// Text is a string column value.
type Text string

func (Text) value() {}

// Value implements driver.Valuer.
func (t Text) Value() (driver.Value, error) { return string(t), nil }

func (t Text) String() string { return string(t) }

// IsNull reports whether v is absent or the SQL NULL value.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// ValueOf converts a Go or driver value into a Value.
//
// Driver results are normalized: []byte becomes Text, bool becomes Int 0/1,
// time.Time becomes Text in RFC 3339 form, and narrower numeric types widen
// to Int or Real.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case int64:
		return Int(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case float64:
		return Real(val), nil
	case float32:
		return Real(val), nil
	case string:
		return Text(val), nil
	case []byte:
		return Text(string(val)), nil
	case bool:
		if val {
			return Int(1), nil
		}
		return Int(0), nil
	case time.Time:
		return Text(val.Format(time.RFC3339Nano)), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return Real(f), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// MustValueOf is ValueOf for literal values known to be supported.
// It panics on unsupported types.
func MustValueOf(v any) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

// marshalValue marshals a Value to JSON bytes.
func marshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Int:
		return json.Marshal(int64(val))
	case Real:
		return json.Marshal(float64(val))
	case Text:
		return json.Marshal(string(val))
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}
