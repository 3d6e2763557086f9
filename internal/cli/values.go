package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/lightorm/internal/yamlvalue"
	"github.com/roach88/lightorm/record"
)

// parseScalar reads s as a YAML scalar: null, integers, floats, booleans
// and strings. "" is null. Dates and times stay text as written.
func parseScalar(s string) (record.Value, error) {
	v, err := yamlvalue.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse value %q: %w", s, err)
	}
	return v, nil
}

// parseAssignments turns "name=value" arguments into ordered fields.
func parseAssignments(args []string) (record.Fields, error) {
	fields := make(record.Fields, 0, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		v, err := parseScalar(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		fields.Set(name, v)
	}
	return fields, nil
}

// parseArgs reads positional query parameters.
func parseArgs(args []string) ([]any, error) {
	out := make([]any, len(args))
	for i, arg := range args {
		v, err := parseScalar(arg)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
