// Package yamlvalue reads record values written as YAML scalars.
//
// Only the null, int, float and bool tags are interpreted. Every other
// scalar, timestamps included, is kept as the text that was written, so
// "2010-01-01" stays "2010-01-01" instead of becoming a time.
package yamlvalue

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lightorm/record"
)

// Parse reads s as a single YAML scalar. Empty input is null.
func Parse(s string) (record.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return record.Null{}, nil
	}
	return Scalar(doc.Content[0])
}

// Scalar converts one node. A nil or zero node is null.
func Scalar(node *yaml.Node) (record.Value, error) {
	if node == nil || node.Kind == 0 {
		return record.Null{}, nil
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: expected a scalar value", node.Line)
	}

	switch node.ShortTag() {
	case "!!null":
		return record.Null{}, nil
	case "!!int", "!!float", "!!bool":
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return record.ValueOf(v)
	default:
		return record.Text(node.Value), nil
	}
}

// Scalars converts a sequence of nodes.
func Scalars(nodes []yaml.Node) ([]record.Value, error) {
	out := make([]record.Value, len(nodes))
	for i := range nodes {
		v, err := Scalar(&nodes[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// Fields converts a mapping of column names to nodes. Keys are sorted so
// the result is deterministic.
func Fields(m map[string]yaml.Node) (record.Fields, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(record.Fields, 0, len(keys))
	for _, k := range keys {
		node := m[k]
		v, err := Scalar(&node)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out.Set(k, v)
	}
	return out, nil
}
