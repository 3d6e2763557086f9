package harness

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lightorm/internal/yamlvalue"
	"github.com/roach88/lightorm/record"
)

// checkExpect compares a step outcome with its expectation and returns one
// message per mismatch.
func checkExpect(step Step, exp Expect, out outcome) []string {
	var msgs []string

	if exp.Error != "" {
		msgs = append(msgs, fmt.Sprintf("expected error %s, step succeeded", exp.Error))
	}
	if exp.Created != nil && *exp.Created != out.created {
		msgs = append(msgs, fmt.Sprintf("expected created=%t, got %t", *exp.Created, out.created))
	}
	if exp.Found != nil && *exp.Found != out.found {
		msgs = append(msgs, fmt.Sprintf("expected found=%t, got %t", *exp.Found, out.found))
	}
	if exp.Rows != nil && *exp.Rows != out.rows {
		msgs = append(msgs, fmt.Sprintf("expected %d rows, got %d", *exp.Rows, out.rows))
	}

	if !present(exp.Identity) && len(exp.Record) == 0 {
		return msgs
	}
	if out.rec == nil {
		return append(msgs, fmt.Sprintf("expected a row from %s %s, got none", step.Op, step.Table))
	}
	if present(exp.Identity) {
		want, err := yamlvalue.Scalar(&exp.Identity)
		switch {
		case err != nil:
			msgs = append(msgs, fmt.Sprintf("identity: %v", err))
		case !sameValue(want, out.rec.Identity()):
			msgs = append(msgs, fmt.Sprintf("expected identity %v, got %v", want, out.rec.Identity()))
		}
	}
	return append(msgs, matchColumns(out.rec, exp.Record)...)
}

// evaluateAssertion checks one final-state assertion.
func (h *Harness) evaluateAssertion(ctx context.Context, a Assertion) error {
	where, err := fields("where", a.Where)
	if err != nil {
		return err
	}
	acc := h.store.Session().Accessor()

	switch a.Type {
	case AssertRowCount:
		ids, err := acc.FindAllIdentities(ctx, a.Table, where)
		if err != nil {
			return err
		}
		if len(ids) != *a.Count {
			return fmt.Errorf("%s %s: expected %d rows, got %d", a.Table, where, *a.Count, len(ids))
		}
		return nil

	case AssertFinalState:
		rec, err := acc.FindRecord(ctx, a.Table, where)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%s %s: no matching row", a.Table, where)
		}
		if msgs := matchColumns(rec, a.Expect); len(msgs) > 0 {
			return fmt.Errorf("%s %s: %s", a.Table, where, msgs[0])
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// matchColumns reports every column of want that rec lacks or holds a
// different value for. Columns are visited in name order.
func matchColumns(rec *record.Record, want map[string]yaml.Node) []string {
	names := make([]string, 0, len(want))
	for k := range want {
		names = append(names, k)
	}
	sort.Strings(names)

	var msgs []string
	for _, name := range names {
		got, ok := rec.Fields().Get(name)
		if !ok {
			msgs = append(msgs, fmt.Sprintf("column %s missing from %s", name, rec))
			continue
		}
		node := want[name]
		w, err := yamlvalue.Scalar(&node)
		switch {
		case err != nil:
			msgs = append(msgs, fmt.Sprintf("column %s: %v", name, err))
		case !sameValue(w, got):
			msgs = append(msgs, fmt.Sprintf("column %s: expected %v, got %v", name, w, got))
		}
	}
	return msgs
}

// sameValue compares a scenario literal with a stored value. Integers and
// reals compare numerically since YAML cannot tell 8 from 8.0 for a real
// column.
func sameValue(want, got record.Value) bool {
	if wf, ok := numeric(want); ok {
		gf, ok := numeric(got)
		return ok && wf == gf
	}
	if record.IsNull(want) {
		return record.IsNull(got)
	}
	return want == got
}

func numeric(v record.Value) (float64, bool) {
	switch n := v.(type) {
	case record.Int:
		return float64(n), true
	case record.Real:
		return float64(n), true
	}
	return 0, false
}
