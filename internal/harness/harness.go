package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lightorm/internal/yamlvalue"
	"github.com/roach88/lightorm/ormerr"
	"github.com/roach88/lightorm/record"
	"github.com/roach88/lightorm/store"
)

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger handed to the store. Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Harness executes one scenario against its own store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// outcome is what a step produced, for checking against its Expect.
type outcome struct {
	rec     *record.Record
	created bool
	found   bool
	rows    int
}

// Run executes scenario in a fresh in-memory database.
//
// The returned error reports a problem running the scenario at all (bad
// values, store creation). Unmet expectations are reported in the Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}

	storeOpts := []store.Option{
		store.WithSchema(scenario.Schema),
		store.WithLogger(h.logger),
	}
	if scenario.IdentityColumn != "" {
		storeOpts = append(storeOpts, store.WithGenericIdentity(scenario.IdentityColumn))
	}
	st, err := store.Open(ctx, store.FileTarget{Path: ":memory:"}, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	h.store = st

	result := NewResult()
	for i, step := range scenario.Steps {
		stop, err := h.executeStep(ctx, i+1, step, result)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if stop {
			return result, nil
		}
	}

	for i, a := range scenario.Assertions {
		if err := h.evaluateAssertion(ctx, a); err != nil {
			result.AddError("assertion %d (%s): %v", i+1, a.Type, err)
		}
	}
	return result, nil
}

// executeStep runs one step and records it. stop is true when the step
// failed unexpectedly.
func (h *Harness) executeStep(ctx context.Context, seq int, step Step, result *Result) (stop bool, err error) {
	subject, err := describe(step)
	if err != nil {
		return false, err
	}

	out, runErr := h.perform(ctx, step)
	if runErr != nil {
		if isInputError(runErr) {
			return false, runErr
		}
		result.AddTrace(step.Op, subject, "error "+errorCode(runErr))
		want := ""
		if step.Expect != nil {
			want = step.Expect.Error
		}
		switch {
		case want == "":
			result.AddError("step %d: unexpected error: %v", seq, runErr)
			return true, nil
		case want != errorCode(runErr):
			result.AddError("step %d: expected error %s, got %v", seq, want, runErr)
			return true, nil
		}
		return false, nil
	}

	result.AddTrace(step.Op, subject, render(step.Op, out))
	if step.Expect != nil {
		for _, msg := range checkExpect(step, *step.Expect, out) {
			result.AddError("step %d: %s", seq, msg)
		}
	}
	return false, nil
}

func (h *Harness) perform(ctx context.Context, step Step) (outcome, error) {
	sess := h.store.Session()
	acc := sess.Accessor()

	switch step.Op {
	case OpEnsure:
		where, err := fields("where", step.Where)
		if err != nil {
			return outcome{}, err
		}
		defaults, err := fields("defaults", step.Defaults)
		if err != nil {
			return outcome{}, err
		}
		rec, created, err := acc.FindOrCreateRecord(ctx, step.Table, where, defaults)
		if err != nil {
			return outcome{}, err
		}
		return outcome{rec: rec, created: created, found: true, rows: 1}, nil

	case OpGet:
		where, err := fields("where", step.Where)
		if err != nil {
			return outcome{}, err
		}
		rec, err := acc.FindRecord(ctx, step.Table, where)
		if err != nil {
			return outcome{}, err
		}
		if rec == nil {
			return outcome{}, nil
		}
		return outcome{rec: rec, found: true, rows: 1}, nil

	case OpGetAll:
		where, err := fields("where", step.Where)
		if err != nil {
			return outcome{}, err
		}
		recs, err := acc.FindAllRecords(ctx, step.Table, where)
		if err != nil {
			return outcome{}, err
		}
		return outcome{found: len(recs) > 0, rows: len(recs)}, nil

	case OpUpdate:
		return h.update(ctx, sess, step)

	case OpQuery:
		args, err := queryArgs(step.Args)
		if err != nil {
			return outcome{}, err
		}
		rows, err := sess.Executor().Run(ctx, step.SQL, args...)
		if err != nil {
			return outcome{}, err
		}
		if rows == nil {
			return outcome{rows: -1}, nil
		}
		return outcome{found: len(rows) > 0, rows: len(rows)}, nil
	}
	return outcome{}, inputError{fmt.Errorf("unknown op %q", step.Op)}
}

// update loads the row by identity, applies Set and reads it back.
func (h *Harness) update(ctx context.Context, sess *store.Session, step Step) (outcome, error) {
	id, err := yamlvalue.Scalar(&step.Identity)
	if err != nil {
		return outcome{}, inputError{fmt.Errorf("identity: %w", err)}
	}
	set, err := fields("set", step.Set)
	if err != nil {
		return outcome{}, err
	}

	acc := sess.Accessor()
	col, err := acc.Resolver().Resolve(ctx, sess.Executor(), step.Table)
	if err != nil {
		return outcome{}, err
	}
	key := record.Fields{{Name: col, Value: id}}

	rec, err := acc.FindRecord(ctx, step.Table, key)
	if err != nil {
		return outcome{}, err
	}
	if rec == nil {
		return outcome{}, nil
	}
	for _, f := range set {
		rec.Set(f.Name, f.Value)
	}
	if err := acc.Update(ctx, rec); err != nil {
		return outcome{}, err
	}

	rec, err = acc.FindRecord(ctx, step.Table, key)
	if err != nil {
		return outcome{}, err
	}
	return outcome{rec: rec, found: rec != nil, rows: 1}, nil
}

func render(op string, out outcome) string {
	switch op {
	case OpEnsure:
		if out.created {
			return "created " + out.rec.String()
		}
		return "found " + out.rec.String()
	case OpGet:
		if out.rec == nil {
			return "absent"
		}
		return "found " + out.rec.String()
	case OpUpdate:
		if out.rec == nil {
			return "absent"
		}
		return "updated " + out.rec.String()
	default:
		if out.rows < 0 {
			return "ok"
		}
		return fmt.Sprintf("%d rows", out.rows)
	}
}

// describe renders what a step operates on.
func describe(step Step) (string, error) {
	switch step.Op {
	case OpQuery:
		if len(step.Args) == 0 {
			return fmt.Sprintf("%q", step.SQL), nil
		}
		args, err := queryArgs(step.Args)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%q %v", step.SQL, args), nil
	case OpUpdate:
		id, err := yamlvalue.Scalar(&step.Identity)
		if err != nil {
			return "", inputError{fmt.Errorf("identity: %w", err)}
		}
		set, err := fields("set", step.Set)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %v %s", step.Table, id, set), nil
	}

	where, err := fields("where", step.Where)
	if err != nil {
		return "", err
	}
	s := step.Table + " " + where.String()
	if len(step.Defaults) > 0 {
		defaults, err := fields("defaults", step.Defaults)
		if err != nil {
			return "", err
		}
		s += " defaults " + defaults.String()
	}
	return s, nil
}

func fields(what string, m map[string]yaml.Node) (record.Fields, error) {
	f, err := yamlvalue.Fields(m)
	if err != nil {
		return nil, inputError{fmt.Errorf("%s: %w", what, err)}
	}
	return f, nil
}

func queryArgs(nodes []yaml.Node) ([]any, error) {
	vals, err := yamlvalue.Scalars(nodes)
	if err != nil {
		return nil, inputError{fmt.Errorf("args: %w", err)}
	}
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	return args, nil
}

func errorCode(err error) string {
	if code := ormerr.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}

// inputError marks a malformed scenario value, as opposed to a failure of
// the operation itself.
type inputError struct{ err error }

func (e inputError) Error() string { return e.err.Error() }
func (e inputError) Unwrap() error { return e.err }

func isInputError(err error) bool {
	_, ok := err.(inputError)
	return ok
}
