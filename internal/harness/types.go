package harness

import (
	"fmt"
	"strings"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Op      string `json:"op"`
	Subject string `json:"subject"`
	Outcome string `json:"outcome"`
}

func (e TraceEvent) String() string {
	return fmt.Sprintf("%d %s %s -> %s", e.Seq, e.Op, e.Subject, e.Outcome)
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// AddTrace appends an event and returns it.
func (r *Result) AddTrace(op, subject, outcome string) TraceEvent {
	ev := TraceEvent{Seq: len(r.Trace) + 1, Op: op, Subject: subject, Outcome: outcome}
	r.Trace = append(r.Trace, ev)
	return ev
}

// TraceText renders the trace one event per line.
func (r *Result) TraceText() string {
	var b strings.Builder
	for _, ev := range r.Trace {
		b.WriteString(ev.String())
		b.WriteByte('\n')
	}
	return b.String()
}
