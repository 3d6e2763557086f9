// Package ormerr defines the error taxonomy shared by the executor, the
// accessor and the store.
//
// A lookup that finds nothing is not an error: accessor operations return an
// absent value instead. Everything else fails with an *Error carrying a Code
// and whatever context (table, filter, query, args) was available.
package ormerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes errors.
type Code string

const (
	// CodeAmbiguousResult indicates a single-row lookup matched more than one row.
	CodeAmbiguousResult Code = "AMBIGUOUS_RESULT"

	// CodeNotSingle indicates RunSingle produced zero or several rows.
	CodeNotSingle Code = "NOT_SINGLE"

	// CodeMalformedTable indicates rows came back without column descriptors.
	CodeMalformedTable Code = "MALFORMED_TABLE"

	// CodeBackendFailure wraps any execution error from the store.
	CodeBackendFailure Code = "BACKEND_FAILURE"

	// CodeReadOnly indicates a read-only violation, either at open time or
	// when the store rejected a write.
	CodeReadOnly Code = "READ_ONLY"

	// CodeInvalidIdentifier indicates a table or column name that cannot be
	// placed into SQL text.
	CodeInvalidIdentifier Code = "INVALID_IDENTIFIER"

	// CodeInvalidTarget indicates a locator that names no usable backend.
	CodeInvalidTarget Code = "INVALID_TARGET"

	// CodeInvalidRecord indicates a record that cannot be written back.
	CodeInvalidRecord Code = "INVALID_RECORD"
)

// Error is the error type returned by this module.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Table is the table involved, if any.
	Table string

	// Filter is the rendered lookup filter, if any.
	Filter string

	// Query is the offending SQL text, if any.
	Query string

	// Args are the bound parameters of Query.
	Args []any

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)

	var ctx []string
	if e.Table != "" {
		ctx = append(ctx, "table="+e.Table)
	}
	if e.Filter != "" {
		ctx = append(ctx, "filter="+e.Filter)
	}
	if e.Query != "" {
		ctx = append(ctx, fmt.Sprintf("query=%q", e.Query))
	}
	if len(e.Args) > 0 {
		ctx = append(ctx, fmt.Sprintf("args=%v", e.Args))
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so sentinel-style comparisons work:
//
//	errors.Is(err, &ormerr.Error{Code: ormerr.CodeReadOnly})
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsAmbiguous reports whether err is an ambiguous single-row lookup.
func IsAmbiguous(err error) bool { return CodeOf(err) == CodeAmbiguousResult }

// IsNotSingle reports whether err is a RunSingle cardinality failure.
func IsNotSingle(err error) bool { return CodeOf(err) == CodeNotSingle }

// IsMalformedTable reports whether err is a missing-descriptor failure.
func IsMalformedTable(err error) bool { return CodeOf(err) == CodeMalformedTable }

// IsBackendFailure reports whether err came from the store itself.
func IsBackendFailure(err error) bool {
	c := CodeOf(err)
	return c == CodeBackendFailure || c == CodeReadOnly
}

// IsReadOnly reports whether err is a read-only violation.
func IsReadOnly(err error) bool { return CodeOf(err) == CodeReadOnly }

// NewAmbiguous creates an error for a lookup on table that matched n rows.
func NewAmbiguous(table, filter string, n int) *Error {
	return &Error{
		Code:    CodeAmbiguousResult,
		Message: fmt.Sprintf("more than one result (%d rows)", n),
		Table:   table,
		Filter:  filter,
	}
}

// NewNotSingle creates an error for a query expected to return one row.
func NewNotSingle(query string, args []any, n int) *Error {
	return &Error{
		Code:    CodeNotSingle,
		Message: fmt.Sprintf("did not produce a single record response (%d rows)", n),
		Query:   query,
		Args:    args,
	}
}

// NewMalformedTable creates an error for rows returned without columns.
func NewMalformedTable(query string) *Error {
	return &Error{
		Code:    CodeMalformedTable,
		Message: "rows returned without column descriptors; table defined without first field `integer primary key`?",
		Query:   query,
	}
}

// NewBackend wraps a store execution failure.
func NewBackend(query string, args []any, err error) *Error {
	return &Error{
		Code:    CodeBackendFailure,
		Message: "statement failed",
		Query:   query,
		Args:    args,
		Err:     err,
	}
}

// NewReadOnly creates a read-only violation.
func NewReadOnly(message string, err error) *Error {
	return &Error{
		Code:    CodeReadOnly,
		Message: message,
		Err:     err,
	}
}

// NewInvalidIdentifier rejects a table or column name.
func NewInvalidIdentifier(name, reason string) *Error {
	return &Error{
		Code:    CodeInvalidIdentifier,
		Message: fmt.Sprintf("invalid identifier %q: %s", name, reason),
	}
}

// NewInvalidTarget rejects a store locator.
func NewInvalidTarget(locator, reason string) *Error {
	return &Error{
		Code:    CodeInvalidTarget,
		Message: fmt.Sprintf("invalid target %q: %s", locator, reason),
	}
}

// NewInvalidRecord rejects a record that cannot be written back to table.
func NewInvalidRecord(table, reason string) *Error {
	return &Error{
		Code:    CodeInvalidRecord,
		Message: reason,
		Table:   table,
	}
}
