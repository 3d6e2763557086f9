// Package record provides the value model shared by the executor and the
// accessor.
//
// Column values are a sealed set of scalars (Null, Int, Real, Text). A row
// is an ordered Fields mapping; a Record wraps one full row and remembers
// its table and identity column.
//
// This package imports nothing internal. Every other package builds on it.
package record
