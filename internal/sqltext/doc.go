// Package sqltext holds the small amount of SQL text handling the module
// needs: translating the canonical "?" placeholder into a backend's native
// style, validating identifiers that are placed into SQL text, and
// splitting schema scripts.
//
// It is a scanner, not a parser. It knows where quoted strings, quoted
// identifiers, comments and dollar-quoted bodies begin and end, and nothing
// else about SQL.
package sqltext
