// Package executor is the query layer: it runs SQL text against a
// database/sql connection and turns result rows into record.Fields.
//
// All SQL is written with "?" placeholders. Before dispatch the text is
// rewritten into the backend's native style by a scanner that leaves
// string literals, quoted identifiers and comments alone; parameters are
// always bound by the driver, never spliced into the text.
//
// Failures are logged with the offending statement and parameters and then
// returned as *ormerr.Error. Nothing is retried.
package executor
