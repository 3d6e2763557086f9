// Package harness runs declarative lightorm scenarios.
//
// A scenario is a YAML file naming a schema, a list of steps (ensure, get,
// get_all, update, query) with optional expectations, and a list of final
// assertions. Run executes the steps in order against a fresh in-memory
// SQLite store and records one trace line per step:
//
//	1 ensure pizza {name: "margherita"} -> created pizza{id: 1, name: "margherita"}
//
// The trace is deterministic for a given scenario, which makes it suitable
// for golden file comparison (see RunWithGolden).
//
// Expectation and assertion failures do not abort the run; they are
// collected in Result.Errors. An error returned by a step that did not
// expect one stops the scenario.
package harness
