package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lightorm/record"
)

const estSchema = "create table est (est integer primary key, date int, site text)"

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func mustValue(t *testing.T, v any) record.Value {
	t.Helper()
	val, err := record.ValueOf(v)
	require.NoError(t, err)
	return val
}

func TestPizzaScenarioGolden(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "pizza.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 11)
}

func TestRunReportsExpectationMismatch(t *testing.T) {
	s := mustParse(t, `
name: mismatch
schema: ["`+estSchema+`"]
steps:
  - op: ensure
    table: est
    where: {date: 2010}
    expect: {created: false, identity: 7, record: {site: x}}
  - op: get_all
    table: est
    expect: {rows: 3}
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "expected created=false, got true")
	assert.Contains(t, result.Errors[1], "expected identity 7, got 1")
	assert.Contains(t, result.Errors[2], "column site: expected x, got null")
	assert.Contains(t, result.Errors[3], "expected 3 rows, got 1")
	assert.Len(t, result.Trace, 2, "mismatches do not stop the run")
}

func TestRunStopsOnUnexpectedError(t *testing.T) {
	s := mustParse(t, `
name: stops
schema: ["`+estSchema+`"]
steps:
  - op: get
    table: nope
  - op: ensure
    table: est
    where: {date: 2010}
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "1 get nope {} -> error BACKEND_FAILURE", result.Trace[0].String())
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRunExpectedErrorMismatch(t *testing.T) {
	s := mustParse(t, `
name: wrong-code
schema: ["`+estSchema+`"]
steps:
  - op: get
    table: nope
    expect: {error: AMBIGUOUS_RESULT}
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error AMBIGUOUS_RESULT")
}

func TestRunExpectedErrorThatDoesNotHappen(t *testing.T) {
	s := mustParse(t, `
name: no-error
schema: ["`+estSchema+`"]
steps:
  - op: get
    table: est
    expect: {error: AMBIGUOUS_RESULT, found: false}
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"step 1: expected error AMBIGUOUS_RESULT, step succeeded"}, result.Errors)
	assert.Equal(t, "1 get est {} -> absent", result.Trace[0].String())
}

func TestRunDefaultsAndCustomIdentity(t *testing.T) {
	s := mustParse(t, `
name: defaults
identity_column: code
schema:
  - create table site (code integer primary key, name text, region text)
steps:
  - op: ensure
    table: site
    where: {name: north}
    defaults: {region: eu}
    expect: {created: true, identity: 1, record: {region: eu}}
  - op: update
    table: site
    identity: 1
    set: {region: us}
  - op: update
    table: site
    identity: 9
    set: {region: us}
  - op: query
    sql: update site set name = ? where code = ?
    args: [south, 1]
assertions:
  - type: final_state
    table: site
    where: {code: 1}
    expect: {name: south, region: us}
  - type: row_count
    table: site
    where: {region: eu}
    count: 0
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	want := `1 ensure site {name: "north"} defaults {region: "eu"} -> created site{code: 1, name: "north", region: "eu"}
2 update site 1 {region: "us"} -> updated site{code: 1, name: "north", region: "us"}
3 update site 9 {region: "us"} -> absent
4 query "update site set name = ? where code = ?" [south 1] -> ok
`
	assert.Equal(t, want, result.TraceText())
}

func TestRunKeepsDatesAsWritten(t *testing.T) {
	s := mustParse(t, `
name: dates
schema:
  - create table visit (id integer primary key, day text, seen text)
steps:
  - op: ensure
    table: visit
    where: {day: 2010-01-01, seen: 2010-01-01 10:00:00}
    expect: {created: true, record: {day: 2010-01-01}}
  - op: query
    sql: insert into visit (day) values ('2011-05-05')
  - op: get
    table: visit
    where: {day: 2011-05-05}
    expect: {found: true, identity: 2}
  - op: update
    table: visit
    identity: 2
    set: {seen: 2011-05-05T08:30:00Z}
  - op: get_all
    table: visit
    where: {day: 2010-01-01}
    expect: {rows: 1}
assertions:
  - type: final_state
    table: visit
    where: {id: 2}
    expect: {seen: 2011-05-05T08:30:00Z}
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	want := `1 ensure visit {day: "2010-01-01", seen: "2010-01-01 10:00:00"} -> created visit{id: 1, day: "2010-01-01", seen: "2010-01-01 10:00:00"}
2 query "insert into visit (day) values ('2011-05-05')" -> ok
3 get visit {day: "2011-05-05"} -> found visit{id: 2, day: "2011-05-05", seen: null}
4 update visit 2 {seen: "2011-05-05T08:30:00Z"} -> updated visit{id: 2, day: "2011-05-05", seen: "2011-05-05T08:30:00Z"}
5 get_all visit {day: "2010-01-01"} -> 1 rows
`
	assert.Equal(t, want, result.TraceText())
}

func TestRunFailedAssertions(t *testing.T) {
	s := mustParse(t, `
name: assertions
schema: ["`+estSchema+`"]
steps:
  - op: ensure
    table: est
    where: {date: 2010}
assertions:
  - type: row_count
    table: est
    count: 2
  - type: final_state
    table: est
    where: {date: 2011}
    expect: {site: x}
  - type: final_state
    table: est
    where: {date: 2010}
    expect: {flow: 1}
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expected 2 rows, got 1")
	assert.Contains(t, result.Errors[1], "no matching row")
	assert.Contains(t, result.Errors[2], "column flow missing")
}

func TestRunRejectsBadValues(t *testing.T) {
	s := mustParse(t, `
name: bad-values
schema: ["`+estSchema+`"]
steps:
  - op: ensure
    table: est
    where: {date: [1, 2]}
`)

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
	assert.Contains(t, err.Error(), "where")
}

func TestRunRejectsBadSchema(t *testing.T) {
	s := mustParse(t, `
name: bad-schema
schema: ["create tabel est (x)"]
steps:
  - {op: get, table: est}
`)

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in-memory store")
}

func TestRunsAreIsolated(t *testing.T) {
	src := `
name: isolated
schema: ["` + estSchema + `"]
steps:
  - op: ensure
    table: est
    where: {date: 2010}
    expect: {created: true, identity: 1}
`
	for i := 0; i < 2; i++ {
		result, err := Run(context.Background(), mustParse(t, src))
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d: %v", i, result.Errors)
	}
}

func TestSameValue(t *testing.T) {
	tests := []struct {
		name string
		want any
		got  any
		same bool
	}{
		{"int real", 8, 8.0, true},
		{"real int", 2.5, 2, false},
		{"text", "x", "x", true},
		{"text differs", "x", "y", false},
		{"null", nil, nil, true},
		{"null vs value", nil, 1, false},
		{"text vs int", "1", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.same, sameValue(mustValue(t, tt.want), mustValue(t, tt.got)))
		})
	}
}
