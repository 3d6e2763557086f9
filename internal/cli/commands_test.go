package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pizzaSchema = `
create table pizza (
    id integer primary key,
    name text,
    price real
);
create table topping (
    id integer primary key,
    name text
);
`

type response struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   *CLIError       `json:"error"`
	TraceID string          `json:"trace_id"`
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	opts := &RootOptions{TraceIDs: NewFixedGenerator("trace-test")}
	code := execute(context.Background(), opts, args, &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func runJSON(t *testing.T, args ...string) (int, response) {
	t.Helper()
	res := runCLI(t, append([]string{"--format", "json"}, args...)...)
	var resp response
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp), "stdout: %s\nstderr: %s", res.stdout, res.stderr)
	return res.code, resp
}

// setupPizzaDB creates a database from pizzaSchema and returns its path.
func setupPizzaDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	schema := filepath.Join(dir, "pizza.sql")
	require.NoError(t, os.WriteFile(schema, []byte(pizzaSchema), 0644))
	db := filepath.Join(dir, "pizza.db")

	code, resp := runJSON(t, "--db", db, "init", "--schema", schema)
	require.Equal(t, ExitSuccess, code)
	require.Equal(t, "ok", resp.Status)
	return db
}

func decodeData(t *testing.T, resp response) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data
}

func TestInitCreatesDatabase(t *testing.T) {
	db := setupPizzaDB(t)

	_, err := os.Stat(db)
	require.NoError(t, err)

	// Reinitializing an existing database leaves it alone.
	code, resp := runJSON(t, "--db", db, "init", "--schema", filepath.Join(filepath.Dir(db), "pizza.sql"))
	assert.Equal(t, ExitSuccess, code)
	data := decodeData(t, resp)
	assert.Equal(t, "sqlite", data["dialect"])
	assert.Equal(t, float64(2), data["statements"])
	assert.Equal(t, "trace-test", resp.TraceID)
}

func TestEnsureGetUpdate(t *testing.T) {
	db := setupPizzaDB(t)

	code, resp := runJSON(t, "--db", db, "ensure", "pizza", "name=margherita", "--default", "price=8.5")
	require.Equal(t, ExitSuccess, code)
	data := decodeData(t, resp)
	assert.Equal(t, true, data["created"])
	assert.Equal(t, map[string]any{"id": float64(1), "name": "margherita", "price": 8.5}, data["record"])

	code, resp = runJSON(t, "--db", db, "ensure", "pizza", "name=margherita", "--default", "price=99")
	require.Equal(t, ExitSuccess, code)
	data = decodeData(t, resp)
	assert.Equal(t, false, data["created"])

	code, resp = runJSON(t, "--db", db, "get", "--id", "pizza", "name=margherita")
	require.Equal(t, ExitSuccess, code)
	assert.JSONEq(t, `1`, string(resp.Data))

	code, resp = runJSON(t, "--db", db, "update", "pizza", "1", "price=9.25")
	require.Equal(t, ExitSuccess, code)
	assert.JSONEq(t, `{"id": 1, "name": "margherita", "price": 9.25}`, string(resp.Data))

	code, resp = runJSON(t, "--db", db, "get", "pizza", "id=1")
	require.Equal(t, ExitSuccess, code)
	assert.JSONEq(t, `{"id": 1, "name": "margherita", "price": 9.25}`, string(resp.Data))
}

func TestDateValuesStayText(t *testing.T) {
	db := setupPizzaDB(t)

	code, resp := runJSON(t, "--db", db, "ensure", "topping", "name=2010-01-01")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, map[string]any{"id": float64(1), "name": "2010-01-01"}, decodeData(t, resp)["record"])

	res := runCLI(t, "--db", db, "query", "insert into topping (name) values ('2011-05-05 10:00:00')")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	code, resp = runJSON(t, "--db", db, "get", "--id", "topping", "name=2011-05-05 10:00:00")
	require.Equal(t, ExitSuccess, code)
	assert.JSONEq(t, `2`, string(resp.Data))
}

func TestGetAllText(t *testing.T) {
	db := setupPizzaDB(t)

	for _, name := range []string{"basil", "garlic"} {
		res := runCLI(t, "--db", db, "ensure", "topping", "name="+name)
		require.Equal(t, ExitSuccess, res.code, res.stderr)
		assert.Contains(t, res.stdout, "created topping{")
	}

	res := runCLI(t, "--db", db, "get", "--all", "--id", "topping")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "1\n2\n", res.stdout)

	res = runCLI(t, "--db", db, "get", "--all", "topping", "name=garlic")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "topping{id: 2, name: \"garlic\"}\n", res.stdout)
}

func TestGetFailures(t *testing.T) {
	db := setupPizzaDB(t)
	require.Equal(t, ExitSuccess, runCLI(t, "--db", db, "query", "insert into topping (name) values (?)", "basil").code)
	require.Equal(t, ExitSuccess, runCLI(t, "--db", db, "query", "insert into topping (name) values (?)", "basil").code)

	code, resp := runJSON(t, "--db", db, "get", "topping", "name=basil")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AMBIGUOUS_RESULT", resp.Error.Code)

	code, resp = runJSON(t, "--db", db, "get", "topping", "name=oregano")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "trace-test", resp.TraceID)
}

func TestQuery(t *testing.T) {
	db := setupPizzaDB(t)

	res := runCLI(t, "--db", db, "query", "insert into pizza (name, price) values (?, ?)", "funghi", "7.5")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "OK\n", res.stdout)

	code, resp := runJSON(t, "--db", db, "query", "--one", "select count(*) as n from pizza")
	require.Equal(t, ExitSuccess, code)
	assert.JSONEq(t, `{"n": 1}`, string(resp.Data))

	code, resp = runJSON(t, "--db", db, "query", "select name from pizza where price > ?", "5")
	require.Equal(t, ExitSuccess, code)
	assert.JSONEq(t, `[{"name": "funghi"}]`, string(resp.Data))

	code, resp = runJSON(t, "--db", db, "query", "--one", "select * from pizza where price > ?", "100")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "NOT_SINGLE", resp.Error.Code)

	code, resp = runJSON(t, "--db", db, "query", "select * from nope")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "BACKEND_FAILURE", resp.Error.Code)
}

func TestUpdateMissingRow(t *testing.T) {
	db := setupPizzaDB(t)

	code, resp := runJSON(t, "--db", db, "update", "pizza", "42", "price=1")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)

	code, resp = runJSON(t, "--db", db, "update", "pizza", "1", "id=2")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestUpdateRejectsIdentityChange(t *testing.T) {
	db := setupPizzaDB(t)
	require.Equal(t, ExitSuccess, runCLI(t, "--db", db, "ensure", "pizza", "name=funghi").code)

	code, resp := runJSON(t, "--db", db, "update", "pizza", "1", "id=2")
	assert.Equal(t, ExitCommandError, code)
	assert.Equal(t, ErrCodeCommand, resp.Error.Code)
}

func TestReadOnly(t *testing.T) {
	dir := t.TempDir()

	code, resp := runJSON(t, "--db", filepath.Join(dir, "missing.db"), "--read-only", "get", "pizza")
	assert.Equal(t, ExitCommandError, code)
	assert.Equal(t, "READ_ONLY", resp.Error.Code)

	db := setupPizzaDB(t)
	code, resp = runJSON(t, "--db", db, "--read-only", "ensure", "pizza", "name=funghi")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "READ_ONLY", resp.Error.Code)
}

func TestMissingDatabase(t *testing.T) {
	t.Setenv("LIGHTORM_DATABASE", "")
	res := runCLI(t, "get", "pizza")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "Error [E002]")
	assert.Contains(t, res.stderr, "no database given")
}

func TestInvalidFormat(t *testing.T) {
	res := runCLI(t, "--format", "xml", "get", "pizza")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "invalid format")
}

func TestConfigFileAndEnv(t *testing.T) {
	db := setupPizzaDB(t)
	cfgPath := filepath.Join(t.TempDir(), "lightorm.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database: "+db+"\nlog_level: error\n"), 0644))

	res := runCLI(t, "--config", cfgPath, "ensure", "pizza", "name=funghi")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Empty(t, res.stderr)

	t.Setenv("LIGHTORM_DATABASE", db)
	code, resp := runJSON(t, "get", "--id", "pizza", "name=funghi")
	require.Equal(t, ExitSuccess, code)
	assert.JSONEq(t, `1`, string(resp.Data))
}

func TestVerboseLogsCarryTraceID(t *testing.T) {
	db := setupPizzaDB(t)

	res := runCLI(t, "-v", "--db", db, "get", "--all", "pizza")
	require.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.stderr, "trace_id=trace-test")
	assert.Contains(t, res.stderr, "opening database")
}
