package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lightorm/ormerr"
	"github.com/roach88/lightorm/record"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "json",
		Writer:  buf,
		TraceID: "trace-1",
	}

	err := formatter.Success(record.Fields{record.F("id", 1), record.F("name", "funghi")})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "trace-1", resp.TraceID)
	assert.Equal(t, map[string]any{"id": float64(1), "name": "funghi"}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("AMBIGUOUS_RESULT", "more than one result", nil)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AMBIGUOUS_RESULT", resp.Error.Code)
	assert.Equal(t, "more than one result", resp.Error.Message)
}

func TestOutputFormatter_TextLines(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Success(valueList{record.Int(1), record.Int(2)})
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", buf.String())
}

func TestOutputFormatter_TextErrorUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "text",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	require.NoError(t, formatter.Error("E002", "no database", "details"))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Error [E002]: no database")
	assert.Contains(t, errOut.String(), "Details: details")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	formatter.VerboseLog("hidden %d", 1)
	assert.Empty(t, buf.String())

	formatter.Verbose = true
	formatter.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", buf.String())
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitFailure, "x", nil))))
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"record layer", ormerr.NewAmbiguous("t", "", 2), "AMBIGUOUS_RESULT"},
		{"wrapped record layer", WrapExitError(ExitCommandError, "open", ormerr.NewReadOnly("x", nil)), "READ_ONLY"},
		{"not found", WrapExitError(ExitFailure, "nothing", errNotFound), ErrCodeNotFound},
		{"command", NewExitError(ExitCommandError, "bad"), ErrCodeCommand},
		{"generic", errors.New("x"), ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Equal(t, "b", g.Generate())

	assert.Len(t, UUIDv7Generator{}.Generate(), 36)
}
