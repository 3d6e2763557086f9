package cli

import (
	"context"
	"errors"
	"io"
)

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported on stdout as a JSON envelope with --format json,
// otherwise as text on stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	return execute(ctx, opts, args, stdout, stderr)
}

func execute(ctx context.Context, opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	format := opts.Format
	if !isValidFormat(format) {
		format = "text"
	}
	out := &OutputFormatter{
		Format:    format,
		Writer:    stdout,
		ErrWriter: stderr,
		Verbose:   opts.Verbose,
		TraceID:   opts.traceID,
	}
	var details any
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		details = exitErr.Details
	}
	_ = out.Error(ErrorCode(err), err.Error(), details)
	return GetExitCode(err)
}
