package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/lightorm/internal/config"
	"github.com/roach88/lightorm/store"
)

var errNotFound = errors.New("no matching row")

// settings loads the config file and environment, then applies the flags
// the user actually set.
func (o *RootOptions) settings(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = o.Database
	}
	if flags.Changed("read-only") {
		cfg.ReadOnly = o.ReadOnly
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// logger writes text records to stderr, tagged with the trace id.
func (o *RootOptions) logger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.Level(),
	})
	return slog.New(handler).With("trace_id", o.traceID)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
		TraceID:   o.traceID,
	}
}

// openStore opens the configured database. extraSchema is appended to the
// configured schema statements.
func (o *RootOptions) openStore(cmd *cobra.Command, extraSchema []string) (*store.Store, *slog.Logger, error) {
	cfg, err := o.settings(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database == "" {
		return nil, nil, NewExitError(ExitCommandError, "no database given (use --db, LIGHTORM_DATABASE or the config file)")
	}

	schema, err := cfg.SchemaStatements()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load schema", err)
	}
	schema = append(schema, extraSchema...)

	logger := o.logger(cmd, cfg)
	logger.Debug("opening database", "database", cfg.Database, "read_only", cfg.ReadOnly)

	st, err := store.OpenLocator(commandContext(cmd), cfg.Database,
		store.WithSchema(schema),
		store.WithReadOnly(cfg.ReadOnly),
		store.WithLogger(logger),
		store.WithGenericIdentity(cfg.IdentityColumn),
	)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, logger, nil
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

// commandContext returns the command's context or a background one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
