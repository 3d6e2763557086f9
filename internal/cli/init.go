package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lightorm/internal/config"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Schema string
}

// InitResult is the payload of the init command.
type InitResult struct {
	Database   string `json:"database"`
	Dialect    string `json:"dialect"`
	Statements int    `json:"statements"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("%s database %s ready (%d schema statements)", r.Dialect, r.Database, r.Statements)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database, applying the schema",
		Long: `Open the database, creating it when it does not exist.

Schema statements come from the config file and from --schema: a .sql
file split on ";" or a YAML list of statements. They are applied only
when the database is created; an existing database is left alone.

Example:
  lightorm init --db pizza.db --schema pizza.sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema file (.sql or .yaml)")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	var stmts []string
	if opts.Schema != "" {
		var err error
		stmts, err = config.LoadSchema(opts.Schema)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load schema", err)
		}
	}

	st, logger, err := opts.openStore(cmd, stmts)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	return opts.formatter(cmd).Success(InitResult{
		Database:   st.Target().String(),
		Dialect:    st.Dialect().String(),
		Statements: len(stmts),
	})
}
