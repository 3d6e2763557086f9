package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/lightorm/record"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	One bool
}

// rowList renders one row per line in text mode.
type rowList []record.Fields

func (r rowList) Lines() []string {
	lines := make([]string, len(r))
	for i, row := range r {
		lines[i] = row.String()
	}
	return lines
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <sql> [args...]",
		Short: "Run a raw SQL statement",
		Long: `Run a raw SQL statement with "?" placeholders.

Arguments are bound in order and parsed as YAML scalars (null, numbers,
strings). Statements other than select run in autocommit mode.

Example:
  lightorm query --db pizza.db "select * from pizza where name = ?" margherita
  lightorm query --db pizza.db --one "select count(*) as n from pizza"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.One, "one", false, "require exactly one result row")

	return cmd
}

func runQuery(opts *QueryOptions, query string, rawArgs []string, cmd *cobra.Command) error {
	args, err := parseArgs(rawArgs)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad arguments", err)
	}

	st, logger, err := opts.openStore(cmd, nil)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	ctx := commandContext(cmd)
	exec := st.Session().Executor()
	out := opts.formatter(cmd)

	if opts.One {
		row, err := exec.RunSingle(ctx, query, args...)
		if err != nil {
			return err
		}
		return out.Success(row)
	}

	rows, err := exec.Run(ctx, query, args...)
	if err != nil {
		return err
	}
	if rows == nil {
		return out.Success("OK")
	}
	return out.Success(rowList(rows))
}
