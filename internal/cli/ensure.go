package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lightorm/record"
	"github.com/roach88/lightorm/store"
)

// EnsureOptions holds flags for the ensure command.
type EnsureOptions struct {
	*RootOptions
	Defaults []string
}

// EnsureResult is the payload of the ensure command.
type EnsureResult struct {
	Record  *record.Record `json:"record"`
	Created bool           `json:"created"`
}

func (r EnsureResult) String() string {
	if r.Created {
		return fmt.Sprintf("created %s", r.Record)
	}
	return fmt.Sprintf("found %s", r.Record)
}

// NewEnsureCommand creates the ensure command.
func NewEnsureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnsureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ensure <table> name=value...",
		Short: "Find a row, creating it when missing",
		Long: `Find the row of <table> matching every name=value filter, inserting it
when none exists. --default values are only used for the insert; the
filter wins when both name the same field. The insert is committed.

Example:
  lightorm ensure --db pizza.db topping name=basil --default price=0.5`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnsure(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Defaults, "default", nil, "name=value used only when inserting (repeatable)")

	return cmd
}

func runEnsure(opts *EnsureOptions, table string, filters []string, cmd *cobra.Command) error {
	ident, err := parseAssignments(filters)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad filter", err)
	}
	defaults, err := parseAssignments(opts.Defaults)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad default", err)
	}

	st, logger, err := opts.openStore(cmd, nil)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	var result EnsureResult
	err = st.InTx(commandContext(cmd), func(sess *store.Session) error {
		rec, created, err := sess.Accessor().FindOrCreateRecord(commandContext(cmd), table, ident, defaults)
		if err != nil {
			return err
		}
		result = EnsureResult{Record: rec, Created: created}
		return nil
	})
	if err != nil {
		return err
	}
	if result.Created {
		logger.Info("row created", "table", table, "identity", fmt.Sprint(result.Record.Identity()))
	}
	return opts.formatter(cmd).Success(result)
}
