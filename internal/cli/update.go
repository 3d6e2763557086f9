package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lightorm/record"
	"github.com/roach88/lightorm/store"
)

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <table> <identity> name=value...",
		Short: "Change fields of one row",
		Long: `Read the row of <table> with the given identity, set the name=value
fields and write it back, then commit.

Example:
  lightorm update --db pizza.db pizza 3 name=marinara price=9.5`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(rootOpts, args[0], args[1], args[2:], cmd)
		},
	}
	return cmd
}

func runUpdate(opts *RootOptions, table, rawID string, assignments []string, cmd *cobra.Command) error {
	id, err := parseScalar(rawID)
	if err != nil || record.IsNull(id) {
		return NewExitError(ExitCommandError, fmt.Sprintf("bad identity %q", rawID))
	}
	changes, err := parseAssignments(assignments)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad assignment", err)
	}

	st, logger, err := opts.openStore(cmd, nil)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	ctx := commandContext(cmd)
	var updated *record.Record
	err = st.InTx(ctx, func(sess *store.Session) error {
		acc := sess.Accessor()
		idCol, err := acc.Resolver().Resolve(ctx, sess.Executor(), table)
		if err != nil {
			return err
		}

		rec, err := acc.FindRecord(ctx, table, record.Fields{{Name: idCol, Value: id}})
		if err != nil {
			return err
		}
		if rec == nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("no %s with %s = %v", table, idCol, id), errNotFound)
		}

		for _, f := range changes {
			if f.Name == idCol {
				return NewExitError(ExitCommandError, fmt.Sprintf("cannot change identity column %s", idCol))
			}
			rec.Set(f.Name, f.Value)
		}
		if err := acc.Update(ctx, rec); err != nil {
			return err
		}

		updated, err = acc.FindRecord(ctx, table, record.Fields{{Name: idCol, Value: id}})
		return err
	})
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(updated)
}
