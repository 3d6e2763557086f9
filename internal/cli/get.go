package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lightorm/accessor"
	"github.com/roach88/lightorm/record"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	All bool
	ID  bool
}

// recordList renders one record per line in text mode.
type recordList []*record.Record

func (r recordList) Lines() []string {
	lines := make([]string, len(r))
	for i, rec := range r {
		lines[i] = rec.String()
	}
	return lines
}

// valueList renders one value per line in text mode.
type valueList []record.Value

func (v valueList) Lines() []string {
	lines := make([]string, len(v))
	for i, val := range v {
		lines[i] = fmt.Sprint(val)
	}
	return lines
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <table> [name=value...]",
		Short: "Find rows matching field values",
		Long: `Find the row of <table> matching every name=value filter.

Values are YAML scalars; name=null matches NULL columns. Without --all a
filter matching several rows is an error. Without filters every row
matches.

Example:
  lightorm get --db pizza.db pizza name=margherita
  lightorm get --db pizza.db --all --id topping`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "return every matching row")
	cmd.Flags().BoolVar(&opts.ID, "id", false, "return identity values only")

	return cmd
}

func runGet(opts *GetOptions, table string, filters []string, cmd *cobra.Command) error {
	ident, err := parseAssignments(filters)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad filter", err)
	}

	st, logger, err := opts.openStore(cmd, nil)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	var findOpts []accessor.FindOption
	if opts.All {
		findOpts = append(findOpts, accessor.AllowMulti())
	}
	if !opts.ID {
		findOpts = append(findOpts, accessor.AsRecord())
	}

	res, err := st.Session().Accessor().Find(commandContext(cmd), table, ident, findOpts...)
	if err != nil {
		return err
	}

	out := opts.formatter(cmd)
	switch {
	case opts.All && opts.ID:
		return out.Success(valueList(res.Identities()))
	case opts.All:
		return out.Success(recordList(res.Records()))
	case res.Empty():
		return WrapExitError(ExitFailure, fmt.Sprintf("nothing in %s matches %s", table, ident), errNotFound)
	case opts.ID:
		id, _ := res.Identity()
		return out.Success(id)
	default:
		return out.Success(res.Record())
	}
}
