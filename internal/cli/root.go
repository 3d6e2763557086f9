package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string
	Database string
	ReadOnly bool

	// TraceIDs generates the trace id of each invocation.
	// If nil, defaults to UUIDv7Generator.
	TraceIDs TraceIDGenerator

	traceID string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the lightorm CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lightorm",
		Short: "lightorm - minimal relational-record mapper",
		Long: `Fetch, create-or-fetch and update single rows of a SQLite or PostgreSQL
database using field=value filters instead of hand-written SQL.

The database is a SQLite file path or a PostgreSQL connection string
("postgres://..." or "host=... dbname=..."), given with --db, the
LIGHTORM_DATABASE environment variable or the config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError, "bad flags",
					fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			gen := opts.TraceIDs
			if gen == nil {
				gen = UUIDv7Generator{}
			}
			opts.traceID = gen.Generate()
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database path or connection string")
	cmd.PersistentFlags().BoolVar(&opts.ReadOnly, "read-only", false, "open the database read-only")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewEnsureCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
