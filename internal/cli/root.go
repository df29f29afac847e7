package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose        bool
	Format         string // "json" | "text"
	Pretty         bool
	Keyspace       string
	SystemReadOnly bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cqlsem CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cqlsem",
		Short: "cqlsem - WHERE clause analysis for wide-column DML",
		Long: `Analyze SELECT, INSERT, UPDATE and DELETE statements against a table catalog.

Each statement is checked for key completeness, operator legality and
column usage, then reduced to an access plan: the key conditions that
address rows and the filter applied to what they return.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.Pretty, "pretty", false, "human-readable log lines on stderr")
	cmd.PersistentFlags().StringVar(&opts.Keyspace, "keyspace", "app", "keyspace for unqualified table names")
	cmd.PersistentFlags().BoolVar(&opts.SystemReadOnly, "system-readonly", true, "reject writes to system keyspaces")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
