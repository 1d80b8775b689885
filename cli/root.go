// Package cli implements the relex command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the relex command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "relex",
		Short:         "Tokenize source files with declarative JSON grammars",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newScanCommand())
	return rootCmd
}
