package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZdAkk/relex/pkgs/lexer"
)

// newCheckCommand validates and compiles a grammar with rule checking
// forced on, regardless of the grammar's own check_rules setting.
func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <grammar.json>",
		Short: "Validate a grammar definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := lexer.FromFile(args[0], true)
			if err != nil {
				return err
			}
			g := tok.Grammar()
			name := g.Name
			if name == "" {
				name = args[0]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d states)\n", name, len(g.States))
			for _, state := range g.StateNames() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %d rules\n", state, len(g.States[state]))
			}
			return nil
		},
	}
}
