package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ZdAkk/relex/pkgs/lexer"
)

// newScanCommand tokenizes a source file and prints the result, either
// as a readable table or as JSON. With --watch it keeps re-scanning
// whenever the source or the grammar changes.
func newScanCommand() *cobra.Command {
	var (
		grammarFile string
		asJSON      bool
		forceCheck  bool
		watch       bool
	)
	cmd := &cobra.Command{
		Use:   "scan <source>",
		Short: "Tokenize a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			if grammarFile == "" {
				return fmt.Errorf("a grammar is required (use --grammar)")
			}
			scan := func() error {
				tok, err := lexer.FromFile(grammarFile, forceCheck)
				if err != nil {
					return err
				}
				results, err := tok.TokenizeFile(source)
				if err != nil {
					return err
				}
				return printResults(cmd.OutOrStdout(), results, asJSON)
			}
			if !watch {
				return scan()
			}
			return watchAndScan(cmd, scan, source, grammarFile)
		},
	}
	cmd.Flags().StringVarP(&grammarFile, "grammar", "g", "", "Path to the grammar definition")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit results as JSON")
	cmd.Flags().BoolVar(&forceCheck, "check", false, "Force rule checking even if the grammar opts out")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-scan when the source or grammar changes")
	return cmd
}

func printResults(w io.Writer, results []lexer.ScanResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for i, res := range results {
		fmt.Fprintf(w, "%4d  [%s]\n", i+1, res.EndState)
		for _, t := range res.Tokens {
			fmt.Fprintf(w, "      %-28s %q\n", t.Type, t.Value)
		}
	}
	return nil
}

// watchAndScan runs scan once, then again after every write to the
// source or grammar file. Scan failures are reported and watching
// continues; only watcher failures end the loop.
func watchAndScan(cmd *cobra.Command, scan func() error, paths ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("cannot watch %s: %w", p, err)
		}
	}
	report := func(err error) {
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "relex: %v\n", err)
		}
	}
	report(scan())
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "relex: %s changed, re-scanning\n", ev.Name)
				report(scan())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
