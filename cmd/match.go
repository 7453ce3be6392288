package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMatchCmd creates the 'match' subcommand, which shows where a URL would be
// archived without fetching or writing anything.
func newMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <url>",
		Short: "Show the pattern key and archive path for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			registry, err := appInstance.Patterns().Load(cmd.Context())
			if err != nil {
				return err
			}
			d, err := appInstance.Matcher().Match(args[0], registry)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "key:  %s\n", d.Key)
			fmt.Fprintf(out, "path: %s\n", d.ArchivePath)
			fmt.Fprintf(out, "new:  %t\n", d.IsNew)
			return nil
		},
	}
}
