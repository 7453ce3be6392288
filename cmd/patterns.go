package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// newPatternsCmd creates the 'patterns' subcommand, which lists the registry.
func newPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List registered URL patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			registry, err := appInstance.Patterns().Load(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tPATH\tHITS\tFIRST SEEN\tLAST SEEN")
			for _, key := range registry.Keys() {
				p, _ := registry.Lookup(key)
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", key, p.ArchivePath, p.HitCount, stamp(p.FirstSeen), stamp(p.LastSeen))
			}
			return tw.Flush()
		},
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
