package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/page-archiver/internal/run"
)

// newScrapeCmd creates the 'scrape' subcommand, which runs one URL through
// the full archive pipeline.
func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Fetch a URL and archive its rendered HTML",
		Long: `Validates the URL, matches it against the pattern registry, renders it in
headless Chrome, writes the HTML to its archive path, updates the registry, and
hands the changed files to the committer. With --dry-run nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: runScrapeCommand,
	}
	cmd.Flags().Bool("dry-run", false, "run the pipeline without writing files or committing")
	return cmd
}

func runScrapeCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	res, err := appInstance.Runner().Run(cmd.Context(), args[0])
	printResult(cmd.OutOrStdout(), res)
	return err
}

func printResult(w io.Writer, res run.Result) {
	fmt.Fprintf(w, "run:     %s\n", res.RunID)
	fmt.Fprintf(w, "url:     %s\n", res.URL)
	fmt.Fprintf(w, "state:   %s\n", res.State)
	if res.State == run.StateFailed {
		fmt.Fprintf(w, "stage:   %s\n", res.FailedStage)
		fmt.Fprintf(w, "kind:    %s\n", res.Kind)
		return
	}
	fmt.Fprintf(w, "pattern: %s (new=%t)\n", res.Decision.Key, res.Decision.IsNew)
	fmt.Fprintf(w, "path:    %s\n", res.Decision.ArchivePath)
	for _, p := range res.ChangeSet {
		fmt.Fprintf(w, "changed: %s\n", p)
	}
}
