// Package cmd defines and implements the CLI commands for the page-archiver
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/page-archiver/internal/app"
	"github.com/JakeFAU/page-archiver/internal/archive"
	"github.com/JakeFAU/page-archiver/internal/config"
	"github.com/JakeFAU/page-archiver/internal/logging"
	"github.com/JakeFAU/page-archiver/internal/run"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// Runner archives one URL.
type Runner interface {
	Run(ctx context.Context, rawURL string) (run.Result, error)
}

// App defines the services commands use. Tests inject a fake through newApp.
type App interface {
	Logger() *zap.Logger
	Runner() Runner
	Matcher() archive.Matcher
	Patterns() archive.PatternStore
	Close(ctx context.Context)
}

// appAdapter narrows *app.App to the App interface.
type appAdapter struct {
	*app.App
}

func (a appAdapter) Runner() Runner {
	if r := a.App.Runner(); r != nil {
		return r
	}
	return nil
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(cfg config.Config, logger *zap.Logger, opts app.Options) (App, error) {
	a, err := app.New(cfg, logger, opts)
	if err != nil {
		return nil, err
	}
	return appAdapter{a}, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "page-archiver",
		Short: "Render a web page in a headless browser and archive its HTML.",
		Long: `page-archiver fetches a single URL with headless Chrome, waits for the
network to settle, and writes the rendered DOM into a git-tracked archive.
Structurally similar URLs share one archive file through a registry of URL
patterns kept next to the archive.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Loads config, builds the logger and the App, and stores the App in
		// the context for subcommands.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(logging.Config{
				Development: cfg.Logging.Development,
				Level:       cfg.Logging.Level,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			// Only scrape writes to the archive root.
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			appInstance, err := newApp(cfg, logger, app.Options{
				DryRun:   dryRun,
				ReadOnly: cmd.Name() != "scrape",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); ARCHIVER_* env vars override it")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newMatchCmd())
	cmd.AddCommand(newPatternsCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute runs the CLI and returns the process exit code. SIGINT and SIGTERM
// cancel the command context, which tears down any running browser.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return execute(ctx, newRootCmd(), os.Args[1:])
}

func execute(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	executed, err := root.ExecuteContextC(ctx)
	// Close runs on failures too so metrics for failed runs are flushed.
	if executed != nil && executed.Context() != nil {
		if appInstance, ok := executed.Context().Value(appKey).(App); ok && appInstance != nil {
			appInstance.Close(context.WithoutCancel(executed.Context()))
		}
	}
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "error: %v\n", err)
	}
	return ExitCode(err)
}
