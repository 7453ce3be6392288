// Package app wires configuration into the archiver's components and holds
// them for the lifetime of one command.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/page-archiver/internal/archive"
	"github.com/JakeFAU/page-archiver/internal/archiver"
	"github.com/JakeFAU/page-archiver/internal/clock/system"
	"github.com/JakeFAU/page-archiver/internal/committer"
	"github.com/JakeFAU/page-archiver/internal/config"
	"github.com/JakeFAU/page-archiver/internal/fetcher/headless"
	"github.com/JakeFAU/page-archiver/internal/hash/sha256"
	"github.com/JakeFAU/page-archiver/internal/id/uuid"
	"github.com/JakeFAU/page-archiver/internal/metrics"
	"github.com/JakeFAU/page-archiver/internal/pattern"
	"github.com/JakeFAU/page-archiver/internal/registry"
	"github.com/JakeFAU/page-archiver/internal/run"
	"github.com/JakeFAU/page-archiver/internal/storage/local"
	"github.com/JakeFAU/page-archiver/internal/storage/memory"
)

// Options adjust wiring for a single command.
type Options struct {
	// DryRun keeps page and registry writes in memory and never commits.
	DryRun bool
	// ReadOnly builds only the matcher and registry store. The archive root is
	// not touched and Runner returns nil.
	ReadOnly bool
}

// App holds the components built from one Config.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	matcher  *pattern.Matcher
	patterns archive.PatternStore
	recorder *metrics.Recorder
	runner   *run.Orchestrator
}

// New builds every component. Nothing here touches the network or starts a
// browser; the archive root is created if missing unless opts.DryRun or
// opts.ReadOnly is set.
func New(cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	hasher := sha256.New()

	matcher := pattern.New(pattern.Config{
		Prefix:        cfg.Archive.Prefix,
		MaxSlugLength: cfg.Archive.MaxSlugLength,
	}, hasher)

	fileStore, err := registry.NewFileStore(registry.Config{
		Root: cfg.Archive.Root,
		File: cfg.Archive.RegistryFile,
	}, logger.Named("registry"))
	if err != nil {
		return nil, fmt.Errorf("init registry: %w", err)
	}

	recorder := metrics.New()
	if opts.ReadOnly {
		return &App{
			cfg:      cfg,
			logger:   logger,
			matcher:  matcher,
			patterns: fileStore,
			recorder: recorder,
		}, nil
	}

	var (
		patterns archive.PatternStore = fileStore
		blobs    archive.BlobStore
		commit   archive.Committer
	)
	switch {
	case opts.DryRun:
		logger.Info("dry run: archive and registry writes stay in memory")
		patterns = registry.NewOverlayStore(fileStore)
		blobs = memory.NewBlobStore()
		commit = committer.NewNoop(logger.Named("committer"))
	default:
		store, err := local.New(local.Config{BaseDir: cfg.Archive.Root})
		if err != nil {
			return nil, fmt.Errorf("init archive root: %w", err)
		}
		blobs = store
		if cfg.Commit.Enabled {
			commit = committer.NewGit(committer.GitConfig{
				RepoDir:     cfg.Archive.Root,
				Binary:      cfg.Commit.GitBinary,
				AuthorName:  cfg.Commit.AuthorName,
				AuthorEmail: cfg.Commit.AuthorEmail,
				Push:        cfg.Commit.Push,
			}, logger.Named("committer"))
		} else {
			commit = committer.NewNoop(logger.Named("committer"))
		}
	}

	fetcher, err := headless.NewChromedp(headless.Config{
		UserAgent:           cfg.Fetcher.UserAgent,
		ExecPath:            cfg.Fetcher.ExecPath,
		Headless:            cfg.Fetcher.Headless,
		NoSandbox:           cfg.Fetcher.NoSandbox,
		WindowWidth:         cfg.Fetcher.WindowWidth,
		WindowHeight:        cfg.Fetcher.WindowHeight,
		SettleDelay:         cfg.SettleDelay(),
		AllowErrorStatus:    cfg.Fetcher.AllowErrorStatus,
		AbsolutizeResources: cfg.Fetcher.AbsolutizeResources,
		HideWebdriver:       cfg.Fetcher.HideWebdriver,
	}, logger.Named("fetcher"))
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	runner := run.New(
		matcher,
		fetcher,
		patterns,
		archiver.New(blobs, patterns, hasher, logger.Named("archiver")),
		commit,
		system.New(),
		uuid.New(),
		recorder,
		run.Config{FetchTimeout: cfg.FetchTimeout()},
		logger.Named("run"),
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		matcher:  matcher,
		patterns: patterns,
		recorder: recorder,
		runner:   runner,
	}, nil
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Runner returns the run orchestrator, or nil for a read-only App.
func (a *App) Runner() *run.Orchestrator {
	return a.runner
}

// Matcher returns the pattern matcher.
func (a *App) Matcher() archive.Matcher {
	return a.matcher
}

// Patterns returns the registry store.
func (a *App) Patterns() archive.PatternStore {
	return a.patterns
}

// Close flushes metrics to the configured sinks and syncs the logger.
func (a *App) Close(ctx context.Context) {
	if err := a.recorder.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
		a.logger.Warn("metrics textfile write failed", zap.Error(err))
	}
	if err := a.recorder.Push(ctx, a.cfg.Metrics.PushgatewayURL); err != nil {
		a.logger.Warn("metrics push failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
