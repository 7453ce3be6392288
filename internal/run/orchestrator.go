package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/page-archiver/internal/archive"
	"github.com/JakeFAU/page-archiver/internal/metrics"
	"github.com/JakeFAU/page-archiver/internal/pattern"
)

// Archiver writes page content and then the registry.
type Archiver interface {
	Store(ctx context.Context, page archive.ArchivedPage) (archive.ChangeSet, error)
	Persist(ctx context.Context, registry archive.Registry, changes archive.ChangeSet) (archive.ChangeSet, error)
}

// Config controls Orchestrator behavior.
type Config struct {
	FetchTimeout time.Duration
}

// Orchestrator executes one URL through validation, matching, fetching,
// archiving, persistence and commit.
type Orchestrator struct {
	matcher   archive.Matcher
	fetcher   archive.Fetcher
	patterns  archive.PatternStore
	archiver  Archiver
	committer archive.Committer
	clock     archive.Clock
	ids       archive.IDGenerator
	metrics   *metrics.Recorder
	cfg       Config
	logger    *zap.Logger
}

// New constructs an Orchestrator. A nil committer skips the commit stage and a
// nil recorder discards metrics.
func New(
	matcher archive.Matcher,
	fetcher archive.Fetcher,
	patterns archive.PatternStore,
	archiver Archiver,
	committer archive.Committer,
	clock archive.Clock,
	ids archive.IDGenerator,
	recorder *metrics.Recorder,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		matcher:   matcher,
		fetcher:   fetcher,
		patterns:  patterns,
		archiver:  archiver,
		committer: committer,
		clock:     clock,
		ids:       ids,
		metrics:   recorder,
		cfg:       cfg,
		logger:    logger,
	}
}

// execution carries the mutable state of one run. target is the URL as
// given, credentials included; result.URL is the redacted form that gets
// recorded.
type execution struct {
	target string
	result Result
	logger *zap.Logger
}

func (e *execution) enter(s State) {
	e.logger.Debug("state transition", zap.String("from", string(e.result.State)), zap.String("to", string(s)))
	e.result.State = s
}

// fail moves the run to Failed and returns the stage-tagged error.
func (e *execution) fail(ctx context.Context, err error) error {
	stage := e.result.State
	if ctx.Err() != nil && !errors.Is(err, archive.ErrCanceled) {
		// Interruption outranks whatever the stage reported.
		err = fmt.Errorf("%w: %v", archive.ErrCanceled, err)
	}
	e.result.FailedStage = stage
	e.result.Kind = archive.KindOf(err)
	e.result.State = StateFailed
	e.logger.Error("run failed",
		zap.String("stage", string(stage)),
		zap.String("kind", string(e.result.Kind)),
		zap.Error(err),
	)
	return &StageError{Stage: stage, Err: err}
}

// Run archives rawURL. The returned Result is always populated; the error is
// a *StageError when the run ends in Failed.
func (o *Orchestrator) Run(ctx context.Context, rawURL string) (Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	recorded := pattern.Redact(rawURL)
	runID := o.newRunID()
	e := &execution{
		target: rawURL,
		result: Result{
			RunID:   runID,
			URL:     recorded,
			State:   StateIdle,
			Started: o.clock.Now(),
		},
		logger: o.logger.With(zap.String("run_id", runID), zap.String("url", recorded)),
	}

	err := o.execute(ctx, e)

	e.result.Finished = o.clock.Now()
	o.metrics.ObserveRun(
		statusLabel(e.result.State),
		string(e.result.FailedStage),
		e.result.Finished.Sub(e.result.Started),
		len(e.result.ChangeSet),
		e.result.Finished,
	)
	if err != nil {
		return e.result, err
	}
	e.logger.Info("run complete",
		zap.String("key", e.result.Decision.Key),
		zap.String("path", e.result.Decision.ArchivePath),
		zap.Bool("new_pattern", e.result.Decision.IsNew),
		zap.Strings("changed", e.result.ChangeSet),
	)
	return e.result, nil
}

func (o *Orchestrator) execute(ctx context.Context, e *execution) error {
	// Validating: no I/O happens before the URL is known to be usable.
	e.enter(StateValidating)
	if _, err := pattern.Parse(e.target); err != nil {
		return e.fail(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return e.fail(ctx, fmt.Errorf("%w: %w", archive.ErrCanceled, err))
	}

	// Matching: the registry is read once, right before it is consulted.
	e.enter(StateMatching)
	registry, err := o.patterns.Load(ctx)
	if err != nil {
		return e.fail(ctx, err)
	}
	decision, err := o.matcher.Match(e.target, registry)
	if err != nil {
		return e.fail(ctx, err)
	}
	e.result.Decision = decision
	o.metrics.ObservePattern(decision.IsNew)
	e.logger.Info("url matched",
		zap.String("key", decision.Key),
		zap.String("path", decision.ArchivePath),
		zap.Bool("new_pattern", decision.IsNew),
		zap.Int("patterns", len(registry)),
	)

	// Fetching
	e.enter(StateFetching)
	page, err := o.fetcher.Fetch(ctx, e.target, o.cfg.FetchTimeout)
	if err != nil {
		return e.fail(ctx, err)
	}
	e.result.FinalURL = pattern.Redact(page.FinalURL)
	e.result.StatusCode = page.StatusCode
	o.metrics.ObserveFetch(e.result.URL, page.Duration, len(page.HTML))
	e.logger.Info("page fetched",
		zap.String("final_url", e.result.FinalURL),
		zap.Int("status", page.StatusCode),
		zap.Int("bytes", len(page.HTML)),
		zap.Duration("duration", page.Duration),
	)

	// Archiving
	e.enter(StateArchiving)
	changes, err := o.archiver.Store(ctx, archive.ArchivedPage{
		SourceURL: e.result.URL,
		Content:   page.HTML,
		Path:      decision.ArchivePath,
	})
	if err != nil {
		return e.fail(ctx, err)
	}

	// Persisting
	e.enter(StatePersisting)
	now := o.clock.Now()
	updated := registry.Apply(decision, e.result.URL, now)
	changes, err = o.archiver.Persist(ctx, updated, changes)
	e.result.ChangeSet = changes
	if err != nil {
		return e.fail(ctx, err)
	}

	// Committing
	e.result.Message = CommitMessage(e.result.URL, now)
	if o.committer != nil {
		e.enter(StateCommitting)
		if err := o.committer.Commit(ctx, changes, e.result.Message); err != nil {
			if !errors.Is(err, archive.ErrCommitFailure) {
				err = fmt.Errorf("%w: %w", archive.ErrCommitFailure, err)
			}
			return e.fail(ctx, err)
		}
	}

	e.enter(StateDone)
	return nil
}

func (o *Orchestrator) newRunID() string {
	if o.ids == nil {
		return ""
	}
	id, err := o.ids.NewID()
	if err != nil {
		o.logger.Warn("run id generation failed", zap.Error(err))
		return ""
	}
	return id
}

func statusLabel(s State) string {
	if s == StateDone {
		return "success"
	}
	return "failed"
}
