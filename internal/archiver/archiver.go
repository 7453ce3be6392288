// Package archiver writes rendered pages into the archive tree and persists
// the pattern registry after a successful write.
package archiver

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// Archiver stores page content and then the registry, in that order, so a
// failed content write never leaves a registry entry pointing at it.
type Archiver struct {
	blobs    archive.BlobStore
	patterns archive.PatternStore
	hasher   archive.Hasher
	logger   *zap.Logger
}

// New constructs an Archiver.
func New(blobs archive.BlobStore, patterns archive.PatternStore, hasher archive.Hasher, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		blobs:    blobs,
		patterns: patterns,
		hasher:   hasher,
		logger:   logger,
	}
}

// Store writes page.Content to page.Path. The returned ChangeSet holds the
// page path when the bytes on disk changed and is empty when the archive
// already held identical content.
func (a *Archiver) Store(ctx context.Context, page archive.ArchivedPage) (archive.ChangeSet, error) {
	p, err := cleanPath(page.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrWriteFailure, err)
	}
	if len(page.Content) == 0 {
		return nil, fmt.Errorf("%w: empty content for %s", archive.ErrWriteFailure, page.SourceURL)
	}

	changed, err := a.blobs.PutObject(ctx, p, page.Content)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", archive.ErrCanceled, err)
		}
		return nil, fmt.Errorf("%w: %v", archive.ErrWriteFailure, err)
	}

	digest, err := a.hasher.Hash(page.Content)
	if err != nil {
		// The page is already written; only the log field is lost.
		a.logger.Warn("content digest failed", zap.String("path", p), zap.Error(err))
		digest = ""
	}
	a.logger.Info("page archived",
		zap.String("url", page.SourceURL),
		zap.String("path", p),
		zap.Int("bytes", len(page.Content)),
		zap.String("sha256", digest),
		zap.Bool("changed", changed),
	)

	var changes archive.ChangeSet
	if changed {
		changes = changes.Add(p)
	}
	return changes, nil
}

// Persist saves registry and appends the registry path to changes when the
// file was modified.
func (a *Archiver) Persist(ctx context.Context, registry archive.Registry, changes archive.ChangeSet) (archive.ChangeSet, error) {
	changed, err := a.patterns.Save(ctx, registry)
	if err != nil {
		if errors.Is(err, archive.ErrWriteFailure) {
			return changes, err
		}
		return changes, fmt.Errorf("%w: %v", archive.ErrWriteFailure, err)
	}
	if changed {
		changes = changes.Add(a.patterns.Path())
	}
	a.logger.Debug("registry persisted",
		zap.String("path", a.patterns.Path()),
		zap.Int("patterns", len(registry)),
		zap.Bool("changed", changed),
	)
	return changes, nil
}

func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("archive path is required")
	}
	clean := path.Clean(p)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("archive path escapes the archive root: %q", p)
	}
	return clean, nil
}
