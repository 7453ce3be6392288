package committer

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// Noop logs the ChangeSet instead of committing it. It is used when commits
// are disabled and the surrounding automation commits on its own.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a Noop committer.
func NewNoop(logger *zap.Logger) *Noop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Noop{logger: logger}
}

// Commit logs the paths that would have been committed.
func (n *Noop) Commit(_ context.Context, changes archive.ChangeSet, message string) error {
	if changes.Empty() {
		return nil
	}
	n.logger.Info("commit disabled; leaving changes in working tree",
		zap.Strings("paths", changes),
		zap.String("message", message),
	)
	return nil
}

var _ archive.Committer = (*Noop)(nil)
