package archive

import (
	"context"
	"time"
)

// Matcher classifies a URL against the registry without mutating it.
type Matcher interface {
	Match(rawURL string, registry Registry) (Decision, error)
}

// Fetcher renders a URL in a browser and returns the final DOM.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, timeout time.Duration) (Page, error)
}

// PatternStore loads and saves the persisted registry.
type PatternStore interface {
	Load(ctx context.Context) (Registry, error)
	Save(ctx context.Context, registry Registry) (bool, error)
	Path() string
}

// BlobStore writes content under a repository-relative path and reports
// whether the bytes on disk changed.
type BlobStore interface {
	PutObject(ctx context.Context, path string, data []byte) (bool, error)
}

// Committer records a ChangeSet in version control.
type Committer interface {
	Commit(ctx context.Context, changes ChangeSet, message string) error
}

// Hasher computes digests for path disambiguation and content logging.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
