// Package local writes archive content into the working tree of the archive
// repository.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// Config captures the parameters for the local filesystem blob store.
type Config struct {
	// BaseDir is the repository root that archive paths are relative to.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// BlobStore writes artifacts to the local filesystem.
type BlobStore struct {
	baseDir string
}

// New creates a new local filesystem-backed blob store.
func New(cfg Config) (*BlobStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	// Check for write permissions.
	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &BlobStore{
		baseDir: cfg.BaseDir,
	}, nil
}

// Resolve maps a repository-relative, slash-separated path to a location
// under the base directory, rejecting paths that escape it.
func (s *BlobStore) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("path must be relative: %q", path)
	}

	cleanBaseDir := filepath.Clean(s.baseDir)
	cleanFullPath := filepath.Clean(filepath.Join(cleanBaseDir, filepath.FromSlash(path)))
	rel, err := filepath.Rel(cleanBaseDir, cleanFullPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	return cleanFullPath, nil
}

// PutObject writes data to path under the base directory. Writes are atomic
// and skipped when the file already holds identical bytes; the result reports
// whether the file changed.
func (s *BlobStore) PutObject(ctx context.Context, path string, data []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context canceled: %w", err)
	}
	fullPath, err := s.Resolve(path)
	if err != nil {
		return false, err
	}
	// Archive files are committed to git and read by other tools.
	// #nosec G306 -- world-readable by intent.
	changed, err := WriteFileAtomic(fullPath, data, 0o644)
	if err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return changed, nil
}

var _ archive.BlobStore = (*BlobStore)(nil)
