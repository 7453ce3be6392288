// Package registry persists the URL pattern registry as a JSON document.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/page-archiver/internal/archive"
	"github.com/JakeFAU/page-archiver/internal/storage/local"
)

// DefaultFileName is the registry file used when none is configured.
const DefaultFileName = "url_patterns.json"

// Config locates the registry file.
type Config struct {
	// Root is the repository directory the registry path is relative to.
	Root string
	// File is the registry path relative to Root.
	File string
}

// FileStore implements archive.PatternStore over a single JSON file.
type FileStore struct {
	root   string
	rel    string
	logger *zap.Logger
}

// NewFileStore creates a store for cfg.
func NewFileStore(cfg Config, logger *zap.Logger) (*FileStore, error) {
	rel := filepath.ToSlash(strings.TrimSpace(cfg.File))
	if rel == "" {
		rel = DefaultFileName
	}
	clean := filepath.ToSlash(filepath.Clean(rel))
	if filepath.IsAbs(rel) || clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, fmt.Errorf("registry file must be relative to the archive root: %q", cfg.File)
	}
	root := cfg.Root
	if root == "" {
		root = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{root: root, rel: rel, logger: logger}, nil
}

// Path returns the repository-relative location of the registry file.
func (s *FileStore) Path() string {
	return s.rel
}

func (s *FileStore) fullPath() string {
	return filepath.Join(s.root, filepath.FromSlash(s.rel))
}

// Load reads the registry. A missing or blank file yields an empty registry;
// content that does not parse as a JSON object fails with
// archive.ErrCorruptRegistry and is left untouched on disk.
func (s *FileStore) Load(ctx context.Context) (archive.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	// #nosec G304 -- path is built from operator configuration.
	data, err := os.ReadFile(s.fullPath())
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("registry file not found; starting empty", zap.String("path", s.rel))
		return archive.NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", s.rel, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.logger.Info("registry file empty; starting empty", zap.String("path", s.rel))
		return archive.NewRegistry(), nil
	}

	reg := archive.NewRegistry()
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", archive.ErrCorruptRegistry, s.rel, err)
	}
	if reg == nil {
		// A literal "null" document.
		return nil, fmt.Errorf("%w: %s: document is null", archive.ErrCorruptRegistry, s.rel)
	}
	for key, entry := range reg {
		if strings.TrimSpace(entry.ArchivePath) == "" {
			return nil, fmt.Errorf("%w: %s: entry %q has no archive_path", archive.ErrCorruptRegistry, s.rel, key)
		}
	}
	s.logger.Debug("registry loaded", zap.String("path", s.rel), zap.Int("patterns", len(reg)))
	return reg, nil
}

// Save overwrites the registry file with registry. Keys are written in sorted
// order so identical registries produce identical bytes. It reports whether
// the file contents changed.
func (s *FileStore) Save(ctx context.Context, registry archive.Registry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("save registry: %w", err)
	}
	payload, err := encode(registry)
	if err != nil {
		return false, err
	}

	changed, err := local.WriteFileAtomic(s.fullPath(), payload, 0o644)
	if err != nil {
		return false, fmt.Errorf("%w: registry %s: %v", archive.ErrWriteFailure, s.rel, err)
	}
	s.logger.Debug("registry saved",
		zap.String("path", s.rel),
		zap.Int("patterns", len(registry)),
		zap.Bool("changed", changed),
	)
	return changed, nil
}

var _ archive.PatternStore = (*FileStore)(nil)
