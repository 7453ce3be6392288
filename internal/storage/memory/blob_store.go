// Package memory keeps archive content in memory for tests and dry runs.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// BlobStore stores artifacts in-memory keyed by repository-relative path.
type BlobStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	err  error
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		data: make(map[string][]byte),
	}
}

// FailWith makes subsequent writes return err. A nil err restores writes.
func (s *BlobStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// PutObject stores a copy of data and reports whether it differed from the
// previous content at path.
func (s *BlobStore) PutObject(ctx context.Context, path string, data []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context canceled: %w", err)
	}
	if strings.TrimSpace(path) == "" {
		return false, fmt.Errorf("path is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}

	if existing, ok := s.data[path]; ok && bytes.Equal(existing, data) {
		return false, nil
	}
	s.data[path] = append([]byte(nil), data...)
	return true, nil
}

// Get returns a copy of the content stored at path.
func (s *BlobStore) Get(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len returns the number of stored objects.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ archive.BlobStore = (*BlobStore)(nil)
