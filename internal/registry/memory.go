package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// MemoryStore is an archive.PatternStore that never touches disk. Dry runs
// seed it from the file store so matching sees the real registry.
type MemoryStore struct {
	mu    sync.Mutex
	path  string
	state []byte
	saves int
	err   error
}

// NewMemoryStore returns a store reporting path and holding seed.
func NewMemoryStore(path string, seed archive.Registry) (*MemoryStore, error) {
	s := &MemoryStore{path: path}
	if seed != nil {
		data, err := encode(seed)
		if err != nil {
			return nil, err
		}
		s.state = data
	}
	return s, nil
}

// FailWith makes subsequent saves return err.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Path returns the path reported for the registry.
func (s *MemoryStore) Path() string {
	return s.path
}

// Load decodes the held registry; an unseeded store is empty.
func (s *MemoryStore) Load(ctx context.Context) (archive.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	reg := archive.NewRegistry()
	if len(s.state) == 0 {
		return reg, nil
	}
	if err := json.Unmarshal(s.state, &reg); err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrCorruptRegistry, err)
	}
	return reg, nil
}

// Save replaces the held registry and reports whether it changed.
func (s *MemoryStore) Save(ctx context.Context, registry archive.Registry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("save registry: %w", err)
	}
	data, err := encode(registry)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	s.saves++
	if bytes.Equal(s.state, data) {
		return false, nil
	}
	s.state = data
	return true, nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func encode(registry archive.Registry) ([]byte, error) {
	if registry == nil {
		registry = archive.NewRegistry()
	}
	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal registry: %w", err)
	}
	return append(data, '\n'), nil
}

var _ archive.PatternStore = (*MemoryStore)(nil)
