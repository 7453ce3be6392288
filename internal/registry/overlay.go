package registry

import (
	"context"
	"sync"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// OverlayStore reads through to a base store and keeps saves in memory, so a
// dry run sees the real registry without ever writing it.
type OverlayStore struct {
	base archive.PatternStore

	mu  sync.Mutex
	mem *MemoryStore
}

// NewOverlayStore wraps base.
func NewOverlayStore(base archive.PatternStore) *OverlayStore {
	return &OverlayStore{base: base}
}

// Path returns the base store's path.
func (s *OverlayStore) Path() string {
	return s.base.Path()
}

// Load returns the in-memory registry after the first load, the base
// registry before it.
func (s *OverlayStore) Load(ctx context.Context) (archive.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem != nil {
		return s.mem.Load(ctx)
	}
	reg, err := s.base.Load(ctx)
	if err != nil {
		return nil, err
	}
	mem, err := NewMemoryStore(s.base.Path(), reg)
	if err != nil {
		return nil, err
	}
	s.mem = mem
	return reg, nil
}

// Save records registry in memory and reports whether it differs from what
// was loaded.
func (s *OverlayStore) Save(ctx context.Context, registry archive.Registry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem == nil {
		mem, err := NewMemoryStore(s.base.Path(), nil)
		if err != nil {
			return false, err
		}
		s.mem = mem
	}
	return s.mem.Save(ctx, registry)
}

var _ archive.PatternStore = (*OverlayStore)(nil)
