// Package memory provides in-process implementations of the persistence
// ports, used by tests and the local chat REPL.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/packfolio/concierge/pkg/domain"
)

// Store implements ports.MemoryStore and ports.CatalogCache in memory.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	data     map[string]*domain.Memory
	catalogs map[string]catalogEntry

	cacheTTL time.Duration
	now      func() time.Time
}

type catalogEntry struct {
	packages []domain.Package
	storedAt time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithCatalogTTL overrides the catalog cache TTL.
func WithCatalogTTL(ttl time.Duration) Option {
	return func(s *Store) { s.cacheTTL = ttl }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data:     make(map[string]*domain.Memory),
		catalogs: make(map[string]catalogEntry),
		cacheTTL: 5 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists the memory. Values are cloned so callers cannot mutate
// stored state through retained pointers.
func (s *Store) Save(ctx context.Context, sessionID string, mem *domain.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = mem.Clone()
	return nil
}

// Load retrieves the memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mem, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return mem.Clone(), nil
}

// Delete removes the memory and the session's catalog cache entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	delete(s.catalogs, sessionID)
	return nil
}

// List returns the known session ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// SaveCatalog stores the catalog snapshot for a session.
func (s *Store) SaveCatalog(ctx context.Context, sessionID string, packages []domain.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogs[sessionID] = catalogEntry{
		packages: append([]domain.Package(nil), packages...),
		storedAt: s.now(),
	}
	return nil
}

// LoadCatalog returns the snapshot, or domain.ErrCacheMiss when absent or
// older than the TTL.
func (s *Store) LoadCatalog(ctx context.Context, sessionID string) ([]domain.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.catalogs[sessionID]
	if !ok || s.now().Sub(entry.storedAt) > s.cacheTTL {
		return nil, domain.ErrCacheMiss
	}
	return append([]domain.Package(nil), entry.packages...), nil
}
