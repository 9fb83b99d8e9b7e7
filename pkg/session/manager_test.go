package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/packfolio/concierge/pkg/domain"
	"github.com/packfolio/concierge/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Memory
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, mem *domain.Memory) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Memory)
	}
	s.data[sessionID] = mem
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Memory, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if mem, ok := s.data[sessionID]; ok {
		return mem, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	err := manager.Save(ctx, id, domain.NewMemory(domain.FlowDirectSales, time.Now()))
	assert.NoError(t, err)

	// Concurrent read-modify-write through WithLock must serialize: each
	// worker appends one clipboard key, so all keys must survive.
	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = manager.WithLock(ctx, id, func(ctx context.Context) error {
				mem, err := store.Load(ctx, id)
				if err != nil {
					return err
				}
				mem = mem.Clone()
				mem.Clipboard[string(rune('a'+n))] = "x"
				return store.Save(ctx, id, mem)
			})
		}(i)
	}
	wg.Wait()

	mem, err := manager.Load(ctx, id)
	assert.NoError(t, err)
	assert.Len(t, mem.Clipboard, workers)
}

func TestManager_LoadMissing(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	_, err := manager.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
