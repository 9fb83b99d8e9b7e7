package middleware

import (
	"context"

	"github.com/packfolio/concierge/pkg/domain"
)

// mockStore is a minimal in-memory MemoryStore for middleware tests.
type mockStore struct {
	data map[string]*domain.Memory
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]*domain.Memory)}
}

func (m *mockStore) Save(ctx context.Context, sessionID string, mem *domain.Memory) error {
	m.data[sessionID] = mem.Clone()
	return nil
}

func (m *mockStore) Load(ctx context.Context, sessionID string) (*domain.Memory, error) {
	mem, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return mem.Clone(), nil
}

func (m *mockStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.data, sessionID)
	return nil
}

func (m *mockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}
