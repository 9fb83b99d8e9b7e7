package ports

import (
	"context"

	"github.com/packfolio/concierge/pkg/domain"
)

// MemoryStore persists per-session Memory blobs.
// This allows sessions to survive restarts ("Stop & Resume" conversations).
type MemoryStore interface {
	// Save persists the memory for a given session ID.
	Save(ctx context.Context, sessionID string, mem *domain.Memory) error

	// Load retrieves the memory for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Memory, error)

	// Delete removes the memory for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session IDs.
	List(ctx context.Context) ([]string, error)
}

// CatalogCache stores the short-lived per-session catalog snapshot.
// Implementations expire entries after the configured TTL; Load returns
// domain.ErrCacheMiss once the entry is gone or stale.
type CatalogCache interface {
	SaveCatalog(ctx context.Context, sessionID string, packages []domain.Package) error
	LoadCatalog(ctx context.Context, sessionID string) ([]domain.Package, error)
}
