// Package middleware wraps a MemoryStore to add behavior at the
// persistence boundary, such as encryption at rest.
package middleware

import "github.com/packfolio/concierge/pkg/ports"

// Middleware allows wrapping a MemoryStore to add behavior.
type Middleware func(ports.MemoryStore) ports.MemoryStore
