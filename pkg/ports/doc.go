// Package ports defines the interfaces between the concierge core and its
// adapters (persistence, commerce backend, decision oracle). Adapters
// implement these; the engine and flow handlers depend only on them.
package ports
