// Package domain contains the core entities of the concierge engine:
// per-session Memory, flow/step tokens, catalog types and the closed set
// of oracle decisions. It has no dependencies on adapters or transports.
package domain
