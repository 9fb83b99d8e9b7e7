// Package session serializes access to per-session memory. Within one
// process a reference-counted lock map guarantees at-most-one concurrent
// request per session id; across replicas an optional distributed locker
// extends the same guarantee.
package session
