package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrCacheMiss is returned when no fresh catalog cache entry exists.
var ErrCacheMiss = errors.New("catalog cache miss")
