// Package redis persists session memory and the catalog cache in Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/packfolio/concierge/pkg/domain"
)

// Store implements ports.MemoryStore and ports.CatalogCache using Redis.
type Store struct {
	client   *backend.Client
	prefix   string
	ttl      time.Duration
	cacheTTL time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithCatalogTTL overrides the catalog cache TTL.
func WithCatalogTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.cacheTTL = ttl
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client:   client,
		prefix:   "concierge:session:",
		ttl:      0, // No expiration by default
		cacheTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) catalogKey(sessionID string) string {
	return s.prefix + "catalog:" + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the memory to Redis.
func (s *Store) Save(ctx context.Context, sessionID string, mem *domain.Memory) error {
	data, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("failed to marshal memory: %w", err)
	}

	pipe := s.client.Pipeline()

	// 1. Save JSON with TTL (0 means no expiration).
	pipe.Set(ctx, s.key(sessionID), data, s.ttl)

	// 2. Add to index (ZSET). Score = Now + TTL; +Inf-ish when no TTL.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: sessionID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the memory from Redis.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Memory, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var mem domain.Memory
	if err := json.Unmarshal([]byte(val), &mem); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memory: %w", err)
	}
	return &mem, nil
}

// Delete removes the session and its catalog cache entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(sessionID))
	pipe.Del(ctx, s.catalogKey(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns active sessions using ZSET lazy cleanup.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	// Prune expired members first; with no TTL configured this is a no-op.
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// SaveCatalog stores the catalog snapshot; Redis TTL handles expiry.
func (s *Store) SaveCatalog(ctx context.Context, sessionID string, packages []domain.Package) error {
	data, err := json.Marshal(packages)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := s.client.Set(ctx, s.catalogKey(sessionID), data, s.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to save catalog to redis: %w", err)
	}
	return nil
}

// LoadCatalog returns the snapshot or domain.ErrCacheMiss once expired.
func (s *Store) LoadCatalog(ctx context.Context, sessionID string) ([]domain.Package, error) {
	val, err := s.client.Get(ctx, s.catalogKey(sessionID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get catalog from redis: %w", err)
	}

	var packages []domain.Package
	if err := json.Unmarshal([]byte(val), &packages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	return packages, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
