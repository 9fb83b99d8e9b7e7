package main

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"

	backend "github.com/redis/go-redis/v9"

	"github.com/packfolio/concierge/internal/config"
	"github.com/packfolio/concierge/internal/logging"
	"github.com/packfolio/concierge/pkg/adapters/memory"
	"github.com/packfolio/concierge/pkg/adapters/redis"
	"github.com/packfolio/concierge/pkg/adapters/shop"
	"github.com/packfolio/concierge/pkg/engine"
	"github.com/packfolio/concierge/pkg/oracle"
	"github.com/packfolio/concierge/pkg/persistence/middleware"
	"github.com/packfolio/concierge/pkg/ports"
	"github.com/packfolio/concierge/pkg/session"
)

// buildApp assembles the engine and its logger from configuration. Shared
// by serve, chat and mcp.
func buildApp(cfg config.Config) (*engine.Engine, *slog.Logger, error) {
	logger := buildLogger(cfg.Logging)

	var (
		store  ports.MemoryStore
		cache  ports.CatalogCache
		locker ports.DistributedLocker
	)
	switch cfg.Storage.Backend {
	case "", "memory":
		ms := memory.NewStore()
		store, cache = ms, ms
	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		rs := redis.NewFromClient(client, redis.WithTTL(cfg.Storage.SessionTTL))
		store, cache = rs, rs
		locker = redis.NewLocker(client, "concierge:session:")
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}

	if len(cfg.Storage.EncryptionKeys) > 0 {
		store = encryptionFor(cfg.Storage.EncryptionKeys)(store)
	}

	gen, err := oracle.New(oracle.Config{
		Mode:      oracle.Mode(cfg.Oracle.Mode),
		APIKey:    cfg.Oracle.APIKey,
		Model:     cfg.Oracle.Model,
		BaseURL:   cfg.Oracle.BaseURL,
		AccountID: cfg.Oracle.AccountID,
		Timeout:   cfg.Oracle.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	opts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}

	client := shop.New()
	eng := engine.New(engine.Config{
		Sessions: session.NewManager(store, opts...),
		Cache:    cache,
		Catalog:  client,
		Orders:   client,
		Oracle:   gen,
		Shop:     ports.ShopIdentity{Domain: cfg.Shop.Domain, Token: cfg.Shop.Token},
		Logger:   logger,
		Provider: cfg.Oracle.Mode,
	})
	return eng, logger, nil
}

// encryptionFor derives 32-byte AES keys from the configured passphrases.
// The first entry encrypts; the rest decrypt during rotation.
func encryptionFor(keys []string) middleware.Middleware {
	derive := func(k string) []byte {
		sum := sha256.Sum256([]byte(k))
		return sum[:]
	}
	cfg := middleware.EncryptionConfig{ActiveKey: derive(keys[0])}
	for _, k := range keys[1:] {
		cfg.FallbackKeys = append(cfg.FallbackKeys, derive(k))
	}
	return middleware.NewEncryptionMiddleware(cfg)
}

func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if strings.ToLower(cfg.Format) == "json" {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}
