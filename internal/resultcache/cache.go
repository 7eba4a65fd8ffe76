// Package resultcache holds exported workbooks between the reconciliation
// call that produced them and the download request that fetches them. Each
// entry is addressed by an opaque token returned to the caller.
package resultcache

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	apperrors "trade-reconcile-service/pkg/errors"
)

// Payload is one cached export.
type Payload struct {
	Filename string `json:"filename"`
	XLSX     []byte `json:"xlsx"`
}

// Cache stores export payloads under generated tokens.
type Cache interface {
	// Put stores the payload and returns its token.
	Put(ctx context.Context, payload Payload) (string, error)

	// Get returns the payload for the token. Unknown or expired tokens
	// return a CodeUnknownToken error.
	Get(ctx context.Context, token string) (Payload, error)

	Close() error
}

// Config selects and sizes a cache backend.
type Config struct {
	Backend       string
	TTL           time.Duration
	MaxItems      int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig returns the memory backend with the standard retention
// policy: entries live an hour, at most forty at a time.
func DefaultConfig() Config {
	return Config{
		Backend:  "memory",
		TTL:      60 * time.Minute,
		MaxItems: 40,
	}
}

// New creates a cache for the configured backend.
func New(cfg Config) (Cache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	switch cfg.Backend {
	case "", "memory":
		if cfg.MaxItems <= 0 {
			cfg.MaxItems = DefaultConfig().MaxItems
		}
		return NewMemoryCache(cfg.TTL, cfg.MaxItems), nil
	case "redis":
		return NewRedisCache(cfg)
	default:
		return nil, apperrors.InvalidConfig("cache.backend", cfg.Backend,
			"must be memory or redis")
	}
}

// newToken returns a fresh opaque token.
func newToken() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
