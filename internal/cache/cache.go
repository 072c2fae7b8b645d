// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores classification results and gap reports between
// runs. Values are JSON encoded; a Redis backend serves shared
// deployments and an in-process backend serves single CLI invocations.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/pkg/types"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a TTL key-value store for JSON-encodable values.
type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Close() error
}

// New builds the backend named by cfg.Backend. "none" or "" returns a
// nil Cache, which callers treat as caching disabled.
func New(cfg types.CacheConfig, log logging.Logger) (Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", types.CacheNone:
		return nil, nil
	case types.CacheMemory:
		return NewMemory(cfg.Prefix, cfg.TTL), nil
	case types.CacheRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache: %w: redis_addr is empty", types.ErrMissingCredentials)
		}
		r, err := NewRedis(cfg, log)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key joins parts into a cache key. Long or free-form parts are hashed
// so keys stay short and safe for Redis.
func Key(kind string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))[:24]
}
