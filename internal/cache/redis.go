// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/pkg/types"
)

// Redis is a cache backed by a Redis server.
type Redis struct {
	rdb        redis.Cmdable
	closer     func() error
	prefix     string
	defaultTTL time.Duration
	log        logging.Logger
}

// NewRedis connects to cfg.RedisAddr and pings it.
func NewRedis(cfg types.CacheConfig, log logging.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	r := NewRedisFromClient(client, cfg.Prefix, cfg.TTL, log)
	r.closer = client.Close
	return r, nil
}

// NewRedisFromClient wraps an existing client; tests pass a redismock client.
func NewRedisFromClient(rdb redis.Cmdable, prefix string, defaultTTL time.Duration, log logging.Logger) *Redis {
	return &Redis{
		rdb:        rdb,
		closer:     func() error { return nil },
		prefix:     prefix,
		defaultTTL: defaultTTL,
		log:        logging.OrNop(log).Named("cache"),
	}
}

// jitter spreads expirations by up to 10% so entries written together do
// not expire together. Tests replace it with the identity.
var jitter = func(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return ttl + time.Duration(float64(ttl)*0.1*rand.Float64())
}

// Get decodes the stored value into dst.
func (r *Redis) Get(ctx context.Context, key string, dst any) error {
	data, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		r.log.Warn("redis get failed", logging.String("key", key), logging.Err(err))
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return nil
}

// Set stores value; ttl 0 uses the default TTL.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if err := r.rdb.Set(ctx, r.prefix+key, data, jitter(ttl)).Err(); err != nil {
		r.log.Warn("redis set failed", logging.String("key", key), logging.Err(err))
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client when this cache created it.
func (r *Redis) Close() error { return r.closer() }
