// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache backed by go-cache.
type Memory struct {
	c      *gocache.Cache
	prefix string
}

// NewMemory returns an in-process cache whose entries expire after
// defaultTTL unless Set supplies one.
func NewMemory(prefix string, defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &Memory{c: gocache.New(defaultTTL, 10*time.Minute), prefix: prefix}
}

// Get decodes the stored value into dst.
func (m *Memory) Get(_ context.Context, key string, dst any) error {
	v, ok := m.c.Get(m.prefix + key)
	if !ok {
		return ErrMiss
	}
	if err := json.Unmarshal(v.([]byte), dst); err != nil {
		return fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return nil
}

// Set stores value; ttl 0 uses the default expiration.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(m.prefix+key, data, ttl)
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int { return m.c.ItemCount() }

// Close drops all entries.
func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
