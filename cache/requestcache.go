// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package cache implements off-chain request deduplication: many
// callers asking for the same externally-fetched fact (a chain RPC
// result, a ceremony's aggregated signature) within a short window
// should trigger exactly one fetch, with every waiter fanned out the
// same result once it completes.
package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// RequestCache deduplicates concurrent in-flight requests keyed by a
// caller-chosen string and additionally remembers completed results
// for ttl so a request repeated shortly after completion is served
// from memory rather than re-fetched.
type RequestCache struct {
	group *singleflight.Group
	ttl   time.Duration
	store *ttlStore
}

// NewRequestCache builds a cache whose completed results are kept for ttl.
func NewRequestCache(ttl time.Duration) *RequestCache {
	return &RequestCache{
		group: &singleflight.Group{},
		ttl:   ttl,
		store: newTTLStore(),
	}
}

// Fetch returns the cached result for key if still fresh, otherwise
// calls fn exactly once even under concurrent callers and caches its
// result.
func (c *RequestCache) Fetch(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := c.store.get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		result, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.store.set(key, result, c.ttl)
		return result, nil
	})
	return v, err
}

// Forget evicts key immediately, used when the underlying fact is
// known to have changed (e.g. a reorg invalidated a cached block).
func (c *RequestCache) Forget(key string) {
	c.store.delete(key)
}
