// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ttlcache provides a single-value cache that expires after a fixed duration.
package ttlcache

import (
	"sync"
	"time"
)

// Cache holds at most one value together with its expiry time.
//
// A Cache is constructed explicitly and injected where it is needed, so
// that every owner (and every test) gets an isolated instance.
type Cache[V any] struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.RWMutex
	value     V
	expiresAt time.Time
	set       bool
}

// CacheOption is a functional option for configuring the Cache.
type CacheOption func(*cacheOptions)

// CacheWithClock sets the clock used to compute and check expiry.
//
// The default is time.Now.
func CacheWithClock(now func() time.Time) CacheOption {
	return func(cacheOptions *cacheOptions) {
		cacheOptions.now = now
	}
}

// New returns a new empty Cache whose values live for ttl.
func New[V any](ttl time.Duration, options ...CacheOption) *Cache[V] {
	cacheOptions := &cacheOptions{
		now: time.Now,
	}
	for _, option := range options {
		option(cacheOptions)
	}
	return &Cache[V]{
		ttl: ttl,
		now: cacheOptions.now,
	}
}

// Get returns the cached value and true if a value is present and now is before its expiry.
func (c *Cache[V]) Get() (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set || !c.now().Before(c.expiresAt) {
		var zero V
		return zero, false
	}
	return c.value, true
}

// Set replaces the cached value, expiring it ttl from now.
func (c *Cache[V]) Set(value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.expiresAt = c.now().Add(c.ttl)
	c.set = true
}

// ExpiresAt returns the expiry time of the cached value, or the zero time if empty.
func (c *Cache[V]) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		return time.Time{}
	}
	return c.expiresAt
}

// Clear removes the cached value.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	c.value = zero
	c.expiresAt = time.Time{}
	c.set = false
}

// *** PRIVATE ***

type cacheOptions struct {
	now func() time.Time
}
