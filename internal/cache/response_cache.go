package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCapacity = 500
	DefaultTTL      = time.Hour

	// Two concurrent requests for the same fresh query both miss the
	// cache and both finish generation; the second write inside this
	// window is dropped instead of resetting the entry's age.
	writeSuppressWindow = time.Second
)

// ResponseCache holds final answers keyed by the normalized query.
// Entries expire after the TTL (checked lazily on read) and the
// oldest entry is evicted when the cache is full.
type ResponseCache struct {
	lru *expirable.LRU[string, string]

	mu        sync.Mutex
	lastWrite map[string]time.Time
	now       func() time.Time
}

func NewResponseCache(capacity int, ttl time.Duration) *ResponseCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{
		lru:       expirable.NewLRU[string, string](capacity, nil, ttl),
		lastWrite: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Key normalizes and hashes a query so cache keys stay fixed-length
// no matter what the user typed.
func Key(q string) string {
	normalized := strings.ToLower(strings.TrimSpace(q))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func (c *ResponseCache) Get(q string) (string, bool) {
	return c.lru.Get(Key(q))
}

func (c *ResponseCache) Set(q, answer string) {
	key := Key(q)
	c.mu.Lock()
	if last, ok := c.lastWrite[key]; ok && c.now().Sub(last) < writeSuppressWindow {
		c.mu.Unlock()
		return
	}
	c.lastWrite[key] = c.now()
	if len(c.lastWrite) > 4096 {
		c.pruneLocked()
	}
	c.mu.Unlock()
	c.lru.Add(key, answer)
}

func (c *ResponseCache) pruneLocked() {
	cutoff := c.now().Add(-writeSuppressWindow)
	for key, t := range c.lastWrite {
		if t.Before(cutoff) {
			delete(c.lastWrite, key)
		}
	}
}

func (c *ResponseCache) Len() int {
	return c.lru.Len()
}

// Clear drops every entry. Called on corpus rebuild so stale answers
// never outlive the documents they were built from.
func (c *ResponseCache) Clear() {
	c.lru.Purge()
	c.mu.Lock()
	c.lastWrite = make(map[string]time.Time)
	c.mu.Unlock()
}
