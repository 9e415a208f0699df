package local

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Config holds LocalCache configuration.
type Config struct {
	// GCInterval is how often expired entries are swept. Zero means 30s.
	GCInterval time.Duration
}

type entry struct {
	value    string
	expireAt time.Time // zero means no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

type lockedList struct {
	items []string
}

// LocalCache is an in-process cache used when Redis is not configured.
// Suitable for single-node deployments and tests.
type LocalCache struct {
	mu    sync.RWMutex
	kv    map[string]*entry
	lists map[string]*lockedList

	stopGC chan struct{}
}

// NewCache creates a LocalCache and starts its expiry sweeper.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		kv:     make(map[string]*entry),
		lists:  make(map[string]*lockedList),
		stopGC: make(chan struct{}),
	}
	go c.runGC(interval)
	return c, nil
}

// Close stops the expiry sweeper.
func (c *LocalCache) Close() {
	close(c.stopGC)
}

func (c *LocalCache) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopGC:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.kv {
				if e.expired(now) {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// getLive returns the entry if present and not expired, lazily deleting
// expired entries. Caller must not hold the lock.
func (c *LocalCache) getLive(key string) (*entry, bool) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.kv[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(now) {
		c.mu.Lock()
		if cur, ok := c.kv[key]; ok && cur.expired(now) {
			delete(c.kv, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e, true
}

// Get returns the value for key, or empty string if absent.
func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	e, ok := c.getLive(key)
	if !ok {
		return "", nil
	}
	return e.value, nil
}

// Set stores value under key. ttl <= 0 means no expiry.
func (c *LocalCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	e := &entry{value: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.kv[key] = e
	c.mu.Unlock()
	return nil
}

// Del removes the given keys from both the KV and list spaces.
func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.kv, k)
		delete(c.lists, k)
	}
	c.mu.Unlock()
	return nil
}

// Exists reports whether key holds a live value.
func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.getLive(key)
	return ok, nil
}

// SetNX stores value only if key is absent. Returns whether it was set.
func (c *LocalCache) SetNX(_ context.Context, key string, value string, ttl time.Duration) (bool, error) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.kv[key]; ok && !e.expired(now) {
		return false, nil
	}
	e := &entry{value: value}
	if ttl > 0 {
		e.expireAt = now.Add(ttl)
	}
	c.kv[key] = e
	return true, nil
}

// Expire sets a new ttl on an existing key. Missing keys are ignored.
func (c *LocalCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.kv[key]; ok && !e.expired(time.Now()) {
		if ttl > 0 {
			e.expireAt = time.Now().Add(ttl)
		} else {
			e.expireAt = time.Time{}
		}
	}
	return nil
}

func (c *LocalCache) list(key string, create bool) *lockedList {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lists[key]
	if !ok && create {
		l = &lockedList{}
		c.lists[key] = l
	}
	return l
}

// LPush prepends values to the list at key, newest first.
func (c *LocalCache) LPush(_ context.Context, key string, values ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lists[key]
	if !ok {
		l = &lockedList{}
		c.lists[key] = l
	}
	for _, v := range values {
		l.items = append([]string{v}, l.items...)
	}
	return nil
}

// LRange returns list elements in [start, stop], with Redis-style
// negative indexes counting from the tail.
func (c *LocalCache) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lists[key]
	if !ok {
		return nil, nil
	}
	n := int64(len(l.items))
	lo, hi := normalizeRange(start, stop, n)
	if lo > hi {
		return nil, nil
	}
	out := make([]string, hi-lo+1)
	copy(out, l.items[lo:hi+1])
	return out, nil
}

// LTrim keeps only the elements in [start, stop].
func (c *LocalCache) LTrim(_ context.Context, key string, start, stop int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lists[key]
	if !ok {
		return nil
	}
	n := int64(len(l.items))
	lo, hi := normalizeRange(start, stop, n)
	if lo > hi {
		l.items = nil
		return nil
	}
	l.items = append([]string(nil), l.items[lo:hi+1]...)
	return nil
}

func normalizeRange(start, stop, n int64) (int64, int64) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop
}

// Keys returns live keys matching a "prefix*" pattern, or an exact key.
// Used by tests and admin tooling.
func (c *LocalCache) Keys(_ context.Context, pattern string) ([]string, error) {
	now := time.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		for k, e := range c.kv {
			if strings.HasPrefix(k, prefix) && !e.expired(now) {
				out = append(out, k)
			}
		}
		return out, nil
	}
	if e, ok := c.kv[pattern]; ok && !e.expired(now) {
		out = append(out, pattern)
	}
	return out, nil
}
