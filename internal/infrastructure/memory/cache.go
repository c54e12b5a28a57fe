package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
)

type entry struct {
	value    string
	hash     map[string]int64
	list     []string
	expireAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// Cache is a process-local cache.Store with lazy expiry.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (c *Cache) live(key string) (*entry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e, true
}

func (c *Cache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok || e.hash != nil || e.list != nil {
		return "", cache.ErrMiss
	}
	return e.value, nil
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{value: value, expireAt: c.expiry(ttl)}
	return nil
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *Cache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	if e, ok := c.live(key); ok {
		v, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, err
		}
		n = v
	}
	n++
	c.entries[key] = &entry{value: strconv.FormatInt(n, 10), expireAt: c.expiry(ttl)}
	return n, nil
}

func (c *Cache) HIncr(ctx context.Context, key, field string, ttl time.Duration) (int64, error) {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok || e.hash == nil {
		e = &entry{hash: make(map[string]int64)}
		c.entries[key] = e
	}
	e.hash[field]++
	e.expireAt = c.expiry(ttl)
	return e.hash[field], nil
}

func (c *Cache) LPush(ctx context.Context, key, value string, ttl time.Duration) error {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok || e.list == nil {
		e = &entry{list: []string{}}
		c.entries[key] = e
	}
	e.list = append([]string{value}, e.list...)
	e.expireAt = c.expiry(ttl)
	return nil
}

// HGet and LRange expose the structured entries for inspection in tests.

func (c *Cache) HGet(key, field string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok || e.hash == nil {
		return 0, false
	}
	v, ok := e.hash[field]
	return v, ok
}

func (c *Cache) LRange(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		return nil
	}
	return append([]string(nil), e.list...)
}

// Keys returns the live keys with the given prefix.
func (c *Cache) Keys(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	for k := range c.entries {
		if _, ok := c.live(k); ok && strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

var _ cache.Store = (*Cache)(nil)
