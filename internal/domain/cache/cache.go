package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is the derived, non-authoritative key/value layer. Counter operations
// are atomic and (re)apply the TTL to the key in the same step; a zero TTL
// leaves the key without expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	HIncr(ctx context.Context, key, field string, ttl time.Duration) (int64, error)
	LPush(ctx context.Context, key, value string, ttl time.Duration) error
}
