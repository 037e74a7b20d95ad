// Package ttlcache stores JSON values in a kv.Store stamped with their write time.
// Reads treat anything older than the TTL as a miss; stale entries stay in the
// store until they are overwritten or cleared.
package ttlcache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/kv"
)

const (
	DefaultTTL = 5 * time.Minute
	KeyPrefix  = "cache_"
)

type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type Cache[T any] struct {
	store  kv.Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New[T any](store kv.Store, logger *slog.Logger, opts ...Option) *Cache[T] {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{store: store, ttl: o.ttl, now: o.now, logger: logger}
}

// Key builds "cache_<collection>" or "cache_<collection>_<query>".
func Key(collection, query string) string {
	if query == "" {
		return KeyPrefix + collection
	}
	return KeyPrefix + collection + "_" + query
}

func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			c.logger.Warn("cache read failed", "key", key, "err", err)
		}
		return zero, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn("cache entry unreadable", "key", key, "err", err)
		return zero, false
	}
	if c.now().UnixMilli()-env.Timestamp >= c.ttl.Milliseconds() {
		return zero, false
	}

	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		c.logger.Warn("cache entry unreadable", "key", key, "err", err)
		return zero, false
	}
	return out, true
}

// Set writes the value without a store-level expiry; expiry is decided on read.
func (c *Cache[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope{Data: data, Timestamp: c.now().UnixMilli()})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, raw, 0)
}

// Clear removes key, or every cache entry when key is empty.
func (c *Cache[T]) Clear(ctx context.Context, key string) error {
	if key != "" {
		return c.store.Delete(ctx, key)
	}
	return c.ClearPrefix(ctx, KeyPrefix)
}

func (c *Cache[T]) ClearPrefix(ctx context.Context, prefix string) error {
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	return c.store.Delete(ctx, keys...)
}
