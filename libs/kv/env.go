package kv

import (
	"context"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/redis/go-redis/v9"
)

// RedisClientFromEnv builds a client from REDIS_ADDR, REDIS_PASSWORD and REDIS_DB.
// It returns nil when REDIS_ADDR is unset.
func RedisClientFromEnv() *redis.Client {
	addr := config.String("REDIS_ADDR", "")
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       config.Int("REDIS_DB", 0),
	})
}

// FromEnv returns a Redis store when REDIS_ADDR is set and an in-memory store
// otherwise. The ready check is nil for the in-memory store.
func FromEnv(namespace string) (Store, func(context.Context) error, func() error) {
	rdb := RedisClientFromEnv()
	if rdb == nil {
		return NewMemoryStore(), nil, func() error { return nil }
	}
	s := NewRedisStore(rdb, namespace)
	return s, s.ReadyCheck, rdb.Close
}
