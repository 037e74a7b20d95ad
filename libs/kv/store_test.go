package kv

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, "cache_barbers", []byte(`[1]`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "cache_services", []byte(`[2]`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "session:u-1", []byte(`{}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := s.Get(ctx, "cache_barbers")
	if err != nil || string(v) != "[1]" {
		t.Fatalf("Get: got %q, %v", v, err)
	}

	keys, err := s.Keys(ctx, "cache_")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "cache_barbers" || keys[1] != "cache_services" {
		t.Fatalf("Keys: unexpected %v", keys)
	}

	if err := s.Set(ctx, "handoff", []byte("once"), time.Minute); err != nil {
		t.Fatalf("Set ttl: %v", err)
	}
	got, err := s.GetDel(ctx, "handoff")
	if err != nil || string(got) != "once" {
		t.Fatalf("GetDel: got %q, %v", got, err)
	}
	if _, err := s.GetDel(ctx, "handoff"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetDel twice: expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, "short", []byte("x"), time.Second); err != nil {
		t.Fatalf("Set short: %v", err)
	}
	advance(2 * time.Second)
	if _, err := s.Get(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired key: expected ErrNotFound, got %v", err)
	}

	if err := s.Delete(ctx, "cache_barbers", "cache_services"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if keys, _ := s.Keys(ctx, "cache_"); len(keys) != 0 {
		t.Fatalf("Delete: keys left %v", keys)
	}
}

func TestMemoryStore(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore().WithClock(func() time.Time { return now })
	exerciseStore(t, s, func(d time.Duration) { now = now.Add(d) })
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	s := NewRedisStore(rdb, "booking")
	exerciseStore(t, s, mr.FastForward)

	if err := s.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("booking:k") {
		t.Fatal("expected namespaced key in redis")
	}
	if err := s.ReadyCheck(context.Background()); err != nil {
		t.Fatalf("ReadyCheck: %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	store, ready, closeFn := FromEnv("booking")
	if _, ok := store.(*MemoryStore); !ok || ready != nil {
		t.Fatalf("expected memory store without ready check, got %T", store)
	}
	_ = closeFn()

	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())
	store, ready, closeFn = FromEnv("booking")
	defer closeFn()
	if _, ok := store.(*RedisStore); !ok || ready == nil {
		t.Fatalf("expected redis store, got %T", store)
	}
	if err := ready(context.Background()); err != nil {
		t.Fatalf("ready: %v", err)
	}
}
