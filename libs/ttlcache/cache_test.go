package ttlcache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/kv"
)

type barber struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestCache(now *time.Time) (*Cache[[]barber], *kv.MemoryStore) {
	store := kv.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New[[]barber](store, logger, WithClock(func() time.Time { return *now })), store
}

func TestKey(t *testing.T) {
	if got := Key("barbers", ""); got != "cache_barbers" {
		t.Fatalf("got %q", got)
	}
	if got := Key("slots", "b-1"); got != "cache_slots_b-1" {
		t.Fatalf("got %q", got)
	}
}

func TestGetWithinTTL(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c, _ := newTestCache(&now)
	ctx := context.Background()

	if err := c.Set(ctx, Key("barbers", ""), []barber{{ID: "b-1", Name: "John Doe"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(DefaultTTL - time.Millisecond)
	got, ok := c.Get(ctx, Key("barbers", ""))
	if !ok || len(got) != 1 || got[0].Name != "John Doe" {
		t.Fatalf("expected hit, got %v %v", got, ok)
	}
}

func TestExpiredEntryIsMissButStillStored(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c, store := newTestCache(&now)
	ctx := context.Background()
	key := Key("barbers", "")

	if err := c.Set(ctx, key, []barber{{ID: "b-1"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(DefaultTTL)
	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("expected miss once the ttl has fully elapsed")
	}
	if _, err := store.Get(ctx, key); err != nil {
		t.Fatalf("expected stale entry to remain in storage, got %v", err)
	}
}

func TestUnreadableEntryIsMiss(t *testing.T) {
	now := time.Now()
	c, store := newTestCache(&now)
	ctx := context.Background()
	_ = store.Set(ctx, "cache_barbers", []byte("not json"), 0)
	if _, ok := c.Get(ctx, "cache_barbers"); ok {
		t.Fatal("expected miss for garbage entry")
	}
}

func TestClear(t *testing.T) {
	now := time.Now()
	c, store := newTestCache(&now)
	ctx := context.Background()
	_ = c.Set(ctx, Key("barbers", ""), nil)
	_ = c.Set(ctx, Key("barbers", "active"), nil)
	_ = store.Set(ctx, "session:u-1", []byte("{}"), 0)

	if err := c.Clear(ctx, Key("barbers", "active")); err != nil {
		t.Fatalf("Clear key: %v", err)
	}
	if _, err := store.Get(ctx, Key("barbers", "active")); err == nil {
		t.Fatal("expected single key removed")
	}

	if err := c.Clear(ctx, ""); err != nil {
		t.Fatalf("Clear all: %v", err)
	}
	if keys, _ := store.Keys(ctx, KeyPrefix); len(keys) != 0 {
		t.Fatalf("expected no cache keys, got %v", keys)
	}
	if _, err := store.Get(ctx, "session:u-1"); err != nil {
		t.Fatal("expected non-cache keys to survive Clear")
	}
}

func TestClearPrefix(t *testing.T) {
	now := time.Now()
	c, store := newTestCache(&now)
	ctx := context.Background()
	_ = c.Set(ctx, Key("barbers", "a"), nil)
	_ = c.Set(ctx, Key("barbers", "b"), nil)
	_ = c.Set(ctx, Key("services", ""), nil)

	if err := c.ClearPrefix(ctx, Key("barbers", "")); err != nil {
		t.Fatalf("ClearPrefix: %v", err)
	}
	keys, _ := store.Keys(ctx, KeyPrefix)
	if len(keys) != 1 || keys[0] != "cache_services" {
		t.Fatalf("unexpected keys left: %v", keys)
	}
}
