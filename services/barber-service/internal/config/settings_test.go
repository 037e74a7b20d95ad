package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.CacheTTL != 5*time.Minute || !s.SeedOnEmpty || s.KVNamespace != "barbers" {
		t.Fatalf("unexpected defaults %+v", s)
	}
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("BARBER_CACHE_TTL", "0s")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}
