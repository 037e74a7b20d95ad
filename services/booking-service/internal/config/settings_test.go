package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.OpenHour != 9 || s.CloseHour != 17 || s.SlotInterval != 30*time.Minute {
		t.Fatalf("unexpected hours %+v", s)
	}
	if s.BookingWindowDays != 7 || s.HandoffTTL != 2*time.Minute {
		t.Fatalf("unexpected defaults %+v", s)
	}
	loc, err := s.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC, got %v %v", loc, err)
	}
}

func TestLoadRejectsInvertedHours(t *testing.T) {
	t.Setenv("SHOP_OPEN_HOUR", "18")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for close before open")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHOP_CLOSE_HOUR", "12")
	t.Setenv("SLOT_INTERVAL", "1h")
	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.CloseHour != 12 || s.SlotInterval != time.Hour {
		t.Fatalf("unexpected %+v", s)
	}
}
