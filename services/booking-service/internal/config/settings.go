package config

import (
	"fmt"
	"time"

	libconfig "github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
)

type Settings struct {
	OpenHour          int           `env:"SHOP_OPEN_HOUR" envDefault:"9"`
	CloseHour         int           `env:"SHOP_CLOSE_HOUR" envDefault:"17"`
	SlotInterval      time.Duration `env:"SLOT_INTERVAL" envDefault:"30m"`
	BookingWindowDays int           `env:"BOOKING_WINDOW_DAYS" envDefault:"7"`
	TimeZone          string        `env:"SHOP_TIMEZONE" envDefault:"UTC"`
	SlotCacheSize     int           `env:"SLOT_CACHE_SIZE" envDefault:"1024"`
	SlotCacheTTL      time.Duration `env:"SLOT_CACHE_TTL" envDefault:"10m"`
	HandoffTTL        time.Duration `env:"HANDOFF_TTL" envDefault:"2m"`
}

func Load() (Settings, error) {
	var s Settings
	if err := libconfig.Load(&s); err != nil {
		return Settings{}, err
	}
	if s.OpenHour < 0 || s.CloseHour > 24 || s.CloseHour <= s.OpenHour {
		return Settings{}, fmt.Errorf("invalid shop hours %d-%d", s.OpenHour, s.CloseHour)
	}
	if s.SlotInterval <= 0 {
		return Settings{}, fmt.Errorf("SLOT_INTERVAL must be positive")
	}
	if s.BookingWindowDays <= 0 {
		return Settings{}, fmt.Errorf("BOOKING_WINDOW_DAYS must be positive")
	}
	return s, nil
}

func (s Settings) Hours() availability.Hours {
	return availability.Hours{Open: s.OpenHour, Close: s.CloseHour, Interval: s.SlotInterval}
}

func (s Settings) Location() (*time.Location, error) {
	return time.LoadLocation(s.TimeZone)
}
