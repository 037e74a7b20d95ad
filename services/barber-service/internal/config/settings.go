package config

import (
	"fmt"
	"time"

	libconfig "github.com/md-rashed-zaman/barberbook/libs/config"
)

type Settings struct {
	CacheTTL    time.Duration `env:"BARBER_CACHE_TTL" envDefault:"5m"`
	SeedOnEmpty bool          `env:"SEED_DEFAULT_BARBERS" envDefault:"true"`
	KVNamespace string        `env:"KV_NAMESPACE" envDefault:"barbers"`
}

func Load() (Settings, error) {
	var s Settings
	if err := libconfig.Load(&s); err != nil {
		return Settings{}, err
	}
	if s.CacheTTL <= 0 {
		return Settings{}, fmt.Errorf("BARBER_CACHE_TTL must be positive")
	}
	return s, nil
}
