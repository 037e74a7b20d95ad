package config

import (
	"fmt"
	"time"

	libconfig "github.com/md-rashed-zaman/barberbook/libs/config"
)

type Settings struct {
	AdminSignupCode  string        `env:"ADMIN_SIGNUP_CODE"`
	AccessTTL        time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTTL       time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
	SessionMirrorTTL time.Duration `env:"SESSION_MIRROR_TTL" envDefault:"720h"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"10"`

	JWTSecret         string `env:"JWT_SECRET" envDefault:"dev-secret"`
	JWTPrivateKeysPEM string `env:"JWT_PRIVATE_KEYS_PEM"`
	JWTActiveKid      string `env:"JWT_ACTIVE_KID"`
	JWTRotateKey      string `env:"JWT_ROTATE_KEY"`
}

func Load() (Settings, error) {
	var s Settings
	if err := libconfig.Load(&s); err != nil {
		return Settings{}, err
	}
	if s.AccessTTL <= 0 || s.RefreshTTL <= 0 {
		return Settings{}, fmt.Errorf("token ttls must be positive")
	}
	if s.BcryptCost < 4 || s.BcryptCost > 31 {
		return Settings{}, fmt.Errorf("BCRYPT_COST out of range: %d", s.BcryptCost)
	}
	return s, nil
}
