// Package config loads deployment configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs. BOT_TOKEN is the shared secret
// the platform signed credentials with; BOT_USERNAME and WEBAPP_SHORT_NAME
// parameterize referral links.
type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	BotToken        string `env:"BOT_TOKEN,required"`
	BotUsername     string `env:"BOT_USERNAME"`
	WebAppShortName string `env:"WEBAPP_SHORT_NAME"`

	// DSN empty means in-memory stores (single-node mode).
	DSN string `env:"DATABASE_DSN"`

	AuthMaxAge   time.Duration `env:"AUTH_MAX_AGE" envDefault:"24h"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`

	LimiterWindow   time.Duration `env:"LIMITER_WINDOW" envDefault:"15m"`
	LimiterMaxFails int           `env:"LIMITER_MAX_FAILS" envDefault:"10"`
	LimiterBlockFor time.Duration `env:"LIMITER_BLOCK_FOR" envDefault:"15m"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
