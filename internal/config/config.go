// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	DiscordAppID string `env:"DISCORD_APP_ID,required"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"rankman.db"`
	ListenAddr   string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`

	// Scheduled sweep instants, local time. The streak resolution runs after
	// the decay sweep so yesterday's activity log is final either way.
	DecaySweepHour  int `env:"DECAY_SWEEP_HOUR" envDefault:"4" validate:"min=0,max=23"`
	StreakSweepHour int `env:"STREAK_SWEEP_HOUR" envDefault:"5" validate:"min=0,max=23"`
}

// Load reads .env (when present), parses the environment and validates the
// result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("unable to parse environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
