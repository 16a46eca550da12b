package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"3000"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"postgresql://localhost:5432/potatodoro?sslmode=disable"`
	CORSOrigin  string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Coordinator tunables. Defaults match the classic pomodoro split.
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"25m"`
	RestDuration    time.Duration `env:"REST_DURATION" envDefault:"5m"`
	DisconnectGrace time.Duration `env:"DISCONNECT_GRACE" envDefault:"2m"`
	RoomTTL         time.Duration `env:"ROOM_TTL" envDefault:"24h"`
	RoomCapacity    int           `env:"ROOM_CAPACITY" envDefault:"5"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
