package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type App struct {
	Backend         string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	DBConnectionURL string        `env:"DB_CONNECTION_URL"`
	JWTSecret       string        `env:"JWT_SECRET,notEmpty"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

func NewApp() (App, error) {
	var cfg App
	if err := env.Parse(&cfg); err != nil {
		return App{}, fmt.Errorf("parse environment: %w", err)
	}

	switch cfg.Backend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DBConnectionURL == "" {
			return App{}, fmt.Errorf("DB_CONNECTION_URL is required for the %s backend", BackendPostgres)
		}
	default:
		return App{}, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	return cfg, nil
}
