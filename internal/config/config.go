package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config keeps runtime settings for the board server and the optional bot.
type Config struct {
	HTTPAddress         string        `env:"HTTP_ADDRESS" envDefault:":8080"`
	HTTPTimeout         time.Duration `env:"HTTP_TIMEOUT" envDefault:"5s"`
	DatabaseURL         string        `env:"DATABASE_URL" envDefault:"taskboard.db"`
	LogLevel            slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	AllowedOrigins      []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	TelegramToken       string        `env:"TELEGRAM_TOKEN"`
	MaintenanceInterval time.Duration `env:"MAINTENANCE_INTERVAL" envDefault:"6h"`
	ReportInterval      time.Duration `env:"REPORT_INTERVAL" envDefault:"0s"`
	SeedOnStart         bool          `env:"SEED_ON_START" envDefault:"false"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.HTTPTimeout <= 0 {
		return cfg, fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", cfg.HTTPTimeout)
	}

	if cfg.MaintenanceInterval < 0 || cfg.ReportInterval < 0 {
		return cfg, fmt.Errorf("intervals must not be negative")
	}

	origins := cfg.AllowedOrigins[:0]
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return cfg, fmt.Errorf("CORS_ALLOWED_ORIGINS must name at least one origin; use * to allow any")
	}
	cfg.AllowedOrigins = origins

	return cfg, nil
}

// BotEnabled reports whether a Telegram token was configured.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}
