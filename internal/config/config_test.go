package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress != ":8080" || cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("unexpected http settings: %+v", cfg)
	}
	if cfg.DatabaseURL != "taskboard.db" {
		t.Fatalf("database url = %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("log level = %v", cfg.LogLevel)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.MaintenanceInterval != 6*time.Hour || cfg.ReportInterval != 0 || cfg.SeedOnStart || cfg.BotEnabled() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", "127.0.0.1:9000")
	t.Setenv("DATABASE_URL", " /tmp/board.db ")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("TELEGRAM_TOKEN", " token ")
	t.Setenv("SEED_ON_START", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress != "127.0.0.1:9000" || cfg.DatabaseURL != "/tmp/board.db" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("log level = %v", cfg.LogLevel)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
	if !cfg.BotEnabled() || cfg.TelegramToken != "token" || !cfg.SeedOnStart {
		t.Fatalf("unexpected bot/seed settings: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "soon")
		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "parse env:") {
			t.Fatalf("expected parse env error, got %v", err)
		}
	})
	t.Run("zero timeout", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "0s")
		if _, err := Load(); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("negative interval", func(t *testing.T) {
		t.Setenv("REPORT_INTERVAL", "-1h")
		if _, err := Load(); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("blank database", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "  ")
		if _, err := Load(); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("blank origins", func(t *testing.T) {
		for _, v := range []string{" ", " , ,"} {
			t.Setenv("CORS_ALLOWED_ORIGINS", v)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), "CORS_ALLOWED_ORIGINS") {
				t.Fatalf("origins %q: expected error, got %v", v, err)
			}
		}
	})
}
