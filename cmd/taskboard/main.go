package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"taskboard/internal/bot"
	"taskboard/internal/config"
	"taskboard/internal/httpapi"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := newLogger(cfg.LogLevel)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("db", "error", err)
		os.Exit(1)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	userSvc := service.NewUserService(userRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	taskSvc := service.NewTaskService(taskRepo)
	seedSvc := service.NewSeedService(userRepo, categoryRepo, taskRepo, taskSvc)
	digestSvc := service.NewDigestService(taskRepo)

	if cfg.SeedOnStart {
		seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		out, err := seedSvc.Seed(seedCtx)
		cancel()
		if err != nil {
			log.Error("seed", "error", err)
			os.Exit(1)
		}
		log.Info("store seeded", "users", out.Users, "categories", out.Categories, "tasks", out.Tasks)
	}

	var telegramBot *bot.Bot
	if cfg.BotEnabled() {
		telegramBot, err = bot.New(cfg.TelegramToken, log, bot.Deps{
			Users:      userSvc,
			Categories: categorySvc,
			Tasks:      taskSvc,
			Digest:     digestSvc,
		})
		if err != nil {
			log.Error("bot", "error", err)
			os.Exit(1)
		}
	}

	scheduler := service.NewSchedulerService(time.Local, log)
	if err := scheduleJobs(scheduler, cfg, log, db, telegramBot); err != nil {
		log.Error("schedule jobs", "error", err)
		os.Exit(1)
	}
	if scheduler.Entries() > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	board, err := web.New(log, web.Deps{Users: userSvc, Categories: categorySvc, Tasks: taskSvc}, cfg.HTTPTimeout)
	if err != nil {
		log.Error("web templates", "error", err)
		os.Exit(1)
	}

	r := mux.NewRouter()
	r.Use(httpapi.Recover(log), httpapi.LogRequests(log))
	httpapi.Register(r, log, httpapi.Deps{
		Users:      userSvc,
		Categories: categorySvc,
		Tasks:      taskSvc,
		Seed:       seedSvc,
		Ping:       func(ctx context.Context) error { return repository.Ping(ctx, db) },
	}, cfg.HTTPTimeout)
	board.Register(r)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", httpapi.ActorHeader},
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: cfg.HTTPTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("http server", "address", server.Addr)
		errCh <- server.ListenAndServe()
	}()
	if telegramBot != nil {
		go func() {
			errCh <- telegramBot.Start(ctx)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Error("server stopped unexpectedly", "error", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	log.Info("shutdown complete")
}

func scheduleJobs(scheduler *service.SchedulerService, cfg config.Config, log *slog.Logger, db *gorm.DB, telegramBot *bot.Bot) error {
	if cfg.MaintenanceInterval > 0 {
		if _, err := scheduler.Every("store maintenance", cfg.MaintenanceInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := repository.Optimize(jobCtx, db); err != nil {
				log.Warn("store maintenance", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	if telegramBot != nil && cfg.ReportInterval > 0 {
		if _, err := scheduler.Every("daily reports", cfg.ReportInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("daily reports", "error", err)
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
