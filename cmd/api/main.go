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

	"github.com/joho/godotenv"
	"github.com/jobboard/jobboard-go/internal/config"
	"github.com/jobboard/jobboard-go/internal/notify"
	"github.com/jobboard/jobboard-go/internal/repository"
	"github.com/jobboard/jobboard-go/internal/server"
	"github.com/jobboard/jobboard-go/internal/service"
	"github.com/jobboard/jobboard-go/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := repository.Migrate(ctx, db, cfg.DatabaseDriver)
		cancel()
		if err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
		slog.Info("schema migrated", "driver", cfg.DatabaseDriver)
	}

	resumes, err := storage.NewLocalStore(cfg.UploadDir, "/uploads")
	if err != nil {
		slog.Error("upload dir unavailable", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	var (
		notifier   service.Notifier
		dispatcher *notify.Dispatcher
	)
	if cfg.NotifyEnabled {
		dispatcher = notify.NewDispatcher(newMailer(cfg, logger), logger, cfg.NotifyQueueSize, cfg.NotifyWorkers, cfg.NotifyTimeout)
		notifier = dispatcher
	}

	api := server.New(server.Options{
		Config:   cfg,
		DB:       db,
		Resumes:  resumes,
		Notifier: notifier,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "db", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	api.Close()

	if dispatcher != nil {
		if err := dispatcher.Close(ctx); err != nil {
			slog.Warn("pending notifications dropped", "error", err)
		}
	}

	slog.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newMailer picks Gmail when credentials are configured and falls back to
// logging messages otherwise.
func newMailer(cfg config.Config, logger *slog.Logger) notify.Notifier {
	if cfg.GmailCredentialsFile == "" || cfg.GmailTokenFile == "" {
		slog.Info("gmail not configured, notifications will be logged")
		return notify.NewLogNotifier(logger)
	}

	// The OAuth client keeps this context for token refreshes, so it must
	// outlive startup.
	gmail, err := notify.NewGmailNotifier(context.Background(), cfg.GmailCredentialsFile, cfg.GmailTokenFile, cfg.NotifyFrom)
	if err != nil {
		slog.Warn("gmail notifier unavailable, notifications will be logged", "error", err)
		return notify.NewLogNotifier(logger)
	}
	return gmail
}
