package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coursegen/coursegen-api/internal/config"
	"github.com/coursegen/coursegen-api/internal/generation"
	"github.com/coursegen/coursegen-api/internal/platform/gemini"
	"github.com/coursegen/coursegen-api/internal/platform/logger"
	"github.com/coursegen/coursegen-api/internal/scheduler"
)

// shutdownTimeout bounds graceful shutdown once a termination signal arrives.
const shutdownTimeout = 10 * time.Second

// application holds the assembled dependencies of the running server.
type application struct {
	config          *config.Config
	logger          *slog.Logger
	generator       generation.DayGenerator
	schedulerConfig scheduler.Config
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server)
	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"model", cfg.LLM.ModelName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := gemini.NewDayGenerator(ctx, log, cfg.LLM,
		gemini.WithStreamBuffer(cfg.Stream.MaxBufferBytes))
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	app := &application{
		config:    cfg,
		logger:    log,
		generator: generator,
		schedulerConfig: scheduler.Config{
			MaxConcurrent: cfg.Scheduler.MaxConcurrent,
			Policy: scheduler.RetryPolicy{
				MaxAttempts: cfg.Scheduler.MaxAttempts,
				BaseDelay:   time.Duration(cfg.Scheduler.BaseDelayMs) * time.Millisecond,
			},
		},
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("server stopped")
	return nil
}
