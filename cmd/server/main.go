package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/sweeper/internal/config"
	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/logging"
	"github.com/JonMunkholm/sweeper/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_files", cfg.Upload.MaxFiles,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"workspace_ttl", cfg.Workspace.TTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	store := core.NewWorkspaceStore(core.WorkspaceLimits{
		MaxFileSize: cfg.Upload.MaxFileSize,
		MaxFiles:    cfg.Upload.MaxFiles,
		TTL:         cfg.Workspace.TTL,
	})
	runs := core.NewRunLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)

	server := web.NewServer(cfg, store, runs)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go store.StartJanitor(jobCtx, cfg.Workspace.CheckInterval)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running pipelines to finish (with timeout)
		if status := runs.Status(); status.Active > 0 {
			slog.Info("waiting for pipeline runs to complete", "active", status.Active)
			if err := runs.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("pipeline runs did not complete in time", "error", err)
			} else {
				slog.Info("all pipeline runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
