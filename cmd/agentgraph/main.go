// Command agentgraph serves the visual workflow engine API: an in-memory
// graph store with validation, layout, and plan compilation, backed by a
// libSQL blob store for saved workflows and an HTTP client for the agent
// execution backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Joseph-k-iype/multi-agent/internal/api"
	"github.com/Joseph-k-iype/multi-agent/internal/engine"
	"github.com/Joseph-k-iype/multi-agent/internal/graph"
	"github.com/Joseph-k-iype/multi-agent/internal/logging"
	"github.com/Joseph-k-iype/multi-agent/internal/persist"
	"github.com/Joseph-k-iype/multi-agent/internal/runner"
	"github.com/Joseph-k-iype/multi-agent/internal/scheduler"
	"github.com/Joseph-k-iype/multi-agent/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "agentgraph:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is the lowest config layer; absence is fine.
	_ = godotenv.Load()
	cfg := loadConfig()

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer blobs.Close()

	graphStore := graph.NewStore(logger)
	httpRunner := runner.NewHTTPRunner(cfg.BackendURL, runner.WithRunTimeout(cfg.RunTimeout()))
	controller := engine.NewController(graphStore, httpRunner, logger,
		engine.WithHistoryLimit(cfg.HistoryLimit))

	adapter, err := persist.NewAdapter(blobs)
	if err != nil {
		return fmt.Errorf("persistence adapter: %w", err)
	}

	sched := scheduler.NewScheduler(controller, logger)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	server := api.NewServer(api.Deps{
		Graph:      graphStore,
		Controller: controller,
		Runner:     httpRunner,
		Persist:    adapter,
		Scheduler:  sched,
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", cfg.ListenAddr),
			slog.String("backend", cfg.BackendURL),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openBlobStore opens the libSQL store, falling back to memory when the
// database directory cannot be created (read-only environments).
func openBlobStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.BlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Warn("database directory unavailable, using in-memory store",
			slog.String("path", cfg.DBPath),
			slog.String("error", err.Error()),
		)
		return store.NewMemoryStore(), nil
	}
	blobs, err := store.NewLibSQLStore(ctx, "file:"+cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	logger.Info("blob store ready", slog.String("path", cfg.DBPath))
	return blobs, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}
