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

	"github.com/samarth126/SmartShelf/internal/config"
	"github.com/samarth126/SmartShelf/internal/repository"
	"github.com/samarth126/SmartShelf/internal/server"
	"github.com/samarth126/SmartShelf/internal/session"
)

const pruneInterval = time.Minute

func main() {
	ensureEnvFile()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	snapshots, err := repository.OpenSnapshotRepository(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to open snapshot store", slog.String("driver", cfg.Snapshot.Driver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := snapshots.Close(); err != nil {
			logger.Warn("failed to close snapshot store", slog.String("error", err.Error()))
		}
	}()

	e, sessions := server.New(cfg, logger, snapshots)
	httpServer := server.NewHTTPServer(cfg.Server, e)

	pruneCtx, stopPrune := context.WithCancel(context.Background())
	defer stopPrune()
	go pruneSessions(pruneCtx, sessions, cfg.Session.TTL, logger)

	go func() {
		logger.Info("http server started", slog.String("addr", httpServer.Addr), slog.String("backend", cfg.Backend.BaseURL))
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownSignal

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

// pruneSessions удаляет сессии, к которым не обращались дольше срока жизни токена.
func pruneSessions(ctx context.Context, sessions *session.Registry, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.Prune(ctx, ttl); removed > 0 {
				logger.Info("expired sessions pruned", slog.Int("count", removed))
			}
		}
	}
}

func ensureEnvFile() {
	if os.Getenv("ENV_FILE") != "" {
		return
	}

	if _, err := os.Stat(".env"); err == nil {
		_ = os.Setenv("ENV_FILE", ".env")
	}
}
