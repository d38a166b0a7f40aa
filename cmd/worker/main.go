// Command worker consumes the bookkeeping task queue: conversation activity
// timestamps and participant vote counters derived from the write path.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openagora/agora/internal/adapter/postgres"
	"github.com/openagora/agora/internal/adapter/postgres/conversation"
	"github.com/openagora/agora/internal/adapter/postgres/participant"
	"github.com/openagora/agora/internal/adapter/queue"
	"github.com/openagora/agora/internal/app"
	"github.com/openagora/agora/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	logger.Info("starting worker",
		slog.String("version", app.BuildVersion()),
		slog.Int("concurrency", cfg.Queue.Concurrency),
	)

	connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := postgres.NewPool(connectCtx, cfg.Database)
	cancel()
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	srv, err := queue.NewAsynqServer(cfg.Redis.URL, cfg.Queue.Concurrency)
	if err != nil {
		logger.Error("create task server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	queue.RegisterBookkeepingTasks(srv, conversation.New(pool), participant.New(pool), logger)

	if err := srv.Start(); err != nil {
		logger.Error("start task server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down worker")
	srv.Shutdown()
	logger.Info("shutdown complete")
}
