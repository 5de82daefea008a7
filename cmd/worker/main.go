package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/payneio/semanticworkbench/internal/infrastructure/database"
	queueAdapter "github.com/payneio/semanticworkbench/internal/infrastructure/queue/adapter"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/task"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found or could not be loaded", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	srv, err := queueAdapter.NewAsynqServer(log)
	if err != nil {
		log.Error("failed to create queue server", "error", err)
		os.Exit(1)
	}

	task.RegisterNotifyAssistantsTask(srv, pool, log)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("worker running")
	if err := srv.Run(runCtx); err != nil {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
