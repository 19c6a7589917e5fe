// Package main runs periodic bulk matching passes.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/peer-match-api/internal/app"
	"github.com/noah-isme/peer-match-api/pkg/config"
	"github.com/noah-isme/peer-match-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Matching.BulkInterval <= 0 {
		logr.Info("BULK_MATCH_INTERVAL not set, worker has nothing to do")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to initialise dependencies", zap.Error(err))
	}
	defer container.Close()

	sched, err := gocron.NewScheduler()
	if err != nil {
		logr.Fatal("failed to create scheduler", zap.Error(err))
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.Matching.BulkInterval),
		gocron.NewTask(func() {
			runBulkPass(ctx, container.Matches, logr)
		}),
		gocron.WithName("bulk-match"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		logr.Fatal("failed to schedule bulk match", zap.Error(err))
	}

	sched.Start()
	logr.Info("worker started", zap.Duration("interval", cfg.Matching.BulkInterval))

	<-ctx.Done()
	logr.Info("worker stopping")
	if err := sched.Shutdown(); err != nil {
		logr.Warn("scheduler shutdown", zap.Error(err))
	}
}
