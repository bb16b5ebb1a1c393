package main

import (
	"context"
	"errors"
	"os"
	"time"

	"financy/internal/amqp"
	"financy/internal/cli"
	"financy/internal/log"
	"financy/internal/services"
	"financy/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.Setup("info", "text", log.ComponentWorker).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker, os.Stdout)
	logger.Info("Starting financy-worker",
		log.FieldBackend, cfg.DataBackend,
		"events", cfg.EventsBackend,
		"interval", cfg.SyncInterval.String())

	app, err := cli.NewApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	syncer, err := app.NewSyncService()
	if err != nil {
		logger.Error("Worker needs a local snapshot", log.FieldError, err)
		os.Exit(1)
	}

	processorCfg := services.DefaultSyncProcessorConfig()
	processorCfg.PollInterval = cfg.SyncInterval
	processor := services.NewSyncProcessor(syncer, app.Caches, processorCfg, logger)

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Sync processor shutdown error", log.FieldError, err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", log.FieldError, err)
		os.Exit(1)
	}

	// Sync requests only arrive over AMQP; other event backends rely on the ticker.
	if client, ok := app.Publisher.(*amqp.Client); ok {
		syncWorker := worker.NewSyncWorker(syncer, logger)
		go func() {
			if err := client.Consume(ctx, syncWorker.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("Skipping AMQP message consumption - EVENTS_BACKEND is not amqp")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
