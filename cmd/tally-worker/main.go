package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tally/internal/cli"
	"tally/internal/log"
	"tally/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting tally-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	sources, err := cfg.Sources()
	if err != nil {
		logger.Error("Invalid import sources", log.FieldError, err)
		os.Exit(1)
	}

	app, err := cli.NewApp(context.Background(), logger, cfg, cli.RemoteSources)
	if err != nil {
		logger.Error("Failed to initialize application", log.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewImportWorker(app.Service, sources)

	var scheduler *worker.Scheduler
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if scheduler != nil {
			scheduler.Stop()
		}
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	})

	if cfg.ImportSchedule != "" {
		loc, _ := time.LoadLocation(cfg.ImportTimezone)
		scheduler, err = worker.NewScheduler(ctx, w, cfg.ImportSchedule, loc)
		if err != nil {
			logger.Error("Failed to create import scheduler", log.FieldError, err)
			os.Exit(1)
		}
		scheduler.Start()
		logger.Info("Import scheduler started",
			"schedule", cfg.ImportSchedule,
			"timezone", cfg.ImportTimezone,
			"sources", len(sources),
			"next", scheduler.Next().Format(time.RFC3339))
	} else {
		logger.Info("No IMPORT_SCHEDULE set, scheduled imports disabled")
	}

	if app.Events != nil {
		go func() {
			err := app.Events.ConsumeImportRequests(ctx, w.HandleImportRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Import request consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("No AMQP_URL set, import requests will not be consumed")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
