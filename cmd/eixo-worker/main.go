package main

import (
	"context"
	"os"
	"time"

	"eixo/internal/backend"
	"eixo/internal/cli"
	applog "eixo/internal/log"
	"eixo/internal/services"
	"eixo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting eixo-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.SheetsEnabled() {
		logger.Warn("Google Sheets export not configured, jobs will be written to the in-memory exporter")
	}

	backendCfg := backend.FromAppConfig(cfg)
	backendCfg.RequireAMQP = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	cancel()
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	exports := services.NewExportService(result.Repository, nil, result.Exporter, cfg.Location(), logger)
	exportWorker := worker.NewExportWorker(exports, logger)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		processed, failed := exportWorker.Stats()
		logger.Info("Export worker stopping", "processed", processed, "failed", failed)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- exportWorker.Run(runCtx, result.AMQP)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Export job consumption failed", "error", err)
			if cleanupErr := result.Cleanup(); cleanupErr != nil {
				logger.Error("Backend cleanup error", "error", cleanupErr)
			}
			os.Exit(1)
		}
	case <-runCtx.Done():
		<-errCh
	}

	cli.WaitForShutdown(runCtx, done)
	if err := result.Cleanup(); err != nil {
		logger.Error("Backend cleanup error", "error", err)
	}
	logger.Info("eixo-worker stopped")
}
