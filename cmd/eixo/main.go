package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"eixo/internal/backend"
	"eixo/internal/cache"
	"eixo/internal/cli"
	"eixo/internal/finance"
	apphttp "eixo/internal/http"
	applog "eixo/internal/log"
	"eixo/internal/services"
	"eixo/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	quotaWindow, err := finance.ParseQuotaWindow(cfg.AffordabilityQuotaWindow)
	if err != nil {
		logger.Error("Invalid quota window", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backend.FromAppConfig(cfg))
	cancel()
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	sessions := session.NewStore(cfg.SessionMaxEntries, cfg.SessionTTL)
	sessions.Register(cacheManager)

	accounts := services.NewAccountService(result.Repository, sessions, logger)
	financeSvc := services.NewFinanceService(result.Repository, services.FinanceOptions{
		QuotaWindow: quotaWindow,
		Location:    cfg.Location(),
		CacheSize:   500,
		Logger:      logger,
	})
	financeSvc.RegisterCaches(cacheManager)
	cacheManager.StartCleanup(10 * time.Minute)

	// A nil *amqp.Client must not become a non-nil interface.
	var publisher services.JobPublisher
	if result.AMQP != nil {
		publisher = result.AMQP
	}
	exports := services.NewExportService(result.Repository, publisher, result.Exporter, cfg.Location(), logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:         ":" + cfg.Port,
		Accounts:     accounts,
		Finance:      financeSvc,
		Exports:      exports,
		Storage:      result.Repository,
		Logger:       logger,
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
	})
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting eixo server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", result.AMQP != nil,
		"sheets_export", cfg.SheetsEnabled(),
		"quota_window", string(quotaWindow))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
