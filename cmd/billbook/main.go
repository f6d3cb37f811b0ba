package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"billbook/internal/auth"
	"billbook/internal/backend"
	"billbook/internal/cli"
	"billbook/internal/core"
	apphttp "billbook/internal/http"
	applog "billbook/internal/log"
	"billbook/internal/metrics"
	"billbook/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	ctx := context.Background()

	m := metrics.New(prometheus.DefaultRegisterer)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	factory := backend.NewFactory(slog.Default(), m)
	res, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend",
			applog.FieldError, err,
			"backend", backendCfg.Type.String())
		os.Exit(1)
	}

	reports, cacheCleanup, err := backend.NewReportCache(ctx, backendCfg, slog.Default())
	if err != nil {
		logger.Error("Failed to initialize report cache",
			applog.FieldError, err,
			"cache_backend", string(backendCfg.CacheBackend))
		_ = res.Cleanup()
		os.Exit(1)
	}

	billService := services.NewBillService(res.Store, res.Publisher, reports, m)

	// Without a broker the server exports pending bills itself.
	var syncProcessor *services.SyncProcessor
	if res.Publisher == nil && backendCfg.LedgerEnabled() {
		ledger, err := backend.NewLedger(ctx, backendCfg, slog.Default())
		if err != nil {
			logger.Warn("Ledger unavailable, bills will stay pending",
				applog.FieldError, err)
		} else {
			exporter := services.NewLedgerExporter(res.Store, ledger, m)
			syncProcessor = services.NewSyncProcessor(exporter, services.SyncProcessorConfig{
				PollInterval: cfg.SyncInterval,
				BatchSize:    cfg.SyncBatchSize,
				MaxRetries:   cfg.SyncMaxRetries,
			})
			if err := syncProcessor.Start(ctx); err != nil {
				logger.Error("Failed to start sync processor", applog.FieldError, err)
				syncProcessor = nil
			}
		}
	}

	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	}
	if cfg.AuthDevUser != "" {
		logger.Warn("Development user enabled, requests without a token act as this user",
			applog.FieldUserID, cfg.AuthDevUser)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:              res.Store,
		Bills:              billService,
		Clients:            services.NewClientService(res.Store),
		Reports:            services.NewReportService(res.Store, reports, m),
		Auth:               auth.NewAuthenticator(jwtManager, cfg.AuthDevUser),
		Metrics:            m,
		Gatherer:           prometheus.DefaultGatherer,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
		Formatter:          core.NewFormatter(cfg.Locale),
		PublicURL:          cfg.PublicURL,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if syncProcessor != nil {
			if err := syncProcessor.Stop(ctx); err != nil {
				logger.Error("Sync processor shutdown error", applog.FieldError, err)
			}
		}
		billService.Close()
		if err := cacheCleanup(); err != nil {
			logger.Error("Report cache shutdown error", applog.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting billbook server",
		"port", cfg.Port,
		"backend", backendCfg.Type.String(),
		"cache_backend", string(backendCfg.CacheBackend),
		"events", res.Publisher != nil,
		"ledger", backendCfg.LedgerEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
