package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/alerts"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/audit"
	"github.com/meridian-erp/meridian-erp/internal/integration"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/links"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/parties"
	"github.com/meridian-erp/meridian-erp/internal/platform/kv"
	"github.com/meridian-erp/meridian-erp/internal/records"
	"github.com/meridian-erp/meridian-erp/internal/reports"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", slog.String("backend", cfg.StoreBackend), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	sources := records.NewStore(store)
	led := ledger.NewStore(store)
	inv := inventory.NewService(store)
	owners := parties.NewStore(store)
	employees := parties.NewService(owners, sources)

	engine := integration.NewEngine(sources, led, inv, employees, logger)
	resolver := links.NewResolver(sources, owners, logger)
	auditor := audit.NewAuditor(sources, owners, led, logger)
	scanner := alerts.NewScanner(sources, inv, logger)
	aggregator := reports.NewAggregator(led, sources)

	metrics := observability.NewMetrics()

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Sync:    integration.NewHandler(logger, engine).WithMetrics(metrics).WithQueue(queue),
		Links:   links.NewHandler(logger, resolver),
		Audit:   audit.NewHandler(logger, auditor, employees),
		Alerts:  alerts.NewHandler(logger, scanner, cfg.AlertRules()),
		Reports: reports.NewHandler(logger, aggregator),
		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func openStore(ctx context.Context, cfg *app.Config) (kv.Store, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		store, err := kv.NewPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := kv.NewRedis(ctx, cfg.RedisAddr, cfg.KeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}
