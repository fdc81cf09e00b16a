package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/alerts"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/audit"
	"github.com/meridian-erp/meridian-erp/internal/integration"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/links"
	"github.com/meridian-erp/meridian-erp/internal/parties"
	"github.com/meridian-erp/meridian-erp/internal/platform/kv"
	"github.com/meridian-erp/meridian-erp/internal/records"
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

	var store kv.Store
	switch cfg.StoreBackend {
	case "postgres":
		pgStore, err := kv.NewPostgres(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pgStore.Close()
		store = pgStore
	default:
		redisStore, err := kv.NewRedis(ctx, cfg.RedisAddr, cfg.KeyPrefix)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		store = redisStore
	}

	sources := records.NewStore(store)
	led := ledger.NewStore(store)
	inv := inventory.NewService(store)
	owners := parties.NewStore(store)
	employees := parties.NewService(owners, sources)

	engine := integration.NewEngine(sources, led, inv, employees, logger)
	resolver := links.NewResolver(sources, owners, logger)
	auditor := audit.NewAuditor(sources, owners, led, logger)
	scanner := alerts.NewScanner(sources, inv, logger)

	metrics := jobmetrics.NewMetrics(nil)

	syncJob := jobs.NewLedgerSyncJob(engine, resolver, logger, metrics)
	auditJob := jobs.NewIntegrityAuditJob(auditor, logger, metrics)
	scanJob := jobs.NewAlertScanJob(scanner, logger, metrics)

	syncTask, err := jobs.NewLedgerSyncTask(jobs.LedgerSyncPayload{ResolveLinks: true})
	if err != nil {
		logger.Error("build sync task", slog.Any("error", err))
		os.Exit(1)
	}
	auditTask, err := jobs.NewIntegrityAuditTask(jobs.IntegrityAuditPayload{})
	if err != nil {
		logger.Error("build audit task", slog.Any("error", err))
		os.Exit(1)
	}
	scanTask, err := jobs.NewAlertScanTask(jobs.AlertScanPayload{Rules: cfg.AlertRules()})
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerSync, Handler: syncJob.Handle},
			{Type: jobs.TaskIntegrityAudit, Handler: auditJob.Handle},
			{Type: jobs.TaskAlertScan, Handler: scanJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: syncTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * *", Task: auditTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 2 * * *", Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
