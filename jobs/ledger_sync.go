package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/integration"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/links"
	"github.com/meridian-erp/meridian-erp/internal/records"
)

// LedgerSyncJob runs the full posting pass across every source kind.
type LedgerSyncJob struct {
	Engine   *integration.Engine
	Resolver *links.Resolver
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewLedgerSyncJob initialises the sync handler.
func NewLedgerSyncJob(engine *integration.Engine, resolver *links.Resolver, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerSyncJob {
	return &LedgerSyncJob{Engine: engine, Resolver: resolver, Logger: logger, Metrics: metrics}
}

// Handle executes the sync logic.
func (j *LedgerSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Engine == nil {
		return errors.New("ledger sync: handler not configured")
	}
	var payload LedgerSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := time.Now()
	tracker := j.metrics().Track(TaskLedgerSync)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting ledger sync", slog.Bool("resolve_links", payload.ResolveLinks))

	if payload.ResolveLinks && j.Resolver != nil {
		for _, kind := range records.Kinds() {
			if _, err := j.Resolver.ResolveLinks(ctx, kind); err != nil {
				resultErr = err
				logger.Error("link resolution failed", slog.String("kind", string(kind)), slog.Any("error", err))
				return resultErr
			}
		}
	}

	results, err := j.Engine.SyncAll(ctx)
	if err != nil {
		resultErr = err
		logger.Error("sync failed", slog.Any("error", err))
		return resultErr
	}

	var posted, skipped int
	for kind, result := range results {
		posted += result.Posted
		skipped += result.Skipped
		for _, issue := range result.Issues {
			logger.Warn("posting issue", slog.String("kind", string(kind)), slog.String("issue", issue))
		}
	}
	logger.Info("completed ledger sync",
		slog.Int("posted", posted),
		slog.Int("skipped", skipped),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *LedgerSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *LedgerSyncJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
