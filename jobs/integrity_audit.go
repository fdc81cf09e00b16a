package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/audit"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
)

// IntegrityAuditJob scans the ledger for dangling references and rollup
// mismatches.
type IntegrityAuditJob struct {
	Auditor *audit.Auditor
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewIntegrityAuditJob initialises the integrity handler.
func NewIntegrityAuditJob(auditor *audit.Auditor, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityAuditJob {
	return &IntegrityAuditJob{Auditor: auditor, Logger: logger, Metrics: metrics}
}

// Handle executes the integrity pass.
func (j *IntegrityAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Auditor == nil {
		return errors.New("integrity audit: handler not configured")
	}
	var payload IntegrityAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := time.Now()
	tracker := j.Metrics.Track(TaskIntegrityAudit)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Bool("repair", payload.Repair))
	logger.Info("starting integrity audit")

	var report audit.Report
	var err error
	if payload.Repair {
		report, err = j.Auditor.Repair(ctx)
	} else {
		report, err = j.Auditor.Audit(ctx)
	}
	if err != nil {
		resultErr = err
		logger.Error("integrity audit failed", slog.Any("error", err))
		return resultErr
	}

	for _, issue := range report.Issues {
		logger.Warn("integrity issue", slog.String("issue", issue))
	}
	logger.Info("completed integrity audit",
		slog.Int("issues", len(report.Issues)),
		slog.Int("fixed", report.Fixed),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *IntegrityAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
