package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/alerts"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
)

// AlertScanJob runs the operational threshold scan and reports findings
// through logs and metrics.
type AlertScanJob struct {
	Scanner *alerts.Scanner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAlertScanJob initialises the alert scan handler.
func NewAlertScanJob(scanner *alerts.Scanner, logger *slog.Logger, metrics *jobmetrics.Metrics) *AlertScanJob {
	return &AlertScanJob{Scanner: scanner, Logger: logger, Metrics: metrics}
}

// Handle executes a single scan pass.
func (j *AlertScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Scanner == nil {
		return errors.New("alert scan: handler not configured")
	}
	var payload AlertScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	rules := withRuleDefaults(payload.Rules)

	start := time.Now()
	tracker := j.Metrics.Track(TaskAlertScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting alert scan")

	found, err := j.Scanner.Scan(ctx, rules)
	if err != nil {
		resultErr = err
		logger.Error("alert scan failed", slog.Any("error", err))
		return resultErr
	}

	bySeverity := map[alerts.Severity]int{}
	for _, alert := range found {
		bySeverity[alert.Severity]++
		logger.Warn("alert raised",
			slog.String("alert_kind", alert.Kind),
			slog.String("severity", string(alert.Severity)),
			slog.String("message", alert.Message),
		)
	}
	for severity, count := range bySeverity {
		j.Metrics.AddAlerts(string(severity), count)
	}

	logger.Info("completed alert scan",
		slog.Int("alerts", len(found)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *AlertScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// withRuleDefaults fills zero-valued thresholds so a partial payload still
// produces a valid rule set.
func withRuleDefaults(rules alerts.Rules) alerts.Rules {
	defaults := alerts.DefaultRules()
	if rules.StalePendingHours <= 0 {
		rules.StalePendingHours = defaults.StalePendingHours
	}
	if rules.DailyReturnVolumeMax <= 0 {
		rules.DailyReturnVolumeMax = defaults.DailyReturnVolumeMax
	}
	if rules.ProductReturnedQtyMax <= 0 {
		rules.ProductReturnedQtyMax = defaults.ProductReturnedQtyMax
	}
	if rules.ExpenseSpikeFactor <= 0 {
		rules.ExpenseSpikeFactor = defaults.ExpenseSpikeFactor
	}
	return rules
}
