package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/alerts"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerSync runs a posting pass over every source kind.
	TaskLedgerSync = "ledger:sync"
	// TaskIntegrityAudit scans the ledger for dangling references.
	TaskIntegrityAudit = "ledger:integrity"
	// TaskAlertScan recomputes threshold alerts.
	TaskAlertScan = "alerts:scan"
)

// LedgerSyncPayload configures a sync pass.
type LedgerSyncPayload struct {
	// ResolveLinks runs the cross-link resolver before posting.
	ResolveLinks bool `json:"resolveLinks"`
}

// NewLedgerSyncTask constructs the sync task.
func NewLedgerSyncTask(payload LedgerSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerSync, data), nil
}

// IntegrityAuditPayload configures an integrity pass.
type IntegrityAuditPayload struct {
	// Repair deletes dangling ledger entries instead of only reporting them.
	Repair bool `json:"repair"`
}

// NewIntegrityAuditTask constructs the integrity task.
func NewIntegrityAuditTask(payload IntegrityAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntegrityAudit, data), nil
}

// AlertScanPayload carries the scan thresholds; zero values fall back to the
// defaults.
type AlertScanPayload struct {
	Rules alerts.Rules `json:"rules"`
}

// NewAlertScanTask constructs the alert scan task.
func NewAlertScanTask(payload AlertScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAlertScan, data), nil
}
