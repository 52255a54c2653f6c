package domain

import (
	"encoding/json"
	"time"
)

// RunKind classifies a persisted run record.
type RunKind string

const (
	RunBulkClone RunKind = "bulk_clone"
	RunRbacSetup RunKind = "rbac_setup"
)

// RunRecord is the persisted summary of one finished run. Payload carries the
// full report (BulkRunReport or RbacSetupResult) as JSON for detail views.
type RunRecord struct {
	ID         string    `json:"id"`
	Kind       RunKind   `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Success    bool      `json:"success"`
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Payload    []byte    `json:"payload,omitempty"`
}

// NewBulkRunRecord converts a finished bulk clone report into its persisted
// form.
func NewBulkRunRecord(report *BulkRunReport) RunRecord {
	payload, _ := json.Marshal(report)
	return RunRecord{
		ID:         report.OperationID,
		Kind:       RunBulkClone,
		StartedAt:  report.StartTime,
		FinishedAt: report.EndTime,
		Success:    report.Summary.Failed == 0,
		Total:      report.Summary.Total,
		Successful: report.Summary.Successful,
		Failed:     report.Summary.Failed,
		Payload:    payload,
	}
}

// NewRbacRunRecord converts a finished provisioning result into its persisted
// form. Totals count phases; the result's Timestamp marks the run start.
func NewRbacRunRecord(result *RbacSetupResult, finished time.Time) RunRecord {
	payload, _ := json.Marshal(result)
	total := 4
	if result.Phases.UserAssignments != nil {
		total = 5
	}
	failed := len(result.FailedPhases)
	return RunRecord{
		ID:         NewOperationID("rbac_setup", result.Timestamp),
		Kind:       RunRbacSetup,
		StartedAt:  result.Timestamp,
		FinishedAt: finished,
		Success:    result.OverallSuccess,
		Total:      total,
		Successful: total - failed,
		Failed:     failed,
		Payload:    payload,
	}
}
