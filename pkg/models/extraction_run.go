package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the state of an extraction run.
// State machine:
//
//	pending → in_progress → succeeded
//	                 ↓
//	               failed
//
// succeeded and failed are terminal.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusSucceeded  RunStatus = "succeeded"
	RunStatusFailed     RunStatus = "failed"
)

// ValidRunStatuses contains all valid status values.
var ValidRunStatuses = []RunStatus{
	RunStatusPending,
	RunStatusInProgress,
	RunStatusSucceeded,
	RunStatusFailed,
}

// IsValidRunStatus checks if the given status is valid.
func IsValidRunStatus(s RunStatus) bool {
	for _, v := range ValidRunStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed
}

// IsActive returns true if a run in this status still counts against the
// one-active-run-per-contract invariant.
func (s RunStatus) IsActive() bool {
	return s == RunStatusPending || s == RunStatusInProgress
}

// CanTransitionTo returns true if transitioning from this status to the target is valid.
func (s RunStatus) CanTransitionTo(target RunStatus) bool {
	switch s {
	case RunStatusPending:
		return target == RunStatusInProgress
	case RunStatusInProgress:
		return target == RunStatusSucceeded || target == RunStatusFailed
	case RunStatusSucceeded, RunStatusFailed:
		return false
	default:
		return false
	}
}

// ExtractionRun tracks one clause review/extraction run for one contract,
// from trigger to terminal outcome. Runs are retained after completion for
// the audit trail; the engine never deletes them.
type ExtractionRun struct {
	ID           uuid.UUID   `json:"id"`
	ContractID   uuid.UUID   `json:"contract_id"`
	RequestedBy  uuid.UUID   `json:"requested_by"`
	Status       RunStatus   `json:"status"`
	ContractType string      `json:"contract_type"`
	Mode         ReviewMode  `json:"mode"`
	RuleSnapshot []uuid.UUID `json:"rule_snapshot,omitempty"`
	ErrorMessage *string     `json:"error_message,omitempty"`
	StartedAt    time.Time   `json:"started_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// Duration returns the elapsed time from start to completion, or zero if the
// run has not reached a terminal state.
func (r *ExtractionRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
