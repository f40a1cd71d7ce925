package models

import (
	"time"

	"github.com/google/uuid"
)

// TransitionKind identifies which lifecycle transition an audit entry documents.
type TransitionKind string

const (
	TransitionStarted   TransitionKind = "started"
	TransitionSucceeded TransitionKind = "succeeded"
	TransitionFailed    TransitionKind = "failed"
)

// AuditEntry is an immutable record of one extraction lifecycle transition.
// Entries are append-only; the engine never updates or deletes them.
type AuditEntry struct {
	ID          uuid.UUID      `json:"id"`
	RunID       uuid.UUID      `json:"run_id"`
	ContractID  uuid.UUID      `json:"contract_id"`
	Transition  TransitionKind `json:"transition"`
	Summary     *string        `json:"summary,omitempty"` // result or error summary
	ActorID     uuid.UUID      `json:"actor_id"`
	ActorSource ActorSource    `json:"actor_source"`
	OccurredAt  time.Time      `json:"occurred_at"`
	DurationMs  *int64         `json:"duration_ms,omitempty"` // terminal transitions only
}
