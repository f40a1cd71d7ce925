package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractCreatedEvent is the inbound notification that triggers an
// extraction run. Delivery is at-least-once with no ordering guarantee, so
// consumers must tolerate duplicates.
type ContractCreatedEvent struct {
	ContractID   uuid.UUID   `json:"contract_id"`
	ContractName string      `json:"contract_name"`
	ContractType string      `json:"contract_type"`
	AttachmentID *string     `json:"attachment_id,omitempty"`
	RequestedBy  uuid.UUID   `json:"requested_by"`
	Mode         *ReviewMode `json:"mode,omitempty"` // requested strictness; engine default when absent
	OccurredAt   time.Time   `json:"occurred_at"`
}

// HasAttachment returns true if the event references a reviewable document.
// Events without one must not start a run.
func (e *ContractCreatedEvent) HasAttachment() bool {
	return e.AttachmentID != nil && *e.AttachmentID != ""
}

// ChangeKind identifies an outbound contract change notification.
type ChangeKind string

const (
	ChangeKindCreated       ChangeKind = "created"
	ChangeKindUpdated       ChangeKind = "updated"
	ChangeKindDeleted       ChangeKind = "deleted"
	ChangeKindStatusChanged ChangeKind = "status_changed"
)

// ContractChangedEvent is the outbound notification published for other
// collaborators on every contract lifecycle event. Delivery is at-least-once;
// consumers must be idempotent.
type ContractChangedEvent struct {
	Kind       ChangeKind      `json:"kind"`
	ContractID uuid.UUID       `json:"contract_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	OldStatus  *ContractStatus `json:"old_status,omitempty"` // status_changed only
	NewStatus  *ContractStatus `json:"new_status,omitempty"` // status_changed only
}
