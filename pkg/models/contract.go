package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractStatus represents where a contract sits in its own lifecycle.
type ContractStatus string

const (
	ContractStatusDraft       ContractStatus = "draft"
	ContractStatusUnderReview ContractStatus = "under_review"
	ContractStatusActive      ContractStatus = "active"
	ContractStatusTerminated  ContractStatus = "terminated"
)

// ValidContractStatuses contains all valid contract status values.
var ValidContractStatuses = []ContractStatus{
	ContractStatusDraft,
	ContractStatusUnderReview,
	ContractStatusActive,
	ContractStatusTerminated,
}

// IsValidContractStatus checks if the given status is valid.
func IsValidContractStatus(s ContractStatus) bool {
	for _, v := range ValidContractStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Contract represents a managed contract. The attachment id points at the
// uploaded document in the external document store; clause extraction is only
// possible when it is present.
type Contract struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	ContractType string         `json:"contract_type"`
	AttachmentID *string        `json:"attachment_id,omitempty"`
	Status       ContractStatus `json:"status"`
	CreatedBy    uuid.UUID      `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// HasAttachment returns true if the contract carries a reviewable document.
func (c *Contract) HasAttachment() bool {
	return c.AttachmentID != nil && *c.AttachmentID != ""
}
