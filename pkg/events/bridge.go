// Package events carries contract notifications between the engine and its
// collaborators. Delivery is at-least-once on both directions; consumers must
// be idempotent.
package events

import (
	"context"

	"github.com/clausewise/clausewise-engine/pkg/models"
)

// TriggerSource delivers inbound contract-created notifications to the
// extraction trigger path.
type TriggerSource interface {
	// Receive blocks until the next event arrives or the context is done.
	Receive(ctx context.Context) (*models.ContractCreatedEvent, error)
}

// TriggerPublisher emits contract-created notifications. The contract service
// publishes one per created contract.
type TriggerPublisher interface {
	PublishTrigger(ctx context.Context, event *models.ContractCreatedEvent) error
}

// ChangePublisher emits outbound contract change notifications for other
// collaborators.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event *models.ContractChangedEvent) error
}

// Bridge is the full event surface the engine is wired against.
type Bridge interface {
	TriggerSource
	TriggerPublisher
	ChangePublisher
}
