package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/models"
)

// ChannelBridge is an in-process Bridge backed by bounded channels. It is the
// default in single-process deployments and in tests; multi-process
// deployments use the Redis bridge instead.
type ChannelBridge struct {
	triggers chan *models.ContractCreatedEvent

	mu      sync.Mutex
	changes []*models.ContractChangedEvent

	logger *zap.Logger
}

// maxRetainedChanges bounds the recorded change notifications; the oldest
// entries are dropped once the window is full.
const maxRetainedChanges = 256

// NewChannelBridge creates a ChannelBridge with the given trigger buffer size.
func NewChannelBridge(bufferSize int, logger *zap.Logger) *ChannelBridge {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &ChannelBridge{
		triggers: make(chan *models.ContractCreatedEvent, bufferSize),
		logger:   logger.Named("channel-bridge"),
	}
}

var _ Bridge = (*ChannelBridge)(nil)

func (b *ChannelBridge) PublishTrigger(ctx context.Context, event *models.ContractCreatedEvent) error {
	select {
	case b.triggers <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("trigger buffer full, dropping event for contract %s", event.ContractID)
	}
}

func (b *ChannelBridge) Receive(ctx context.Context) (*models.ContractCreatedEvent, error) {
	select {
	case event := <-b.triggers:
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PublishChange records the notification. In-process deployments have no
// external consumers; a bounded window of recent changes keeps the outbound
// surface observable for tests and debugging without growing forever.
func (b *ChannelBridge) PublishChange(ctx context.Context, event *models.ContractChangedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, event)
	if len(b.changes) > maxRetainedChanges {
		b.changes = b.changes[len(b.changes)-maxRetainedChanges:]
	}
	b.logger.Debug("contract change published",
		zap.String("kind", string(event.Kind)),
		zap.String("contract_id", event.ContractID.String()))
	return nil
}

// Changes returns a copy of the published change notifications.
func (b *ChannelBridge) Changes() []*models.ContractChangedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*models.ContractChangedEvent, len(b.changes))
	copy(out, b.changes)
	return out
}
