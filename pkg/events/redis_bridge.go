package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/models"
)

const (
	triggerStream = "clausewise:contract-triggers"
	changeStream  = "clausewise:contract-changes"
	consumerGroup = "clausewise-engine"

	// maxStreamLength bounds stream growth; old entries are trimmed
	// approximately once consumers have had ample time to read them.
	maxStreamLength = 10000
)

// RedisBridge is a Bridge backed by Redis Streams. Triggers are consumed
// through a consumer group so delivery survives engine restarts
// (at-least-once); change notifications are appended for external consumers.
type RedisBridge struct {
	client   *redis.Client
	consumer string
	logger   *zap.Logger
}

// NewRedisBridge creates a RedisBridge and ensures the consumer group exists.
// The consumer name must be unique per engine instance.
func NewRedisBridge(ctx context.Context, client *redis.Client, consumer string, logger *zap.Logger) (*RedisBridge, error) {
	err := client.XGroupCreateMkStream(ctx, triggerStream, consumerGroup, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &RedisBridge{
		client:   client,
		consumer: consumer,
		logger:   logger.Named("redis-bridge"),
	}, nil
}

var _ Bridge = (*RedisBridge)(nil)

func (b *RedisBridge) PublishTrigger(ctx context.Context, event *models.ContractCreatedEvent) error {
	return b.publish(ctx, triggerStream, event)
}

func (b *RedisBridge) PublishChange(ctx context.Context, event *models.ContractChangedEvent) error {
	return b.publish(ctx, changeStream, event)
}

func (b *RedisBridge) publish(ctx context.Context, stream string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxStreamLength,
		Approx: true,
		Values: map[string]any{"payload": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}

	return nil
}

// Receive blocks until the next trigger event arrives. The entry is acked
// before it is returned: the consume loop must not re-deliver a poison
// message, and a lost event is recovered by an operator re-trigger.
func (b *RedisBridge) Receive(ctx context.Context) (*models.ContractCreatedEvent, error) {
	for {
		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: b.consumer,
			Streams:  []string{triggerStream, ">"},
			Count:    1,
			Block:    0,
		}).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to read trigger stream: %w", err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				if ackErr := b.client.XAck(ctx, triggerStream, consumerGroup, msg.ID).Err(); ackErr != nil {
					b.logger.Warn("Failed to ack trigger message", zap.String("id", msg.ID), zap.Error(ackErr))
				}

				event, err := decodeTrigger(msg)
				if err != nil {
					b.logger.Warn("Discarding malformed trigger message", zap.String("id", msg.ID), zap.Error(err))
					continue
				}
				return event, nil
			}
		}
	}
}

func decodeTrigger(msg redis.XMessage) (*models.ContractCreatedEvent, error) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return nil, fmt.Errorf("message %s has no payload field", msg.ID)
	}

	var event models.ContractCreatedEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger event: %w", err)
	}
	return &event, nil
}

func isBusyGroup(err error) bool {
	// XGROUP CREATE returns BUSYGROUP when the group already exists.
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}
