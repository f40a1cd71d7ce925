//go:build integration

package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/testhelpers"
)

func newTestRedisBridge(t *testing.T) (*RedisBridge, *redis.Client) {
	t.Helper()

	client := testhelpers.GetEngineRedis(t).Client
	require.NoError(t, client.FlushDB(context.Background()).Err())

	bridge, err := NewRedisBridge(context.Background(), client, "test-consumer", zap.NewNop())
	require.NoError(t, err)
	return bridge, client
}

func TestRedisBridge_PublishReceiveRoundTrip(t *testing.T) {
	bridge, _ := newTestRedisBridge(t)
	ctx := context.Background()

	sent := triggerEvent()
	require.NoError(t, bridge.PublishTrigger(ctx, sent))

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	got, err := bridge.Receive(recvCtx)
	require.NoError(t, err)
	assert.Equal(t, sent.ContractID, got.ContractID)
	assert.Equal(t, sent.ContractType, got.ContractType)
	require.NotNil(t, got.AttachmentID)
	assert.Equal(t, *sent.AttachmentID, *got.AttachmentID)
}

func TestRedisBridge_MalformedEntriesAckedAndSkipped(t *testing.T) {
	bridge, client := newTestRedisBridge(t)
	ctx := context.Background()

	// Two broken entries ahead of a valid one: no payload field at all, and a
	// payload that is not JSON.
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: triggerStream,
		Values: map[string]any{"other": "x"},
	}).Err())
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: triggerStream,
		Values: map[string]any{"payload": "{not json"},
	}).Err())

	sent := triggerEvent()
	require.NoError(t, bridge.PublishTrigger(ctx, sent))

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	got, err := bridge.Receive(recvCtx)
	require.NoError(t, err)
	assert.Equal(t, sent.ContractID, got.ContractID)

	// Every delivered entry was acked, the broken ones included, so nothing
	// is pending for redelivery and nothing can wedge the consumer.
	pending, err := client.XPending(ctx, triggerStream, consumerGroup).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)

	// The valid event is delivered exactly once; a second read finds the
	// stream drained and times out.
	drainCtx, cancelDrain := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancelDrain()
	drained, err := bridge.Receive(drainCtx)
	assert.Error(t, err)
	assert.Nil(t, drained)
}

func TestRedisBridge_PublishChange(t *testing.T) {
	bridge, client := newTestRedisBridge(t)
	ctx := context.Background()

	from := models.ContractStatusDraft
	to := models.ContractStatusActive
	require.NoError(t, bridge.PublishChange(ctx, &models.ContractChangedEvent{
		Kind:       models.ChangeKindStatusChanged,
		ContractID: uuid.New(),
		OccurredAt: time.Now(),
		OldStatus:  &from,
		NewStatus:  &to,
	}))

	length, err := client.XLen(ctx, changeStream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
}
