package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/apperrors"
	"github.com/clausewise/clausewise-engine/pkg/events"
	"github.com/clausewise/clausewise-engine/pkg/models"
)

// TriggerConsumer is the explicit consume loop for contract-created
// notifications. Every received event is acknowledged regardless of handler
// outcome so a bad event can never become a poison message; duplicate
// deliveries are absorbed by the lifecycle's one-active-run invariant.
type TriggerConsumer struct {
	source      events.TriggerSource
	lifecycle   ExtractionLifecycle
	worker      *ExtractionWorker
	defaultMode models.ReviewMode
	slots       chan struct{}
	logger      *zap.Logger
}

// NewTriggerConsumer creates a TriggerConsumer processing up to workers runs
// concurrently.
func NewTriggerConsumer(source events.TriggerSource, lifecycle ExtractionLifecycle, worker *ExtractionWorker, defaultMode models.ReviewMode, workers int, logger *zap.Logger) *TriggerConsumer {
	if workers <= 0 {
		workers = 1
	}
	if !defaultMode.IsValid() {
		defaultMode = models.ModeStandard
	}
	return &TriggerConsumer{
		source:      source,
		lifecycle:   lifecycle,
		worker:      worker,
		defaultMode: defaultMode,
		slots:       make(chan struct{}, workers),
		logger:      logger.Named("trigger-consumer"),
	}
}

// Run consumes trigger events until the context is cancelled.
func (c *TriggerConsumer) Run(ctx context.Context) error {
	c.logger.Info("Trigger consumer started")
	for {
		event, err := c.source.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("Trigger consumer stopped")
				return nil
			}
			c.logger.Error("Failed to receive trigger event", zap.Error(err))
			continue
		}

		c.handle(ctx, event)
	}
}

func (c *TriggerConsumer) handle(ctx context.Context, event *models.ContractCreatedEvent) {
	// No attachment means nothing to extract: skip the trigger entirely, no
	// run and no audit entry, rather than starting a run doomed to fail.
	if !event.HasAttachment() {
		c.logger.Info("Skipping trigger for contract without attachment",
			zap.String("contract_id", event.ContractID.String()))
		return
	}

	mode := c.defaultMode
	if event.Mode != nil && event.Mode.IsValid() {
		mode = *event.Mode
	}

	actorCtx := models.WithSystemActor(ctx, event.RequestedBy)

	run, err := c.lifecycle.Trigger(actorCtx, event.ContractID, event.RequestedBy, mode)
	if err != nil {
		// A duplicate delivery while a run is active is a no-op success from
		// the delivery perspective.
		if errors.Is(err, apperrors.ErrAlreadyActive) {
			c.logger.Debug("Duplicate trigger for contract with active run",
				zap.String("contract_id", event.ContractID.String()))
			return
		}
		c.logger.Error("Failed to trigger extraction run",
			zap.String("contract_id", event.ContractID.String()),
			zap.Error(err))
		return
	}

	c.Dispatch(actorCtx, run)
}

// Dispatch hands a freshly triggered run to the worker pool. It blocks while
// all worker slots are busy, which backpressures the consume loop instead of
// piling up goroutines.
func (c *TriggerConsumer) Dispatch(ctx context.Context, run *models.ExtractionRun) {
	select {
	case c.slots <- struct{}{}:
	case <-ctx.Done():
		return
	}

	go func() {
		defer func() { <-c.slots }()
		if err := c.worker.ProcessRun(ctx, run.ID); err != nil {
			c.logger.Error("Run processing failed",
				zap.String("run_id", run.ID.String()),
				zap.Error(err))
		}
	}()
}
