package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/apperrors"
	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/repositories"
)

// ExtractionLifecycle drives one clause review run per contract from trigger
// to terminal outcome. At most one run may be pending or in progress per
// contract; the check and creation are a single atomic insert in the run
// repository, so duplicate trigger deliveries fail with ErrAlreadyActive
// instead of starting a second run.
type ExtractionLifecycle interface {
	// Trigger creates a new pending run for the contract and emits a Started
	// audit entry. Fails with apperrors.ErrAlreadyActive when a run is
	// already pending or in progress for the contract, and with
	// apperrors.ErrNoAttachment when the contract has no document to review.
	Trigger(ctx context.Context, contractID, requestedBy uuid.UUID, mode models.ReviewMode) (*models.ExtractionRun, error)

	// Begin moves a pending run to in_progress. At this transition the rule
	// catalog is read once and the applicable rule ids are frozen into the
	// run's snapshot; later catalog edits never affect this run.
	Begin(ctx context.Context, runID uuid.UUID) (*models.ExtractionRun, error)

	// Complete moves an in_progress run to succeeded and emits a Succeeded
	// audit entry with the elapsed duration.
	Complete(ctx context.Context, runID uuid.UUID, outcomeSummary string) error

	// Fail moves an in_progress run to failed, recording the error message,
	// and emits a Failed audit entry. A downstream extraction failure is a
	// normal terminal outcome, not a system fault.
	Fail(ctx context.Context, runID uuid.UUID, errorMessage string) error

	// GetRun returns a run by id.
	GetRun(ctx context.Context, runID uuid.UUID) (*models.ExtractionRun, error)

	// ListRuns returns a contract's runs, newest first.
	ListRuns(ctx context.Context, contractID uuid.UUID) ([]*models.ExtractionRun, error)
}

type extractionLifecycle struct {
	runRepo      repositories.ExtractionRunRepository
	contractRepo repositories.ContractRepository
	ruleRepo     repositories.ReviewRuleRepository
	selector     RuleSelector
	trail        AuditTrail
	defaultMode  models.ReviewMode
	logger       *zap.Logger
}

// ExtractionLifecycleDeps contains dependencies for the lifecycle service.
type ExtractionLifecycleDeps struct {
	RunRepo      repositories.ExtractionRunRepository
	ContractRepo repositories.ContractRepository
	RuleRepo     repositories.ReviewRuleRepository
	Selector     RuleSelector // Optional: defaults to NewRuleSelector() if nil
	Trail        AuditTrail
	DefaultMode  models.ReviewMode
	Logger       *zap.Logger
}

// NewExtractionLifecycle creates a new ExtractionLifecycle.
func NewExtractionLifecycle(deps *ExtractionLifecycleDeps) ExtractionLifecycle {
	selector := deps.Selector
	if selector == nil {
		selector = NewRuleSelector()
	}
	defaultMode := deps.DefaultMode
	if !defaultMode.IsValid() {
		defaultMode = models.ModeStandard
	}
	return &extractionLifecycle{
		runRepo:      deps.RunRepo,
		contractRepo: deps.ContractRepo,
		ruleRepo:     deps.RuleRepo,
		selector:     selector,
		trail:        deps.Trail,
		defaultMode:  defaultMode,
		logger:       deps.Logger.Named("extraction-lifecycle"),
	}
}

var _ ExtractionLifecycle = (*extractionLifecycle)(nil)

func (l *extractionLifecycle) Trigger(ctx context.Context, contractID, requestedBy uuid.UUID, mode models.ReviewMode) (*models.ExtractionRun, error) {
	contract, err := l.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("load contract for trigger: %w", err)
	}

	// The event consumer skips attachment-less contracts before it gets here;
	// this rejects the manual API path, which has no earlier check.
	if !contract.HasAttachment() {
		return nil, fmt.Errorf("trigger contract %s: %w", contractID, apperrors.ErrNoAttachment)
	}

	if !mode.IsValid() {
		mode = l.defaultMode
	}

	run := &models.ExtractionRun{
		ID:           uuid.New(),
		ContractID:   contractID,
		RequestedBy:  requestedBy,
		Status:       models.RunStatusPending,
		ContractType: contract.ContractType,
		Mode:         mode,
		StartedAt:    time.Now(),
	}

	if err := l.runRepo.CreateIfNoneActive(ctx, run); err != nil {
		return nil, err
	}

	l.logger.Info("Extraction run triggered",
		zap.String("run_id", run.ID.String()),
		zap.String("contract_id", contractID.String()),
		zap.String("mode", string(mode)))

	actorID, actorSource := auditActor(ctx, requestedBy)
	l.appendEntry(ctx, &models.AuditEntry{
		RunID:       run.ID,
		ContractID:  contractID,
		Transition:  models.TransitionStarted,
		ActorID:     actorID,
		ActorSource: actorSource,
		OccurredAt:  run.StartedAt,
	})

	return run, nil
}

func (l *extractionLifecycle) Begin(ctx context.Context, runID uuid.UUID) (*models.ExtractionRun, error) {
	run, err := l.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	if !run.Status.CanTransitionTo(models.RunStatusInProgress) {
		return nil, fmt.Errorf("begin run %s in status %s: %w", runID, run.Status, apperrors.ErrInvalidTransition)
	}

	// The catalog is read exactly once here; the resulting snapshot makes the
	// run's outcome explainable even if rules are edited mid-flight.
	catalog, err := l.ruleRepo.ListEnabledForMode(ctx, run.Mode)
	if err != nil {
		return nil, fmt.Errorf("load rule catalog: %w", err)
	}

	applicable := l.selector.SelectForContract(catalog, run.ContractType, run.Mode)
	snapshot := make([]uuid.UUID, len(applicable))
	for i, rule := range applicable {
		snapshot[i] = rule.ID
	}

	run.Status = models.RunStatusInProgress
	run.RuleSnapshot = snapshot

	if err := l.runRepo.Update(ctx, run); err != nil {
		return nil, err
	}

	l.logger.Info("Extraction run begun",
		zap.String("run_id", runID.String()),
		zap.Int("snapshot_size", len(snapshot)))

	return run, nil
}

func (l *extractionLifecycle) Complete(ctx context.Context, runID uuid.UUID, outcomeSummary string) error {
	run, err := l.terminate(ctx, runID, models.RunStatusSucceeded, nil)
	if err != nil {
		return err
	}

	durationMs := run.Duration().Milliseconds()
	var summary *string
	if outcomeSummary != "" {
		summary = &outcomeSummary
	}

	actorID, actorSource := auditActor(ctx, run.RequestedBy)
	l.appendEntry(ctx, &models.AuditEntry{
		RunID:       run.ID,
		ContractID:  run.ContractID,
		Transition:  models.TransitionSucceeded,
		Summary:     summary,
		ActorID:     actorID,
		ActorSource: actorSource,
		OccurredAt:  *run.CompletedAt,
		DurationMs:  &durationMs,
	})

	return nil
}

func (l *extractionLifecycle) Fail(ctx context.Context, runID uuid.UUID, errorMessage string) error {
	run, err := l.terminate(ctx, runID, models.RunStatusFailed, &errorMessage)
	if err != nil {
		return err
	}

	durationMs := run.Duration().Milliseconds()

	actorID, actorSource := auditActor(ctx, run.RequestedBy)
	l.appendEntry(ctx, &models.AuditEntry{
		RunID:       run.ID,
		ContractID:  run.ContractID,
		Transition:  models.TransitionFailed,
		Summary:     &errorMessage,
		ActorID:     actorID,
		ActorSource: actorSource,
		OccurredAt:  *run.CompletedAt,
		DurationMs:  &durationMs,
	})

	return nil
}

// terminate performs the shared terminal transition. The run is loaded,
// checked and updated; no field changes if the transition is invalid.
func (l *extractionLifecycle) terminate(ctx context.Context, runID uuid.UUID, target models.RunStatus, errorMessage *string) (*models.ExtractionRun, error) {
	run, err := l.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	if !run.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("transition run %s from %s to %s: %w", runID, run.Status, target, apperrors.ErrInvalidTransition)
	}

	now := time.Now()
	run.Status = target
	run.ErrorMessage = errorMessage
	run.CompletedAt = &now

	if err := l.runRepo.Update(ctx, run); err != nil {
		return nil, err
	}

	l.logger.Info("Extraction run completed",
		zap.String("run_id", runID.String()),
		zap.String("status", string(target)))

	return run, nil
}

func (l *extractionLifecycle) GetRun(ctx context.Context, runID uuid.UUID) (*models.ExtractionRun, error) {
	return l.runRepo.GetByID(ctx, runID)
}

func (l *extractionLifecycle) ListRuns(ctx context.Context, contractID uuid.UUID) ([]*models.ExtractionRun, error) {
	return l.runRepo.ListByContract(ctx, contractID)
}

// auditActor resolves who a transition is attributed to and how it reached
// the engine. Provenance attached at the entry point wins; without it the
// entry falls back to the run's requester with a system source.
func auditActor(ctx context.Context, requestedBy uuid.UUID) (uuid.UUID, models.ActorSource) {
	actor, ok := models.GetActor(ctx)
	if !ok || !actor.Source.IsValid() {
		return requestedBy, models.SourceSystem
	}
	if actor.UserID == uuid.Nil {
		return requestedBy, actor.Source
	}
	return actor.UserID, actor.Source
}

// appendEntry writes an audit entry best-effort. A failed append must never
// abort or roll back the transition it documents, and is never retried
// synchronously on the delivery path.
func (l *extractionLifecycle) appendEntry(ctx context.Context, entry *models.AuditEntry) {
	if err := l.trail.Append(ctx, entry); err != nil {
		l.logger.Warn("Failed to append audit entry",
			zap.String("run_id", entry.RunID.String()),
			zap.String("transition", string(entry.Transition)),
			zap.Error(err))
	}
}
