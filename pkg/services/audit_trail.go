package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/repositories"
)

// AuditTrail records extraction lifecycle transitions. It is a pure sink:
// entries are appended without business validation (the lifecycle alone is
// responsible for well-formedness), never updated, never reordered. A gap in
// the sequence is a caller bug diagnosed from the trail, not corrected by it.
type AuditTrail interface {
	// Append stores one transition entry.
	Append(ctx context.Context, entry *models.AuditEntry) error

	// FindByContract returns a contract's entries ordered by occurredAt ascending.
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]*models.AuditEntry, error)

	// FindByRun returns a run's entries ordered by occurredAt ascending.
	FindByRun(ctx context.Context, runID uuid.UUID) ([]*models.AuditEntry, error)
}

type auditTrail struct {
	repo   repositories.AuditRepository
	logger *zap.Logger
}

// NewAuditTrail creates a new AuditTrail.
func NewAuditTrail(repo repositories.AuditRepository, logger *zap.Logger) AuditTrail {
	return &auditTrail{
		repo:   repo,
		logger: logger.Named("audit-trail"),
	}
}

var _ AuditTrail = (*auditTrail)(nil)

func (t *auditTrail) Append(ctx context.Context, entry *models.AuditEntry) error {
	if err := t.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (t *auditTrail) FindByContract(ctx context.Context, contractID uuid.UUID) ([]*models.AuditEntry, error) {
	entries, err := t.repo.FindByContract(ctx, contractID)
	if err != nil {
		t.logger.Error("Failed to load audit entries by contract",
			zap.String("contract_id", contractID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("find audit entries by contract: %w", err)
	}
	return entries, nil
}

func (t *auditTrail) FindByRun(ctx context.Context, runID uuid.UUID) ([]*models.AuditEntry, error) {
	entries, err := t.repo.FindByRun(ctx, runID)
	if err != nil {
		t.logger.Error("Failed to load audit entries by run",
			zap.String("run_id", runID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("find audit entries by run: %w", err)
	}
	return entries, nil
}
