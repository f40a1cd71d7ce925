package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/apperrors"
	"github.com/clausewise/clausewise-engine/pkg/events"
	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/repositories"
)

// ContractService manages contracts and publishes one change notification per
// contract lifecycle event. Creating a contract with an attachment also
// publishes the trigger event that starts clause extraction.
type ContractService interface {
	Create(ctx context.Context, name, contractType string, attachmentID *string, createdBy uuid.UUID) (*models.Contract, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	Update(ctx context.Context, id uuid.UUID, name, contractType string, attachmentID *string) (*models.Contract, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ContractStatus) (*models.Contract, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit int) ([]*models.Contract, error)
}

type contractService struct {
	repo    repositories.ContractRepository
	trigger events.TriggerPublisher
	changes events.ChangePublisher
	logger  *zap.Logger
}

// NewContractService creates a new ContractService.
func NewContractService(repo repositories.ContractRepository, trigger events.TriggerPublisher, changes events.ChangePublisher, logger *zap.Logger) ContractService {
	return &contractService{
		repo:    repo,
		trigger: trigger,
		changes: changes,
		logger:  logger.Named("contract-service"),
	}
}

var _ ContractService = (*contractService)(nil)

func (s *contractService) Create(ctx context.Context, name, contractType string, attachmentID *string, createdBy uuid.UUID) (*models.Contract, error) {
	name = strings.TrimSpace(name)
	contractType = strings.TrimSpace(contractType)
	if name == "" {
		return nil, fmt.Errorf("%w: contract name must not be blank", apperrors.ErrConflict)
	}
	if contractType == "" {
		return nil, fmt.Errorf("%w: contract type must not be blank", apperrors.ErrConflict)
	}

	now := time.Now()
	contract := &models.Contract{
		ID:           uuid.New(),
		Name:         name,
		ContractType: contractType,
		AttachmentID: attachmentID,
		Status:       models.ContractStatusDraft,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, err
	}

	s.publishChange(ctx, &models.ContractChangedEvent{
		Kind:       models.ChangeKindCreated,
		ContractID: contract.ID,
		OccurredAt: now,
	})

	// Contracts without a reviewable document never start a run: the trigger
	// is skipped entirely rather than creating a run doomed to fail.
	if contract.HasAttachment() {
		event := &models.ContractCreatedEvent{
			ContractID:   contract.ID,
			ContractName: contract.Name,
			ContractType: contract.ContractType,
			AttachmentID: contract.AttachmentID,
			RequestedBy:  createdBy,
			OccurredAt:   now,
		}
		if err := s.trigger.PublishTrigger(ctx, event); err != nil {
			s.logger.Warn("Failed to publish contract trigger event",
				zap.String("contract_id", contract.ID.String()),
				zap.Error(err))
		}
	}

	return contract, nil
}

func (s *contractService) Get(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *contractService) Update(ctx context.Context, id uuid.UUID, name, contractType string, attachmentID *string) (*models.Contract, error) {
	contract, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	contract.Name = strings.TrimSpace(name)
	contract.ContractType = strings.TrimSpace(contractType)
	contract.AttachmentID = attachmentID
	contract.UpdatedAt = time.Now()

	if contract.Name == "" || contract.ContractType == "" {
		return nil, fmt.Errorf("%w: contract name and type must not be blank", apperrors.ErrConflict)
	}

	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, err
	}

	s.publishChange(ctx, &models.ContractChangedEvent{
		Kind:       models.ChangeKindUpdated,
		ContractID: contract.ID,
		OccurredAt: contract.UpdatedAt,
	})

	return contract, nil
}

func (s *contractService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ContractStatus) (*models.Contract, error) {
	if !models.IsValidContractStatus(status) {
		return nil, fmt.Errorf("%w: unknown contract status %q", apperrors.ErrConflict, status)
	}

	contract, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := contract.Status
	if oldStatus == status {
		return contract, nil
	}

	contract.Status = status
	contract.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, err
	}

	s.publishChange(ctx, &models.ContractChangedEvent{
		Kind:       models.ChangeKindStatusChanged,
		ContractID: contract.ID,
		OccurredAt: contract.UpdatedAt,
		OldStatus:  &oldStatus,
		NewStatus:  &status,
	})

	return contract, nil
}

func (s *contractService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publishChange(ctx, &models.ContractChangedEvent{
		Kind:       models.ChangeKindDeleted,
		ContractID: id,
		OccurredAt: time.Now(),
	})

	return nil
}

func (s *contractService) List(ctx context.Context, limit int) ([]*models.Contract, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.List(ctx, limit)
}

// publishChange emits an outbound notification best-effort. Consumers get
// at-least-once delivery via the bridge; a publish failure here is logged and
// never rolls back the contract mutation it describes.
func (s *contractService) publishChange(ctx context.Context, event *models.ContractChangedEvent) {
	if err := s.changes.PublishChange(ctx, event); err != nil {
		s.logger.Warn("Failed to publish contract change event",
			zap.String("kind", string(event.Kind)),
			zap.String("contract_id", event.ContractID.String()),
			zap.Error(err))
	}
}
