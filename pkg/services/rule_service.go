package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/repositories"
)

// RuleService manages the review rule catalog. All mutations go through the
// domain constructor and mutators so invariants are enforced exactly once; a
// rejected mutation leaves the stored rule untouched.
type RuleService interface {
	Create(ctx context.Context, name string, ruleType models.RuleType, contractTypes, clauseTypes models.TypeSet, content string, mode models.ReviewMode, remark *string) (*models.ReviewRule, error)
	Update(ctx context.Context, id uuid.UUID, name string, ruleType models.RuleType, contractTypes, clauseTypes models.TypeSet, content string, mode models.ReviewMode, remark *string) (*models.ReviewRule, error)
	Enable(ctx context.Context, id uuid.UUID) (*models.ReviewRule, error)
	Disable(ctx context.Context, id uuid.UUID) (*models.ReviewRule, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.ReviewRule, error)
	List(ctx context.Context) ([]*models.ReviewRule, error)
}

type ruleService struct {
	repo   repositories.ReviewRuleRepository
	logger *zap.Logger
}

// NewRuleService creates a new RuleService.
func NewRuleService(repo repositories.ReviewRuleRepository, logger *zap.Logger) RuleService {
	return &ruleService{
		repo:   repo,
		logger: logger.Named("rule-service"),
	}
}

var _ RuleService = (*ruleService)(nil)

func (s *ruleService) Create(ctx context.Context, name string, ruleType models.RuleType, contractTypes, clauseTypes models.TypeSet, content string, mode models.ReviewMode, remark *string) (*models.ReviewRule, error) {
	rule, err := models.NewReviewRule(name, ruleType, contractTypes, clauseTypes, content, mode, remark)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}

	s.logger.Info("Review rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("rule_type", string(rule.RuleType)))

	return rule, nil
}

func (s *ruleService) Update(ctx context.Context, id uuid.UUID, name string, ruleType models.RuleType, contractTypes, clauseTypes models.TypeSet, content string, mode models.ReviewMode, remark *string) (*models.ReviewRule, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := rule.Update(name, ruleType, contractTypes, clauseTypes, content, mode, remark); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, fmt.Errorf("update rule: %w", err)
	}

	return rule, nil
}

func (s *ruleService) Enable(ctx context.Context, id uuid.UUID) (*models.ReviewRule, error) {
	return s.setEnabled(ctx, id, true)
}

func (s *ruleService) Disable(ctx context.Context, id uuid.UUID) (*models.ReviewRule, error) {
	return s.setEnabled(ctx, id, false)
}

func (s *ruleService) setEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*models.ReviewRule, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if enabled {
		err = rule.Enable()
	} else {
		err = rule.Disable()
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, fmt.Errorf("update rule: %w", err)
	}

	return rule, nil
}

func (s *ruleService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Review rule deleted", zap.String("rule_id", id.String()))
	return nil
}

func (s *ruleService) Get(ctx context.Context, id uuid.UUID) (*models.ReviewRule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ruleService) List(ctx context.Context) ([]*models.ReviewRule, error) {
	return s.repo.List(ctx)
}
