package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clausewise/clausewise-engine/pkg/apperrors"
	"github.com/clausewise/clausewise-engine/pkg/database"
	"github.com/clausewise/clausewise-engine/pkg/models"
)

// ReviewRuleRepository provides data access for the review rule catalog.
// Rules reaching the engine have already passed domain validation; rows read
// back are rehydrated through the domain constructor so corrupt records are
// rejected rather than silently used.
type ReviewRuleRepository interface {
	// Create inserts a new rule and assigns its id.
	Create(ctx context.Context, rule *models.ReviewRule) error

	// GetByID returns a rule by id, or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReviewRule, error)

	// Update persists the current state of an already-validated rule.
	Update(ctx context.Context, rule *models.ReviewRule) error

	// Delete removes a rule from the catalog.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns the full catalog, newest first.
	List(ctx context.Context) ([]*models.ReviewRule, error)

	// ListEnabledForMode returns enabled rules whose mode is at least as
	// relaxed as the query mode. Contract/clause type filtering is the
	// selector's responsibility, never the store's.
	ListEnabledForMode(ctx context.Context, mode models.ReviewMode) ([]*models.ReviewRule, error)

	// ListByIDs returns the rules with the given ids. Used to resolve a
	// run's frozen rule snapshot; missing ids are silently absent.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.ReviewRule, error)

	// Count returns the catalog size. Used to decide whether to seed.
	Count(ctx context.Context) (int, error)
}

type reviewRuleRepository struct {
	db *database.DB
}

// NewReviewRuleRepository creates a new ReviewRuleRepository.
func NewReviewRuleRepository(db *database.DB) ReviewRuleRepository {
	return &reviewRuleRepository{db: db}
}

var _ ReviewRuleRepository = (*reviewRuleRepository)(nil)

func (r *reviewRuleRepository) Create(ctx context.Context, rule *models.ReviewRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	query := `
		INSERT INTO review_rules (
			id, name, rule_type, contract_types, clause_types, content, mode, enabled, remark, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.RuleType,
		[]string(rule.ContractTypes),
		[]string(rule.ClauseTypes),
		rule.Content,
		rule.Mode,
		rule.Enabled,
		rule.Remark,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review rule: %w", err)
	}

	return nil
}

func (r *reviewRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReviewRule, error) {
	query := selectRuleColumns + ` WHERE id = $1`

	rule, err := scanReviewRule(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("review rule %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}

	return rule, nil
}

func (r *reviewRuleRepository) Update(ctx context.Context, rule *models.ReviewRule) error {
	query := `
		UPDATE review_rules
		SET name = $2, rule_type = $3, contract_types = $4, clause_types = $5,
		    content = $6, mode = $7, enabled = $8, remark = $9, updated_at = $10
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.RuleType,
		[]string(rule.ContractTypes),
		[]string(rule.ClauseTypes),
		rule.Content,
		rule.Mode,
		rule.Enabled,
		rule.Remark,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update review rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review rule %s: %w", rule.ID, apperrors.ErrNotFound)
	}

	return nil
}

func (r *reviewRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM review_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review rule %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *reviewRuleRepository) List(ctx context.Context) ([]*models.ReviewRule, error) {
	query := selectRuleColumns + ` ORDER BY created_at DESC`
	return r.queryRules(ctx, query)
}

func (r *reviewRuleRepository) ListEnabledForMode(ctx context.Context, mode models.ReviewMode) ([]*models.ReviewRule, error) {
	// Mode pre-filtering mirrors CoversAtLeast: a rule applies when its mode
	// ordinal is at most the query's. Ordinals are encoded in the CASE below
	// so the store and the engine cannot disagree on membership.
	query := selectRuleColumns + `
		WHERE enabled = TRUE
		  AND (CASE mode WHEN 'relaxed' THEN 0 WHEN 'standard' THEN 1 WHEN 'strict' THEN 2 END) <=
		      (CASE $1 WHEN 'relaxed' THEN 0 WHEN 'standard' THEN 1 WHEN 'strict' THEN 2 END)`
	return r.queryRules(ctx, query, mode)
}

func (r *reviewRuleRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.ReviewRule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := selectRuleColumns + ` WHERE id = ANY($1)`
	return r.queryRules(ctx, query, ids)
}

func (r *reviewRuleRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM review_rules`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count review rules: %w", err)
	}
	return count, nil
}

const selectRuleColumns = `
	SELECT id, name, rule_type, contract_types, clause_types, content, mode, enabled, remark, created_at, updated_at
	FROM review_rules`

func (r *reviewRuleRepository) queryRules(ctx context.Context, query string, args ...any) ([]*models.ReviewRule, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query review rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.ReviewRule
	for rows.Next() {
		rule, err := scanReviewRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rules: %w", err)
	}

	return rules, nil
}

func scanReviewRule(row pgx.Row) (*models.ReviewRule, error) {
	var (
		id            uuid.UUID
		name          string
		ruleType      models.RuleType
		contractTypes []string
		clauseTypes   []string
		content       string
		mode          models.ReviewMode
		enabled       bool
		remark        *string
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(&id, &name, &ruleType, &contractTypes, &clauseTypes, &content, &mode, &enabled, &remark, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan review rule: %w", err)
	}

	return models.RehydrateReviewRule(id, name, ruleType, contractTypes, clauseTypes, content, mode, enabled, remark, createdAt, updatedAt)
}
