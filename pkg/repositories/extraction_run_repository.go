package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clausewise/clausewise-engine/pkg/apperrors"
	"github.com/clausewise/clausewise-engine/pkg/database"
	"github.com/clausewise/clausewise-engine/pkg/models"
)

// ExtractionRunRepository provides data access for extraction runs. Runs are
// never deleted; terminal runs stay queryable for the audit trail.
type ExtractionRunRepository interface {
	// CreateIfNoneActive inserts the run only if the contract has no run in
	// pending or in_progress. The check and insert are one atomic statement
	// so two concurrent triggers cannot both create an active run. Returns
	// apperrors.ErrAlreadyActive when an active run exists.
	CreateIfNoneActive(ctx context.Context, run *models.ExtractionRun) error

	// GetByID returns a run by id, or apperrors.ErrUnknownRun.
	GetByID(ctx context.Context, id uuid.UUID) (*models.ExtractionRun, error)

	// Update persists the run's current status, snapshot and completion fields.
	Update(ctx context.Context, run *models.ExtractionRun) error

	// FindActiveByContract returns the contract's active run, or nil.
	FindActiveByContract(ctx context.Context, contractID uuid.UUID) (*models.ExtractionRun, error)

	// ListByContract returns the contract's runs, newest first.
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]*models.ExtractionRun, error)
}

type extractionRunRepository struct {
	db *database.DB
}

// NewExtractionRunRepository creates a new ExtractionRunRepository.
func NewExtractionRunRepository(db *database.DB) ExtractionRunRepository {
	return &extractionRunRepository{db: db}
}

var _ ExtractionRunRepository = (*extractionRunRepository)(nil)

func (r *extractionRunRepository) CreateIfNoneActive(ctx context.Context, run *models.ExtractionRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	query := `
		INSERT INTO extraction_runs (
			id, contract_id, requested_by, status, contract_type, mode, rule_snapshot, error_message, started_at, completed_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		WHERE NOT EXISTS (
			SELECT 1 FROM extraction_runs
			WHERE contract_id = $2 AND status IN ('pending', 'in_progress')
		)`

	tag, err := r.db.Exec(ctx, query,
		run.ID,
		run.ContractID,
		run.RequestedBy,
		run.Status,
		run.ContractType,
		run.Mode,
		snapshotStrings(run.RuleSnapshot),
		run.ErrorMessage,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create extraction run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contract %s: %w", run.ContractID, apperrors.ErrAlreadyActive)
	}

	return nil
}

func (r *extractionRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ExtractionRun, error) {
	query := selectRunColumns + ` WHERE id = $1`

	run, err := scanExtractionRun(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("extraction run %s: %w", id, apperrors.ErrUnknownRun)
		}
		return nil, err
	}

	return run, nil
}

func (r *extractionRunRepository) Update(ctx context.Context, run *models.ExtractionRun) error {
	query := `
		UPDATE extraction_runs
		SET status = $2, rule_snapshot = $3, error_message = $4, completed_at = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		run.ID,
		run.Status,
		snapshotStrings(run.RuleSnapshot),
		run.ErrorMessage,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update extraction run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("extraction run %s: %w", run.ID, apperrors.ErrUnknownRun)
	}

	return nil
}

func (r *extractionRunRepository) FindActiveByContract(ctx context.Context, contractID uuid.UUID) (*models.ExtractionRun, error) {
	query := selectRunColumns + `
		WHERE contract_id = $1 AND status IN ('pending', 'in_progress')
		LIMIT 1`

	run, err := scanExtractionRun(r.db.QueryRow(ctx, query, contractID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return run, nil
}

func (r *extractionRunRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]*models.ExtractionRun, error) {
	query := selectRunColumns + ` WHERE contract_id = $1 ORDER BY started_at DESC`

	rows, err := r.db.Query(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to query extraction runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ExtractionRun
	for rows.Next() {
		run, err := scanExtractionRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extraction runs: %w", err)
	}

	return runs, nil
}

const selectRunColumns = `
	SELECT id, contract_id, requested_by, status, contract_type, mode, rule_snapshot, error_message, started_at, completed_at
	FROM extraction_runs`

func scanExtractionRun(row pgx.Row) (*models.ExtractionRun, error) {
	var run models.ExtractionRun
	var snapshot []string

	err := row.Scan(
		&run.ID,
		&run.ContractID,
		&run.RequestedBy,
		&run.Status,
		&run.ContractType,
		&run.Mode,
		&snapshot,
		&run.ErrorMessage,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan extraction run: %w", err)
	}

	run.RuleSnapshot, err = snapshotIDs(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule snapshot: %w", err)
	}

	return &run, nil
}

// snapshotStrings converts a rule snapshot to a text array for storage.
func snapshotStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func snapshotIDs(values []string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
