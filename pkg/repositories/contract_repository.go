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

// ContractRepository provides data access for contracts.
type ContractRepository interface {
	Create(ctx context.Context, contract *models.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	Update(ctx context.Context, contract *models.Contract) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit int) ([]*models.Contract, error)
}

type contractRepository struct {
	db *database.DB
}

// NewContractRepository creates a new ContractRepository.
func NewContractRepository(db *database.DB) ContractRepository {
	return &contractRepository{db: db}
}

var _ ContractRepository = (*contractRepository)(nil)

func (r *contractRepository) Create(ctx context.Context, contract *models.Contract) error {
	if contract.ID == uuid.Nil {
		contract.ID = uuid.New()
	}

	query := `
		INSERT INTO contracts (
			id, name, contract_type, attachment_id, status, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		contract.ID,
		contract.Name,
		contract.ContractType,
		contract.AttachmentID,
		contract.Status,
		contract.CreatedBy,
		contract.CreatedAt,
		contract.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}

	return nil
}

func (r *contractRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	query := selectContractColumns + ` WHERE id = $1`

	contract, err := scanContract(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("contract %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}

	return contract, nil
}

func (r *contractRepository) Update(ctx context.Context, contract *models.Contract) error {
	query := `
		UPDATE contracts
		SET name = $2, contract_type = $3, attachment_id = $4, status = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		contract.ID,
		contract.Name,
		contract.ContractType,
		contract.AttachmentID,
		contract.Status,
		contract.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contract %s: %w", contract.ID, apperrors.ErrNotFound)
	}

	return nil
}

func (r *contractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contract %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *contractRepository) List(ctx context.Context, limit int) ([]*models.Contract, error) {
	query := selectContractColumns + ` ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*models.Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contracts: %w", err)
	}

	return contracts, nil
}

const selectContractColumns = `
	SELECT id, name, contract_type, attachment_id, status, created_by, created_at, updated_at
	FROM contracts`

func scanContract(row pgx.Row) (*models.Contract, error) {
	var contract models.Contract

	err := row.Scan(
		&contract.ID,
		&contract.Name,
		&contract.ContractType,
		&contract.AttachmentID,
		&contract.Status,
		&contract.CreatedBy,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan contract: %w", err)
	}

	return &contract, nil
}
