package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clausewise/clausewise-engine/pkg/database"
	"github.com/clausewise/clausewise-engine/pkg/models"
)

// AuditRepository provides data access for the extraction audit trail.
// The trail is append-only: there is no update or delete path.
type AuditRepository interface {
	// Create inserts a new audit entry.
	Create(ctx context.Context, entry *models.AuditEntry) error

	// FindByContract returns a contract's entries ordered by occurredAt ascending.
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]*models.AuditEntry, error)

	// FindByRun returns a run's entries ordered by occurredAt ascending.
	FindByRun(ctx context.Context, runID uuid.UUID) ([]*models.AuditEntry, error)
}

type auditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *database.DB) AuditRepository {
	return &auditRepository{db: db}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}

	if !entry.ActorSource.IsValid() {
		entry.ActorSource = models.SourceSystem
	}

	query := `
		INSERT INTO extraction_audit_log (
			id, run_id, contract_id, transition, summary, actor_id, actor_source, occurred_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.RunID,
		entry.ContractID,
		entry.Transition,
		entry.Summary,
		entry.ActorID,
		entry.ActorSource,
		entry.OccurredAt,
		entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

func (r *auditRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]*models.AuditEntry, error) {
	query := selectAuditColumns + ` WHERE contract_id = $1 ORDER BY occurred_at ASC`
	return r.queryEntries(ctx, query, contractID)
}

func (r *auditRepository) FindByRun(ctx context.Context, runID uuid.UUID) ([]*models.AuditEntry, error) {
	query := selectAuditColumns + ` WHERE run_id = $1 ORDER BY occurred_at ASC`
	return r.queryEntries(ctx, query, runID)
}

const selectAuditColumns = `
	SELECT id, run_id, contract_id, transition, summary, actor_id, actor_source, occurred_at, duration_ms
	FROM extraction_audit_log`

func (r *auditRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*models.AuditEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

func scanAuditEntry(row pgx.Row) (*models.AuditEntry, error) {
	var entry models.AuditEntry

	err := row.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.ContractID,
		&entry.Transition,
		&entry.Summary,
		&entry.ActorID,
		&entry.ActorSource,
		&entry.OccurredAt,
		&entry.DurationMs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	return &entry, nil
}
