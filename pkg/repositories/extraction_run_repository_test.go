//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clausewise/clausewise-engine/pkg/apperrors"
	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/testhelpers"
)

// runTestContext holds test dependencies for extraction run repository tests.
type runTestContext struct {
	t        *testing.T
	engineDB *testhelpers.EngineDB
	runs     ExtractionRunRepository
	userID   uuid.UUID
}

func setupRunTest(t *testing.T) *runTestContext {
	engineDB := testhelpers.GetEngineDB(t)
	return &runTestContext{
		t:        t,
		engineDB: engineDB,
		runs:     NewExtractionRunRepository(engineDB.DB),
		userID:   uuid.MustParse("00000000-0000-0000-0000-000000000071"),
	}
}

// createContract inserts a contract row for runs to reference.
func (tc *runTestContext) createContract() uuid.UUID {
	tc.t.Helper()
	ctx := context.Background()
	id := uuid.New()

	_, err := tc.engineDB.DB.Exec(ctx, `
		INSERT INTO contracts (id, name, contract_type, attachment_id, status, created_by)
		VALUES ($1, $2, 'service_agreement', 'att-1', 'draft', $3)
	`, id, "Run Test Contract "+id.String()[:8], tc.userID)
	if err != nil {
		tc.t.Fatalf("failed to create test contract: %v", err)
	}
	return id
}

func (tc *runTestContext) newRun(contractID uuid.UUID) *models.ExtractionRun {
	return &models.ExtractionRun{
		ID:           uuid.New(),
		ContractID:   contractID,
		RequestedBy:  tc.userID,
		Status:       models.RunStatusPending,
		ContractType: "service_agreement",
		Mode:         models.ModeStandard,
		StartedAt:    time.Now().UTC(),
	}
}

func TestExtractionRunRepository_CreateIfNoneActive(t *testing.T) {
	tc := setupRunTest(t)
	ctx := context.Background()
	contractID := tc.createContract()

	first := tc.newRun(contractID)
	require.NoError(t, tc.runs.CreateIfNoneActive(ctx, first))

	t.Run("rejects second run while one is pending", func(t *testing.T) {
		second := tc.newRun(contractID)
		err := tc.runs.CreateIfNoneActive(ctx, second)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyActive)

		runs, err := tc.runs.ListByContract(ctx, contractID)
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})

	t.Run("rejects while in progress", func(t *testing.T) {
		first.Status = models.RunStatusInProgress
		first.RuleSnapshot = []uuid.UUID{uuid.New(), uuid.New()}
		require.NoError(t, tc.runs.Update(ctx, first))

		err := tc.runs.CreateIfNoneActive(ctx, tc.newRun(contractID))
		assert.ErrorIs(t, err, apperrors.ErrAlreadyActive)
	})

	t.Run("allows a new run once the previous one is terminal", func(t *testing.T) {
		now := time.Now().UTC()
		first.Status = models.RunStatusSucceeded
		first.CompletedAt = &now
		require.NoError(t, tc.runs.Update(ctx, first))

		second := tc.newRun(contractID)
		require.NoError(t, tc.runs.CreateIfNoneActive(ctx, second))

		runs, err := tc.runs.ListByContract(ctx, contractID)
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})
}

func TestExtractionRunRepository_SnapshotRoundTrip(t *testing.T) {
	tc := setupRunTest(t)
	ctx := context.Background()
	contractID := tc.createContract()

	run := tc.newRun(contractID)
	require.NoError(t, tc.runs.CreateIfNoneActive(ctx, run))

	snapshot := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	run.Status = models.RunStatusInProgress
	run.RuleSnapshot = snapshot
	require.NoError(t, tc.runs.Update(ctx, run))

	loaded, err := tc.runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusInProgress, loaded.Status)
	assert.Equal(t, snapshot, loaded.RuleSnapshot)
}

func TestExtractionRunRepository_GetByID_Unknown(t *testing.T) {
	tc := setupRunTest(t)

	_, err := tc.runs.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrUnknownRun)
}

func TestExtractionRunRepository_FindActiveByContract(t *testing.T) {
	tc := setupRunTest(t)
	ctx := context.Background()
	contractID := tc.createContract()

	active, err := tc.runs.FindActiveByContract(ctx, contractID)
	require.NoError(t, err)
	assert.Nil(t, active)

	run := tc.newRun(contractID)
	require.NoError(t, tc.runs.CreateIfNoneActive(ctx, run))

	active, err = tc.runs.FindActiveByContract(ctx, contractID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, run.ID, active.ID)
}
