package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/llm"
	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/retry"
)

// stubDocumentStore returns canned document text.
type stubDocumentStore struct {
	text string
	err  error
}

func (s *stubDocumentStore) Fetch(context.Context, string) (string, error) {
	return s.text, s.err
}

// noRetry keeps worker tests fast: one attempt, no backoff.
func noRetry() *retry.Config {
	return &retry.Config{
		MaxRetries:   0,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	}
}

func newWorkerFixture(t *testing.T, extractor *llm.MockExtractor, docs DocumentStore) (*ExtractionWorker, *lifecycleFixture) {
	t.Helper()
	f := newLifecycleFixture(t)
	worker := NewExtractionWorker(&ExtractionWorkerDeps{
		Lifecycle:    f.lifecycle,
		ContractRepo: f.contracts,
		RuleRepo:     f.rules,
		Extractor:    extractor,
		Documents:    docs,
		RetryConfig:  noRetry(),
		Logger:       zap.NewNop(),
	})
	return worker, f
}

func TestExtractionWorker_ProcessRun_Succeeds(t *testing.T) {
	extractor := &llm.MockExtractor{
		Clauses: []llm.Clause{
			{ClauseType: "payment", Text: "Net 30 payment terms."},
			{ClauseType: "liability", Text: "Liability capped at fees paid."},
		},
		Reviews: map[string]*llm.ClauseReview{
			"payment": {ClauseType: "payment", Compliant: false, Finding: "missing invoicing currency"},
		},
	}
	worker, f := newWorkerFixture(t, extractor, &stubDocumentStore{text: "full contract text"})
	ctx := context.Background()

	f.addRule(t, "payment terms", models.TypeSet{"service_agreement"}, models.ModeStandard)

	run, err := f.lifecycle.Trigger(ctx, f.contractID, f.userID, models.ModeStandard)
	require.NoError(t, err)

	require.NoError(t, worker.ProcessRun(ctx, run.ID))

	final, err := f.lifecycle.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, final.Status)
	assert.Equal(t, 2, extractor.ReviewCalls)

	entries, err := f.trail.FindByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[1].Summary)
	assert.Equal(t, "reviewed 2 clauses, 1 findings", *entries[1].Summary)
}

func TestExtractionWorker_ProcessRun_ExtractionFailureFailsRun(t *testing.T) {
	extractor := &llm.MockExtractor{ExtractErr: errors.New("parse error")}
	worker, f := newWorkerFixture(t, extractor, &stubDocumentStore{text: "doc"})
	ctx := context.Background()

	run, err := f.lifecycle.Trigger(ctx, f.contractID, f.userID, models.ModeStandard)
	require.NoError(t, err)

	// A downstream failure is a failed run, not a worker error.
	require.NoError(t, worker.ProcessRun(ctx, run.ID))

	final, err := f.lifecycle.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, final.Status)
	require.NotNil(t, final.ErrorMessage)
	assert.Contains(t, *final.ErrorMessage, "parse error")

	assert.Equal(t, []models.TransitionKind{
		models.TransitionStarted,
		models.TransitionFailed,
	}, f.trail.transitions(run.ID))
}

func TestExtractionWorker_ProcessRun_DocumentFetchFailureFailsRun(t *testing.T) {
	extractor := &llm.MockExtractor{}
	worker, f := newWorkerFixture(t, extractor, &stubDocumentStore{err: errors.New("attachment store unreachable")})
	ctx := context.Background()

	run, err := f.lifecycle.Trigger(ctx, f.contractID, f.userID, models.ModeStandard)
	require.NoError(t, err)

	require.NoError(t, worker.ProcessRun(ctx, run.ID))

	final, err := f.lifecycle.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, final.Status)
	assert.Equal(t, 0, extractor.ExtractCalls)
}

func TestExtractionWorker_ProcessRun_ReviewsAgainstFrozenSnapshot(t *testing.T) {
	extractor := &llm.MockExtractor{
		Clauses: []llm.Clause{{ClauseType: "payment", Text: "Net 30."}},
	}
	worker, f := newWorkerFixture(t, extractor, &stubDocumentStore{text: "doc"})
	ctx := context.Background()

	rule := f.addRule(t, "payment terms", models.TypeSet{"service_agreement"}, models.ModeStandard)

	run, err := f.lifecycle.Trigger(ctx, f.contractID, f.userID, models.ModeStandard)
	require.NoError(t, err)

	begun, err := f.lifecycle.Begin(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{rule.ID}, begun.RuleSnapshot)

	// Begin already happened, so ProcessRun on the same run must refuse.
	err = worker.ProcessRun(ctx, run.ID)
	assert.Error(t, err)
}

func TestExtractionWorker_ProcessRun_UnknownRun(t *testing.T) {
	worker, _ := newWorkerFixture(t, &llm.MockExtractor{}, &stubDocumentStore{text: "doc"})

	err := worker.ProcessRun(context.Background(), uuid.New())
	assert.Error(t, err)
}
