package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/llm"
	"github.com/clausewise/clausewise-engine/pkg/logging"
	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/repositories"
	"github.com/clausewise/clausewise-engine/pkg/retry"
)

// ExtractionWorker drives a triggered run end to end: it begins the run,
// performs the clause extraction and per-clause review, and records the
// terminal outcome. A downstream extraction failure becomes a failed run, not
// an error of the worker itself.
type ExtractionWorker struct {
	lifecycle    ExtractionLifecycle
	contractRepo repositories.ContractRepository
	ruleRepo     repositories.ReviewRuleRepository
	selector     RuleSelector
	extractor    llm.ClauseExtractor
	documents    DocumentStore
	retryConfig  *retry.Config
	logger       *zap.Logger
}

// ExtractionWorkerDeps contains dependencies for the ExtractionWorker.
type ExtractionWorkerDeps struct {
	Lifecycle    ExtractionLifecycle
	ContractRepo repositories.ContractRepository
	RuleRepo     repositories.ReviewRuleRepository
	Selector     RuleSelector // Optional: defaults to NewRuleSelector() if nil
	Extractor    llm.ClauseExtractor
	Documents    DocumentStore
	RetryConfig  *retry.Config // Optional: defaults to retry.DefaultConfig()
	Logger       *zap.Logger
}

// NewExtractionWorker creates a new ExtractionWorker.
func NewExtractionWorker(deps *ExtractionWorkerDeps) *ExtractionWorker {
	selector := deps.Selector
	if selector == nil {
		selector = NewRuleSelector()
	}
	retryConfig := deps.RetryConfig
	if retryConfig == nil {
		retryConfig = retry.DefaultConfig()
	}
	return &ExtractionWorker{
		lifecycle:    deps.Lifecycle,
		contractRepo: deps.ContractRepo,
		ruleRepo:     deps.RuleRepo,
		selector:     selector,
		extractor:    deps.Extractor,
		documents:    deps.Documents,
		retryConfig:  retryConfig,
		logger:       deps.Logger.Named("extraction-worker"),
	}
}

// ProcessRun runs the full extraction for a pending run. The returned error
// reflects lifecycle bookkeeping problems only; review findings and
// extraction failures land in the run's terminal state instead.
func (w *ExtractionWorker) ProcessRun(ctx context.Context, runID uuid.UUID) error {
	run, err := w.lifecycle.Begin(ctx, runID)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	summary, reviewErr := w.review(ctx, run)
	if reviewErr != nil {
		w.logger.Warn("Extraction failed",
			zap.String("run_id", runID.String()),
			zap.Error(reviewErr))
		if err := w.lifecycle.Fail(ctx, runID, reviewErr.Error()); err != nil {
			return fmt.Errorf("record run failure: %w", err)
		}
		return nil
	}

	if err := w.lifecycle.Complete(ctx, runID, summary); err != nil {
		return fmt.Errorf("record run completion: %w", err)
	}
	return nil
}

func (w *ExtractionWorker) review(ctx context.Context, run *models.ExtractionRun) (string, error) {
	contract, err := w.contractRepo.GetByID(ctx, run.ContractID)
	if err != nil {
		return "", fmt.Errorf("load contract: %w", err)
	}
	if !contract.HasAttachment() {
		return "", fmt.Errorf("contract %s has no attachment", contract.ID)
	}

	documentText, err := retry.DoWithResult(ctx, w.retryConfig, func() (string, error) {
		return w.documents.Fetch(ctx, *contract.AttachmentID)
	})
	if err != nil {
		return "", fmt.Errorf("fetch document: %w", err)
	}

	clauses, err := retry.DoWithResult(ctx, w.retryConfig, func() ([]llm.Clause, error) {
		return w.extractor.ExtractClauses(ctx, documentText)
	})
	if err != nil {
		return "", fmt.Errorf("extract clauses: %w", err)
	}

	// Reviews run against the rule set frozen at begin time, never the live
	// catalog: a mid-flight rule edit must not change this run's outcome.
	snapshot, err := w.ruleRepo.ListByIDs(ctx, run.RuleSnapshot)
	if err != nil {
		return "", fmt.Errorf("load rule snapshot: %w", err)
	}

	var findings int
	for _, clause := range clauses {
		rules := w.selector.Select(snapshot, run.ContractType, clause.ClauseType, run.Mode)

		review, err := retry.DoWithResult(ctx, w.retryConfig, func() (*llm.ClauseReview, error) {
			return w.extractor.ReviewClause(ctx, clause, rules, run.Mode)
		})
		if err != nil {
			return "", fmt.Errorf("review clause %q: %w", clause.ClauseType, err)
		}

		if !review.Compliant {
			findings++
			w.logger.Info("Clause finding",
				zap.String("run_id", run.ID.String()),
				zap.String("clause_type", clause.ClauseType),
				zap.String("finding", logging.TruncateString(review.Finding, 200)))
		}
	}

	return fmt.Sprintf("reviewed %d clauses, %d findings", len(clauses), findings), nil
}
