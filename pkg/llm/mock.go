package llm

import (
	"context"

	"github.com/clausewise/clausewise-engine/pkg/models"
)

// MockExtractor is a scripted ClauseExtractor for tests.
type MockExtractor struct {
	Clauses      []Clause
	Reviews      map[string]*ClauseReview // keyed by clause type
	ExtractErr   error
	ReviewErr    error
	ReviewCalls  int
	ExtractCalls int
}

var _ ClauseExtractor = (*MockExtractor)(nil)

func (m *MockExtractor) ExtractClauses(ctx context.Context, documentText string) ([]Clause, error) {
	m.ExtractCalls++
	if m.ExtractErr != nil {
		return nil, m.ExtractErr
	}
	return m.Clauses, nil
}

func (m *MockExtractor) ReviewClause(ctx context.Context, clause Clause, rules []*models.ReviewRule, mode models.ReviewMode) (*ClauseReview, error) {
	m.ReviewCalls++
	if m.ReviewErr != nil {
		return nil, m.ReviewErr
	}
	if review, ok := m.Reviews[clause.ClauseType]; ok {
		return review, nil
	}
	return &ClauseReview{ClauseType: clause.ClauseType, Compliant: true, Finding: "no issues found"}, nil
}
