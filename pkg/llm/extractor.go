// Package llm provides the AI clause extraction collaborator. The engine
// only records the start and outcome of this work; everything here runs
// between a run's begin and its terminal transition.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/config"
	"github.com/clausewise/clausewise-engine/pkg/jsonutil"
	"github.com/clausewise/clausewise-engine/pkg/models"
)

// Clause is a clause extracted from a contract document.
type Clause struct {
	ClauseType string `json:"clause_type"`
	Text       string `json:"text"`
}

// ClauseReview is the review outcome for a single clause.
type ClauseReview struct {
	ClauseType string `json:"clause_type"`
	Compliant  bool   `json:"compliant"`
	Finding    string `json:"finding"`
}

// ClauseExtractor performs clause extraction and per-clause review.
type ClauseExtractor interface {
	// ExtractClauses splits a contract document into typed clauses.
	ExtractClauses(ctx context.Context, documentText string) ([]Clause, error)

	// ReviewClause reviews one clause against its governing rules. An empty
	// rule set means no governing rule exists; the clause is reviewed under
	// the default policy for the given mode.
	ReviewClause(ctx context.Context, clause Clause, rules []*models.ReviewRule, mode models.ReviewMode) (*ClauseReview, error)
}

// NewExtractor creates the configured extraction backend.
func NewExtractor(cfg *config.ExtractionConfig, logger *zap.Logger) (ClauseExtractor, error) {
	switch cfg.Provider {
	case "anthropic":
		return newAnthropicExtractor(cfg, logger), nil
	case "openai":
		return newOpenAIExtractor(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown extraction provider %q", cfg.Provider)
	}
}

const extractSystemPrompt = `You are a contract analysis assistant. Extract every distinct clause from the contract document you are given. Respond with a JSON array only, no prose. Each element: {"clause_type": "<short snake_case type such as payment, termination, liability>", "text": "<verbatim clause text>"}.`

const reviewSystemPrompt = `You are a contract clause reviewer. Review the clause against the numbered review rules. Respond with a JSON object only, no prose: {"compliant": <bool>, "finding": "<one sentence>"}.`

func buildReviewPrompt(clause Clause, rules []*models.ReviewRule, mode models.ReviewMode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review mode: %s\nClause type: %s\n\nClause:\n%s\n\n", mode, clause.ClauseType, clause.Text)
	if len(rules) == 0 {
		b.WriteString("No specific review rules govern this clause. Apply general contract review practice for the given mode.\n")
		return b.String()
	}
	b.WriteString("Review rules, in reading order:\n")
	for i, rule := range rules {
		fmt.Fprintf(&b, "%d. [%s] %s: %s\n", i+1, rule.RuleType, rule.Name, rule.Content)
	}
	return b.String()
}

// parseClauses decodes the model's clause listing, tolerating a fenced code
// block around the JSON.
func parseClauses(raw string) ([]Clause, error) {
	var clauses []Clause
	if err := json.Unmarshal([]byte(stripFences(raw)), &clauses); err != nil {
		return nil, fmt.Errorf("failed to parse clause extraction response: %w", err)
	}
	return clauses, nil
}

// parseReview decodes a review verdict. Models occasionally answer with
// "compliant": "yes" or a numeric finding, so both fields go through the
// flexible decoders instead of strict typing.
func parseReview(raw string, clauseType string) (*ClauseReview, error) {
	var loose struct {
		Compliant json.RawMessage `json:"compliant"`
		Finding   json.RawMessage `json:"finding"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &loose); err != nil {
		return nil, fmt.Errorf("failed to parse clause review response: %w", err)
	}
	return &ClauseReview{
		ClauseType: clauseType,
		Compliant:  jsonutil.FlexibleBool(loose.Compliant),
		Finding:    jsonutil.FlexibleString(loose.Finding),
	}, nil
}

func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
	}
	return strings.TrimSpace(trimmed)
}
