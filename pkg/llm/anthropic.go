package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/config"
	"github.com/clausewise/clausewise-engine/pkg/models"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

type anthropicExtractor struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

func newAnthropicExtractor(cfg *config.ExtractionConfig, logger *zap.Logger) *anthropicExtractor {
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &anthropicExtractor{
		client: anthropic.NewClient(cfg.APIKey),
		model:  model,
		logger: logger.Named("anthropic-extractor"),
	}
}

var _ ClauseExtractor = (*anthropicExtractor)(nil)

func (e *anthropicExtractor) ExtractClauses(ctx context.Context, documentText string) ([]Clause, error) {
	raw, err := e.complete(ctx, extractSystemPrompt, documentText)
	if err != nil {
		return nil, err
	}
	return parseClauses(raw)
}

func (e *anthropicExtractor) ReviewClause(ctx context.Context, clause Clause, rules []*models.ReviewRule, mode models.ReviewMode) (*ClauseReview, error) {
	raw, err := e.complete(ctx, reviewSystemPrompt, buildReviewPrompt(clause, rules, mode))
	if err != nil {
		return nil, err
	}
	return parseReview(raw, clause.ClauseType)
}

func (e *anthropicExtractor) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := e.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(e.model),
		System:    system,
		MaxTokens: 4096,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return "", fmt.Errorf("anthropic response contained no text content")
	}
	return text, nil
}
