package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/config"
	"github.com/clausewise/clausewise-engine/pkg/models"
)

const defaultOpenAIModel = openai.GPT4o

type openAIExtractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func newOpenAIExtractor(cfg *config.ExtractionConfig, logger *zap.Logger) *openAIExtractor {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIExtractor{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
		logger: logger.Named("openai-extractor"),
	}
}

var _ ClauseExtractor = (*openAIExtractor)(nil)

func (e *openAIExtractor) ExtractClauses(ctx context.Context, documentText string) ([]Clause, error) {
	raw, err := e.complete(ctx, extractSystemPrompt, documentText)
	if err != nil {
		return nil, err
	}
	return parseClauses(raw)
}

func (e *openAIExtractor) ReviewClause(ctx context.Context, clause Clause, rules []*models.ReviewRule, mode models.ReviewMode) (*ClauseReview, error) {
	raw, err := e.complete(ctx, reviewSystemPrompt, buildReviewPrompt(clause, rules, mode))
	if err != nil {
		return nil, err
	}
	return parseReview(raw, clause.ClauseType)
}

func (e *openAIExtractor) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
