package services

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/repositories"
)

// seedRule is the YAML shape of one seeded review rule.
type seedRule struct {
	Name          string   `yaml:"name"`
	RuleType      string   `yaml:"rule_type"`
	ContractTypes []string `yaml:"contract_types"`
	ClauseTypes   []string `yaml:"clause_types"`
	Content       string   `yaml:"content"`
	Mode          string   `yaml:"mode"`
	Remark        string   `yaml:"remark"`
}

// SeedRules loads review rules from a YAML file into an empty catalog. A
// populated catalog is left untouched. Seeded rules pass through the domain
// constructor, so a seed file violating rule invariants fails startup rather
// than planting an invalid rule.
func SeedRules(ctx context.Context, path string, repo repositories.ReviewRuleRepository, logger *zap.Logger) error {
	if path == "" {
		return nil
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count rules before seeding: %w", err)
	}
	if count > 0 {
		logger.Debug("Rule catalog not empty, skipping seed", zap.Int("rules", count))
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seeds []seedRule
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for i, seed := range seeds {
		var remark *string
		if seed.Remark != "" {
			remark = &seed.Remark
		}

		rule, err := models.NewReviewRule(
			seed.Name,
			models.RuleType(seed.RuleType),
			seed.ContractTypes,
			seed.ClauseTypes,
			seed.Content,
			models.ReviewMode(seed.Mode),
			remark,
		)
		if err != nil {
			return fmt.Errorf("seed rule %d (%q): %w", i, seed.Name, err)
		}

		if err := repo.Create(ctx, rule); err != nil {
			return fmt.Errorf("store seed rule %q: %w", seed.Name, err)
		}
	}

	logger.Info("Seeded review rules", zap.Int("count", len(seeds)))
	return nil
}
