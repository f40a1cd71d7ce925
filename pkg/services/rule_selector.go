package services

import (
	"sort"

	"github.com/clausewise/clausewise-engine/pkg/models"
)

// RuleSelector answers which review rules govern a clause review query. It is
// a pure query over the catalog snapshot the caller supplies: the selector
// never caches or mutates the catalog, so it is safe to call concurrently.
type RuleSelector interface {
	// Select returns the ordered subset of applicable, enabled rules for a
	// (contractType, clauseType, mode) query. An empty result is valid and
	// means no governing rule exists; the caller falls back to its own
	// default policy.
	Select(catalog []*models.ReviewRule, contractType, clauseType string, mode models.ReviewMode) []*models.ReviewRule

	// SelectForContract returns the ordered applicable rules for a contract
	// across all clause types. Used to fix a run's rule snapshot at begin
	// time; per-clause queries during extraction go through Select.
	SelectForContract(catalog []*models.ReviewRule, contractType string, mode models.ReviewMode) []*models.ReviewRule
}

type ruleSelector struct{}

// NewRuleSelector creates a new RuleSelector.
func NewRuleSelector() RuleSelector {
	return &ruleSelector{}
}

var _ RuleSelector = (*ruleSelector)(nil)

func (s *ruleSelector) Select(catalog []*models.ReviewRule, contractType, clauseType string, mode models.ReviewMode) []*models.ReviewRule {
	var matched []*models.ReviewRule
	for _, rule := range catalog {
		if !rule.Enabled {
			continue
		}
		if !models.CoversAtLeast(rule.Mode, mode) {
			continue
		}
		if !rule.ContractTypes.AppliesTo(contractType) {
			continue
		}
		if !rule.ClauseTypes.AppliesTo(clauseType) {
			continue
		}
		matched = append(matched, rule)
	}
	orderRules(matched)
	return matched
}

func (s *ruleSelector) SelectForContract(catalog []*models.ReviewRule, contractType string, mode models.ReviewMode) []*models.ReviewRule {
	var matched []*models.ReviewRule
	for _, rule := range catalog {
		if !rule.Enabled {
			continue
		}
		if !models.CoversAtLeast(rule.Mode, mode) {
			continue
		}
		if !rule.ContractTypes.AppliesTo(contractType) {
			continue
		}
		matched = append(matched, rule)
	}
	orderRules(matched)
	return matched
}

// orderRules sorts applicable rules into their reading order: rule type
// precedence first (specific < fallback < extended), then mode ordinal
// ascending, then createdAt descending so the most recently authored rule of
// equal precedence wins visibility, with id ascending as a final tiebreak
// for determinism.
func orderRules(rules []*models.ReviewRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.RuleType.Precedence() != b.RuleType.Precedence() {
			return a.RuleType.Precedence() < b.RuleType.Precedence()
		}
		if a.Mode.Ordinal() != b.Mode.Ordinal() {
			return a.Mode.Ordinal() < b.Mode.Ordinal()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
