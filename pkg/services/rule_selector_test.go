package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clausewise/clausewise-engine/pkg/models"
)

// mustRule builds a valid rule for selector tests, failing the test on an
// invariant violation in the fixture itself.
func mustRule(t *testing.T, name string, ruleType models.RuleType, contractTypes, clauseTypes models.TypeSet, mode models.ReviewMode) *models.ReviewRule {
	t.Helper()
	rule, err := models.NewReviewRule(name, ruleType, contractTypes, clauseTypes, "review the clause", mode, nil)
	require.NoError(t, err)
	rule.ID = uuid.New()
	return rule
}

func TestRuleSelector_Select_Filtering(t *testing.T) {
	selector := NewRuleSelector()

	payment := mustRule(t, "payment terms", models.RuleTypeSpecific,
		models.TypeSet{"service_agreement"}, models.TypeSet{"payment"}, models.ModeStandard)
	universal := mustRule(t, "universal liability", models.RuleTypeSpecific,
		models.TypeSet{models.TypeCodeAll}, models.TypeSet{"liability"}, models.ModeRelaxed)
	strictOnly := mustRule(t, "strict termination", models.RuleTypeSpecific,
		models.TypeSet{"service_agreement"}, models.TypeSet{"payment"}, models.ModeStrict)
	disabled := mustRule(t, "disabled payment", models.RuleTypeSpecific,
		models.TypeSet{"service_agreement"}, models.TypeSet{"payment"}, models.ModeRelaxed)
	require.NoError(t, disabled.Disable())

	catalog := []*models.ReviewRule{payment, universal, strictOnly, disabled}

	t.Run("matches both type dimensions and mode", func(t *testing.T) {
		got := selector.Select(catalog, "service_agreement", "payment", models.ModeStandard)
		require.Len(t, got, 1)
		assert.Equal(t, payment.ID, got[0].ID)
	})

	t.Run("universal contract type matches any contract", func(t *testing.T) {
		got := selector.Select(catalog, "lease", "liability", models.ModeStandard)
		require.Len(t, got, 1)
		assert.Equal(t, universal.ID, got[0].ID)
	})

	t.Run("strict rule does not fire for a relaxed query", func(t *testing.T) {
		got := selector.Select(catalog, "service_agreement", "payment", models.ModeRelaxed)
		assert.Empty(t, got)
	})

	t.Run("strict query includes less strict rules", func(t *testing.T) {
		got := selector.Select(catalog, "service_agreement", "payment", models.ModeStrict)
		require.Len(t, got, 2)
	})

	t.Run("disabled rules never match", func(t *testing.T) {
		got := selector.Select(catalog, "service_agreement", "payment", models.ModeStrict)
		for _, rule := range got {
			assert.NotEqual(t, disabled.ID, rule.ID)
		}
	})

	t.Run("no match is an empty result, not an error", func(t *testing.T) {
		got := selector.Select(catalog, "nda", "confidentiality", models.ModeStrict)
		assert.Empty(t, got)
	})

	t.Run("unknown query mode matches nothing", func(t *testing.T) {
		got := selector.Select(catalog, "service_agreement", "payment", models.ReviewMode("paranoid"))
		assert.Empty(t, got)
	})
}

func TestRuleSelector_Select_FallbackAfterSpecific(t *testing.T) {
	selector := NewRuleSelector()

	specific := mustRule(t, "payment terms", models.RuleTypeSpecific,
		models.TypeSet{"service_agreement", "lease"}, models.TypeSet{"payment"}, models.ModeStandard)
	fallback := mustRule(t, "baseline payment", models.RuleTypeFallback,
		models.TypeSet{models.TypeCodeFallback}, models.TypeSet{"payment"}, models.ModeRelaxed)

	got := selector.Select([]*models.ReviewRule{fallback, specific}, "lease", "payment", models.ModeStrict)

	require.Len(t, got, 2)
	assert.Equal(t, specific.ID, got[0].ID)
	assert.Equal(t, fallback.ID, got[1].ID)
}

func TestRuleSelector_Select_Ordering(t *testing.T) {
	selector := NewRuleSelector()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	extended := mustRule(t, "extended", models.RuleTypeExtended,
		models.TypeSet{models.TypeCodeAll}, models.TypeSet{"payment"}, models.ModeStrict)
	fallback := mustRule(t, "fallback", models.RuleTypeFallback,
		models.TypeSet{models.TypeCodeFallback}, models.TypeSet{"payment"}, models.ModeRelaxed)
	olderSpecific := mustRule(t, "older specific", models.RuleTypeSpecific,
		models.TypeSet{models.TypeCodeAll}, models.TypeSet{"payment"}, models.ModeStandard)
	newerSpecific := mustRule(t, "newer specific", models.RuleTypeSpecific,
		models.TypeSet{models.TypeCodeAll}, models.TypeSet{"payment"}, models.ModeStandard)
	relaxedSpecific := mustRule(t, "relaxed specific", models.RuleTypeSpecific,
		models.TypeSet{models.TypeCodeAll}, models.TypeSet{"payment"}, models.ModeRelaxed)

	olderSpecific.CreatedAt = base
	newerSpecific.CreatedAt = base.Add(time.Hour)
	relaxedSpecific.CreatedAt = base

	catalog := []*models.ReviewRule{extended, fallback, olderSpecific, newerSpecific, relaxedSpecific}
	got := selector.Select(catalog, "lease", "payment", models.ModeStrict)

	require.Len(t, got, 5)
	// Precedence first, then mode ascending, then newest first.
	assert.Equal(t, relaxedSpecific.ID, got[0].ID)
	assert.Equal(t, newerSpecific.ID, got[1].ID)
	assert.Equal(t, olderSpecific.ID, got[2].ID)
	assert.Equal(t, fallback.ID, got[3].ID)
	assert.Equal(t, extended.ID, got[4].ID)
}

func TestRuleSelector_Select_EachRuleAtMostOnce(t *testing.T) {
	selector := NewRuleSelector()

	multi := mustRule(t, "multi dimension", models.RuleTypeSpecific,
		models.TypeSet{models.TypeCodeAll, "lease", "service_agreement"},
		models.TypeSet{"payment", "deposit"}, models.ModeRelaxed)

	got := selector.Select([]*models.ReviewRule{multi}, "lease", "payment", models.ModeStrict)

	assert.Len(t, got, 1)
}

func TestRuleSelector_Select_DoesNotMutateCatalog(t *testing.T) {
	selector := NewRuleSelector()

	a := mustRule(t, "a", models.RuleTypeFallback,
		models.TypeSet{models.TypeCodeFallback}, models.TypeSet{"payment"}, models.ModeRelaxed)
	b := mustRule(t, "b", models.RuleTypeSpecific,
		models.TypeSet{models.TypeCodeAll}, models.TypeSet{"payment"}, models.ModeRelaxed)

	catalog := []*models.ReviewRule{a, b}
	_ = selector.Select(catalog, "lease", "payment", models.ModeStrict)

	assert.Equal(t, a.ID, catalog[0].ID)
	assert.Equal(t, b.ID, catalog[1].ID)
}

func TestRuleSelector_SelectForContract(t *testing.T) {
	selector := NewRuleSelector()

	lease := mustRule(t, "lease payment", models.RuleTypeSpecific,
		models.TypeSet{"lease"}, models.TypeSet{"payment"}, models.ModeStandard)
	leaseTermination := mustRule(t, "lease termination", models.RuleTypeSpecific,
		models.TypeSet{"lease"}, models.TypeSet{"termination"}, models.ModeStandard)
	other := mustRule(t, "nda confidentiality", models.RuleTypeSpecific,
		models.TypeSet{"nda"}, models.TypeSet{"confidentiality"}, models.ModeStandard)

	got := selector.SelectForContract([]*models.ReviewRule{lease, leaseTermination, other}, "lease", models.ModeStandard)

	// Clause type is not a dimension here: all lease rules are in scope.
	require.Len(t, got, 2)
}
