package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clausewise/clausewise-engine/pkg/apperrors"
)

func TestTypeSet_AppliesTo(t *testing.T) {
	tests := []struct {
		name     string
		set      TypeSet
		concrete string
		want     bool
	}{
		{"universal sentinel applies to anything", TypeSet{TypeCodeAll}, "lease", true},
		{"fallback marker applies to anything", TypeSet{TypeCodeFallback}, "lease", true},
		{"member matches", TypeSet{"lease", "purchase"}, "lease", true},
		{"non-member does not match", TypeSet{"lease", "purchase"}, "employment", false},
		{"match is case-sensitive", TypeSet{"lease"}, "Lease", false},
		{"empty set applies to nothing", TypeSet{}, "lease", false},
		{"nil set applies to nothing", nil, "lease", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.AppliesTo(tt.concrete))
		})
	}
}

func TestNewReviewRule_Valid(t *testing.T) {
	r, err := NewReviewRule("payment terms", RuleTypeSpecific, TypeSet{"lease"}, TypeSet{"payment"}, "check payment schedule", ModeStandard, nil)
	require.NoError(t, err)

	assert.Equal(t, uuid.Nil, r.ID)
	assert.True(t, r.Enabled)
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)
}

func TestNewReviewRule_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		ruleName      string
		ruleType      RuleType
		contractTypes TypeSet
		clauseTypes   TypeSet
		content       string
		mode          ReviewMode
	}{
		{"blank name", "   ", RuleTypeSpecific, TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeStandard},
		{"name too long", strings.Repeat("x", 256), RuleTypeSpecific, TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeStandard},
		{"blank content", "rule", RuleTypeSpecific, TypeSet{"lease"}, TypeSet{"payment"}, " ", ModeStandard},
		{"unknown rule type", "rule", RuleType("custom"), TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeStandard},
		{"unknown mode", "rule", RuleTypeSpecific, TypeSet{"lease"}, TypeSet{"payment"}, "content", ReviewMode("lenient")},
		{"empty contract types", "rule", RuleTypeSpecific, TypeSet{}, TypeSet{"payment"}, "content", ModeStandard},
		{"empty clause types", "rule", RuleTypeSpecific, TypeSet{"lease"}, TypeSet{}, "content", ModeStandard},
		{"fallback marker on clause types", "rule", RuleTypeSpecific, TypeSet{"lease"}, TypeSet{TypeCodeFallback}, "content", ModeStandard},
		{"extended rule with relaxed mode", "rule", RuleTypeExtended, TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeRelaxed},
		{"extended rule with standard mode", "rule", RuleTypeExtended, TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeStandard},
		{"fallback rule without marker", "rule", RuleTypeFallback, TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeRelaxed},
		{"specific rule with fallback marker", "rule", RuleTypeSpecific, TypeSet{TypeCodeFallback}, TypeSet{"payment"}, "content", ModeStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReviewRule(tt.ruleName, tt.ruleType, tt.contractTypes, tt.clauseTypes, tt.content, tt.mode, nil)
			assert.ErrorIs(t, err, apperrors.ErrInvalidRuleDefinition)
		})
	}
}

func TestNewReviewRule_ExtendedWithStrictestMode(t *testing.T) {
	_, err := NewReviewRule("extended rule", RuleTypeExtended, TypeSet{"lease"}, TypeSet{"payment"}, "content", StrictestMode(), nil)
	assert.NoError(t, err)
}

func TestNewReviewRule_FallbackWithMarker(t *testing.T) {
	_, err := NewReviewRule("fallback rule", RuleTypeFallback, TypeSet{TypeCodeFallback}, TypeSet{"payment"}, "content", ModeRelaxed, nil)
	assert.NoError(t, err)
}

func TestReviewRule_Update_RejectedUpdateLeavesStateUntouched(t *testing.T) {
	r, err := NewReviewRule("payment terms", RuleTypeSpecific, TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeStandard, nil)
	require.NoError(t, err)
	before := *r

	err = r.Update("", RuleTypeSpecific, TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeStandard, nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidRuleDefinition)
	assert.Equal(t, before, *r)
}

func TestReviewRule_Update_BumpsUpdatedAt(t *testing.T) {
	r, err := NewReviewRule("payment terms", RuleTypeSpecific, TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeStandard, nil)
	require.NoError(t, err)

	// Keep mutation observably later than construction.
	r.UpdatedAt = r.UpdatedAt.Add(-time.Second)
	before := r.UpdatedAt

	remark := "tightened"
	err = r.Update("payment terms v2", RuleTypeSpecific, TypeSet{"lease", "purchase"}, TypeSet{"payment"}, "check payment schedule and penalties", ModeStrict, &remark)
	require.NoError(t, err)

	assert.Equal(t, "payment terms v2", r.Name)
	assert.Equal(t, TypeSet{"lease", "purchase"}, r.ContractTypes)
	assert.Equal(t, ModeStrict, r.Mode)
	assert.True(t, r.UpdatedAt.After(before))
}

func TestReviewRule_EnableDisable(t *testing.T) {
	r, err := NewReviewRule("payment terms", RuleTypeSpecific, TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeStandard, nil)
	require.NoError(t, err)

	require.NoError(t, r.Disable())
	assert.False(t, r.Enabled)

	require.NoError(t, r.Enable())
	assert.True(t, r.Enabled)
}

func TestRehydrateReviewRule_RejectsCorruptRecord(t *testing.T) {
	now := time.Now()
	_, err := RehydrateReviewRule(uuid.New(), "rule", RuleTypeExtended, TypeSet{"lease"}, TypeSet{"payment"}, "content", ModeRelaxed, true, nil, now, now)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRuleDefinition)
}
