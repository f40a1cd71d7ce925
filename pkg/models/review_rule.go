package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clausewise/clausewise-engine/pkg/apperrors"
)

// Rule type values. Precedence when selecting rules for a clause is
// specific < fallback < extended (specific guidance is read first,
// extended/strict-only guidance last).
type RuleType string

const (
	RuleTypeSpecific RuleType = "specific"
	RuleTypeFallback RuleType = "fallback"
	RuleTypeExtended RuleType = "extended"
)

// ValidRuleTypes contains all valid rule type values.
var ValidRuleTypes = []RuleType{RuleTypeSpecific, RuleTypeFallback, RuleTypeExtended}

// IsValid returns true if the rule type is a known value.
func (t RuleType) IsValid() bool {
	for _, v := range ValidRuleTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Precedence returns the selection precedence of the rule type (lower sorts first).
func (t RuleType) Precedence() int {
	switch t {
	case RuleTypeSpecific:
		return 0
	case RuleTypeFallback:
		return 1
	case RuleTypeExtended:
		return 2
	default:
		return 3
	}
}

// Sentinel values for declared type sets.
const (
	// TypeCodeAll is the universal sentinel: the rule applies to every
	// concrete type on that dimension.
	TypeCodeAll = "ALL"

	// TypeCodeFallback is the distinguished marker for catch-all rules. It is
	// only valid in a rule's contract-type set, and only on fallback rules.
	TypeCodeFallback = "FALLBACK"
)

// TypeSet is a declared set of contract-type or clause-type codes.
// It may instead hold the universal sentinel or the fallback marker.
type TypeSet []string

// IsUniversal returns true if the set carries the universal sentinel.
func (s TypeSet) IsUniversal() bool {
	for _, code := range s {
		if code == TypeCodeAll {
			return true
		}
	}
	return false
}

// HasFallbackMarker returns true if the set carries the fallback marker.
func (s TypeSet) HasFallbackMarker() bool {
	for _, code := range s {
		if code == TypeCodeFallback {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the declared set covers the given concrete type
// code. The universal sentinel and the fallback marker cover any concrete
// type; otherwise coverage is case-sensitive exact membership. Normalization
// (trimming, casing) is the caller's responsibility. An empty set applies to
// nothing, never to everything.
func (s TypeSet) AppliesTo(concreteType string) bool {
	if len(s) == 0 {
		return false
	}
	if s.IsUniversal() || s.HasFallbackMarker() {
		return true
	}
	for _, code := range s {
		if code == concreteType {
			return true
		}
	}
	return false
}

// ReviewRule is a configurable clause review rule. Invariants are enforced by
// NewReviewRule and re-checked on every mutation; a failed validation leaves
// the prior state untouched.
type ReviewRule struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	RuleType      RuleType   `json:"rule_type"`
	ContractTypes TypeSet    `json:"contract_types"`
	ClauseTypes   TypeSet    `json:"clause_types"`
	Content       string     `json:"content"`
	Mode          ReviewMode `json:"mode"`
	Enabled       bool       `json:"enabled"`
	Remark        *string    `json:"remark,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

const maxRuleNameLength = 255

// NewReviewRule creates a fresh, enabled rule. The ID is left as uuid.Nil
// until the storage layer persists it.
func NewReviewRule(name string, ruleType RuleType, contractTypes, clauseTypes TypeSet, content string, mode ReviewMode, remark *string) (*ReviewRule, error) {
	now := time.Now()
	r := &ReviewRule{
		Name:          name,
		RuleType:      ruleType,
		ContractTypes: contractTypes,
		ClauseTypes:   clauseTypes,
		Content:       content,
		Mode:          mode,
		Enabled:       true,
		Remark:        remark,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// RehydrateReviewRule reconstructs a rule from stored fields. Stored records
// are re-validated so a row corrupted outside the engine cannot re-enter it.
func RehydrateReviewRule(id uuid.UUID, name string, ruleType RuleType, contractTypes, clauseTypes TypeSet, content string, mode ReviewMode, enabled bool, remark *string, createdAt, updatedAt time.Time) (*ReviewRule, error) {
	r := &ReviewRule{
		ID:            id,
		Name:          name,
		RuleType:      ruleType,
		ContractTypes: contractTypes,
		ClauseTypes:   clauseTypes,
		Content:       content,
		Mode:          mode,
		Enabled:       enabled,
		Remark:        remark,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks all construction invariants.
func (r *ReviewRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name must not be blank", apperrors.ErrInvalidRuleDefinition)
	}
	if len(r.Name) > maxRuleNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", apperrors.ErrInvalidRuleDefinition, maxRuleNameLength)
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("%w: content must not be blank", apperrors.ErrInvalidRuleDefinition)
	}
	if !r.RuleType.IsValid() {
		return fmt.Errorf("%w: unknown rule type %q", apperrors.ErrInvalidRuleDefinition, r.RuleType)
	}
	if !r.Mode.IsValid() {
		return fmt.Errorf("%w: unknown review mode %q", apperrors.ErrInvalidRuleDefinition, r.Mode)
	}
	if len(r.ContractTypes) == 0 {
		return fmt.Errorf("%w: contract types must not be empty", apperrors.ErrInvalidRuleDefinition)
	}
	if len(r.ClauseTypes) == 0 {
		return fmt.Errorf("%w: clause types must not be empty", apperrors.ErrInvalidRuleDefinition)
	}
	if r.ClauseTypes.HasFallbackMarker() {
		return fmt.Errorf("%w: clause types must not carry the fallback marker", apperrors.ErrInvalidRuleDefinition)
	}
	if r.RuleType == RuleTypeExtended && r.Mode != StrictestMode() {
		return fmt.Errorf("%w: extended rules require mode %q", apperrors.ErrInvalidRuleDefinition, StrictestMode())
	}
	// Fallback rule type and the fallback contract-type marker imply each other.
	if r.RuleType == RuleTypeFallback && !r.ContractTypes.HasFallbackMarker() {
		return fmt.Errorf("%w: fallback rules require the fallback contract-type marker", apperrors.ErrInvalidRuleDefinition)
	}
	if r.RuleType != RuleTypeFallback && r.ContractTypes.HasFallbackMarker() {
		return fmt.Errorf("%w: only fallback rules may carry the fallback contract-type marker", apperrors.ErrInvalidRuleDefinition)
	}
	return nil
}

// Update replaces the mutable attributes of the rule. Validation runs against
// a copy first so a rejected update never partially applies.
func (r *ReviewRule) Update(name string, ruleType RuleType, contractTypes, clauseTypes TypeSet, content string, mode ReviewMode, remark *string) error {
	updated := *r
	updated.Name = name
	updated.RuleType = ruleType
	updated.ContractTypes = contractTypes
	updated.ClauseTypes = clauseTypes
	updated.Content = content
	updated.Mode = mode
	updated.Remark = remark
	if err := updated.Validate(); err != nil {
		return err
	}
	updated.UpdatedAt = time.Now()
	*r = updated
	return nil
}

// Enable marks the rule as eligible for selection.
func (r *ReviewRule) Enable() error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.Enabled = true
	r.UpdatedAt = time.Now()
	return nil
}

// Disable removes the rule from selection without deleting it.
func (r *ReviewRule) Disable() error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.Enabled = false
	r.UpdatedAt = time.Now()
	return nil
}
