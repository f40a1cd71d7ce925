package models

// ReviewMode represents the strictness level a clause review is requested at.
// Modes are totally ordered: relaxed < standard < strict.
type ReviewMode string

const (
	ModeRelaxed  ReviewMode = "relaxed"
	ModeStandard ReviewMode = "standard"
	ModeStrict   ReviewMode = "strict"
)

// ValidReviewModes contains all valid mode values in ascending strictness order.
var ValidReviewModes = []ReviewMode{
	ModeRelaxed,
	ModeStandard,
	ModeStrict,
}

// Ordinal returns the position of the mode in the strictness order.
// Unknown modes get -1 so they never satisfy a coverage check.
func (m ReviewMode) Ordinal() int {
	switch m {
	case ModeRelaxed:
		return 0
	case ModeStandard:
		return 1
	case ModeStrict:
		return 2
	default:
		return -1
	}
}

// IsValid returns true if the mode is one of the known strictness levels.
func (m ReviewMode) IsValid() bool {
	return m.Ordinal() >= 0
}

// CoversAtLeast reports whether a rule authored at ruleMode still applies to a
// review requested at queryMode. A rule authored under a relaxed mode remains
// valid guidance under a stricter request; a strict-only rule must not fire
// for a relaxed request. This is the single source of truth for that policy.
func CoversAtLeast(ruleMode, queryMode ReviewMode) bool {
	if !ruleMode.IsValid() || !queryMode.IsValid() {
		return false
	}
	return ruleMode.Ordinal() <= queryMode.Ordinal()
}

// StrictestMode returns the most strict review mode.
func StrictestMode() ReviewMode {
	return ValidReviewModes[len(ValidReviewModes)-1]
}
