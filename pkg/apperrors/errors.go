package apperrors

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrInvalidRuleDefinition = errors.New("invalid rule definition")
	ErrAlreadyActive         = errors.New("extraction run already active for contract")
	ErrNoAttachment          = errors.New("contract has no attachment to review")
	ErrUnknownRun            = errors.New("unknown extraction run")
	ErrInvalidTransition     = errors.New("invalid run transition")
)
