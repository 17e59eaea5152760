package apperrors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrNoSession            = errors.New("no conversation in progress")
	ErrSubmissionInFlight   = errors.New("a sentence is still being checked")
	ErrValidatorUnavailable = errors.New("sentence validator unavailable")
	ErrArchiveDisabled      = errors.New("transcript archive is disabled")
)
