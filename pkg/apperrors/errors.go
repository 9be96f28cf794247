package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrLocked          = errors.New("tracker is locked")
	ErrInvalidPIN      = errors.New("invalid pin")
	ErrFeatureDisabled = errors.New("feature disabled")
)
