package apperrors

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrCredentialsUnavailable = errors.New("credentials unavailable")
	ErrInsufficientTables     = errors.New("at least 2 tables are required for relationship analysis")
	ErrUnsupportedEngine      = errors.New("unsupported engine kind")
	ErrCredentialsKeyMismatch = errors.New("environment config was encrypted with a different key")
)
