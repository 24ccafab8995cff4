package core

import "errors"

// Pipeline and session errors. Callers wrap these with %w and the web
// layer maps them to user messages via MapError.
var (
	ErrUnreadableFile   = errors.New("file is empty or unreadable")
	ErrNoTableData      = errors.New("no readable table data")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNoColumns        = errors.New("no columns detected")
	ErrInvalidMapping   = errors.New("failed to map data")
	ErrImportInProgress = errors.New("import already in progress")
	ErrNoMappingPending = errors.New("no import awaiting mapping")
	ErrPersistence      = errors.New("could not save to storage")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidDate      = errors.New("invalid date")
)
