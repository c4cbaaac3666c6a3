package models

import "errors"

// Validation errors for models and documents
var (
	// Run identity errors
	ErrMissingRunID      = errors.New("run id is required")
	ErrInvalidRunAttempt = errors.New("run attempt must be at least 1")

	// Document errors
	ErrDocumentNotFound  = errors.New("document not found")
	ErrMalformedDocument = errors.New("document is malformed")

	// Patch errors
	ErrEmptyPatch = errors.New("patch is empty")
)
