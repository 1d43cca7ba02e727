package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrScanInProgress is returned when a scan is requested while another pass holds the processing guard
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrUnitNotFound is returned when a content unit is not part of the document
	ErrUnitNotFound = errors.New("content unit not found")

	// ErrPassNotFound is returned when a scan pass is not found
	ErrPassNotFound = errors.New("scan pass not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersistence is returned when the configuration store rejects a write
	ErrPersistence = errors.New("persistence failed")

	// ErrStatusQuery is returned when the status resolution service fails
	ErrStatusQuery = errors.New("status query failed")

	// ErrScanAborted is returned by a pass whose guard was taken away by the watchdog
	ErrScanAborted = errors.New("scan aborted")

	// ErrFeatureDisabled is returned when highlighting is switched off for the current page
	ErrFeatureDisabled = errors.New("highlighting disabled")
)

// UnitNotFoundError represents a missing content unit with context
type UnitNotFoundError struct {
	UnitID uint32
}

func (e *UnitNotFoundError) Error() string {
	return fmt.Sprintf("content unit %d not found", e.UnitID)
}

func (e *UnitNotFoundError) Is(target error) bool {
	return target == ErrUnitNotFound
}

// NewUnitNotFoundError creates a new UnitNotFoundError
func NewUnitNotFoundError(unitID uint32) *UnitNotFoundError {
	return &UnitNotFoundError{UnitID: unitID}
}

// PassNotFoundError represents a scan pass not found error with context
type PassNotFoundError struct {
	PassID string
}

func (e *PassNotFoundError) Error() string {
	return fmt.Sprintf("scan pass with ID '%s' not found", e.PassID)
}

func (e *PassNotFoundError) Is(target error) bool {
	return target == ErrPassNotFound
}

// NewPassNotFoundError creates a new PassNotFoundError
func NewPassNotFoundError(passID string) *PassNotFoundError {
	return &PassNotFoundError{PassID: passID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError wraps a configuration store failure for a given key.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist '%s': %v", e.Key, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a new PersistenceError
func NewPersistenceError(key string, err error) *PersistenceError {
	return &PersistenceError{Key: key, Err: err}
}

// StatusQueryError wraps a status resolution failure for a batch of lemmas.
type StatusQueryError struct {
	LemmaCount int
	Err        error
}

func (e *StatusQueryError) Error() string {
	return fmt.Sprintf("status query for %d lemmas failed: %v", e.LemmaCount, e.Err)
}

func (e *StatusQueryError) Is(target error) bool {
	return target == ErrStatusQuery
}

func (e *StatusQueryError) Unwrap() error {
	return e.Err
}

// NewStatusQueryError creates a new StatusQueryError
func NewStatusQueryError(lemmaCount int, err error) *StatusQueryError {
	return &StatusQueryError{LemmaCount: lemmaCount, Err: err}
}
