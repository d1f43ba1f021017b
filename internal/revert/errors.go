package revert

import (
	"errors"
	"fmt"
)

// Error represents a validation or calculation failure for one entity.
//
// Every Error carries the entity id it refers to so that a caller
// processing many entities can attribute failures without extra context.
type Error struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// EntityID identifies the affected entity (0 when the history was
	// empty and no id was available).
	EntityID int64
}

// ErrorCode categorizes revert failures.
type ErrorCode string

const (
	// ErrCodeEmptyHistory indicates the history had no records.
	ErrCodeEmptyHistory ErrorCode = "EMPTY_HISTORY"

	// ErrCodeInvalidVersion indicates the target version was missing or
	// not a positive integer.
	ErrCodeInvalidVersion ErrorCode = "INVALID_VERSION"

	// ErrCodeVersionOutOfRange indicates the target version exceeds the
	// history length.
	ErrCodeVersionOutOfRange ErrorCode = "VERSION_OUT_OF_RANGE"

	// ErrCodeMissingCreateAction indicates the lowest-version record is
	// not a create.
	ErrCodeMissingCreateAction ErrorCode = "MISSING_CREATE_ACTION"

	// ErrCodeDirtyRevertUnsupported indicates the target version is older
	// than the latest, which would require a multi-version revert.
	ErrCodeDirtyRevertUnsupported ErrorCode = "DIRTY_REVERT_UNSUPPORTED"

	// ErrCodeUnsupportedAction indicates the latest record's action has no
	// inverse mapping.
	ErrCodeUnsupportedAction ErrorCode = "UNSUPPORTED_ACTION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.EntityID != 0 {
		return fmt.Sprintf("%s: %s (entity=%d)", e.Code, e.Message, e.EntityID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed.
// Returns "" if err is not a revert error.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsDirtyRevert returns true if the error is a dirty-revert rejection.
// Uses errors.As to handle wrapped errors.
func IsDirtyRevert(err error) bool {
	return CodeOf(err) == ErrCodeDirtyRevertUnsupported
}

func newError(code ErrorCode, entityID int64, format string, args ...any) *Error {
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		EntityID: entityID,
	}
}
