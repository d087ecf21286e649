// Package apperr defines the error taxonomy shared by all services: every
// failure is one of five kinds, carries a stable machine-readable code, and
// maps 1:1 onto an HTTP status at the transport boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind int

const (
	// KindInternal covers store/cache failures and anything unexpected.
	KindInternal Kind = iota
	// KindValidation covers malformed or out-of-range input.
	KindValidation
	// KindNotFound covers lookups of unknown ids.
	KindNotFound
	// KindConflict covers grants contradicting existing state.
	KindConflict
	// KindForbidden covers delegation-authority violations.
	KindForbidden
)

// Stable machine-readable codes surfaced to API clients.
const (
	CodeEmployeeNotFound      = "EMPLOYEE_NOT_FOUND"
	CodeLevelNotFound         = "EMPLOYEE_LEVEL_NOT_FOUND"
	CodePermissionNotFound    = "AUTHORIZATION_NOT_FOUND"
	CodeAccreditationNotFound = "ACCREDITATION_NOT_FOUND"
	CodeDerogationNotFound    = "DEROGATION_NOT_FOUND"

	CodeAccreditationOverlap = "ACCREDITATION_ALREADY_EXISTS_FOR_THIS_PERIOD"
	CodeAlreadyAuthorized    = "HAS_ALREADY_AUTHORIZATION"
	CodeEmailExists          = "EMAIL_EXISTS"

	CodeAssignHigherLevel  = "FORBIDDEN_ASSIGN_HIGHER_LEVEL"
	CodeDeleteHigherLevel  = "FORBIDDEN_DELETE_HIGHER_LEVEL"
	CodeAssignUnownedPerm  = "FORBIDDEN_ASSIGN_UNOWNED_AUTHORIZATION"
	CodeDeleteUnownedPerm  = "FORBIDDEN_DELETE_UNOWNED_AUTHORIZATION"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	CodeValidation = "VALIDATION_FAILED"
	CodeForbidden  = "FORBIDDEN"
	CodeInternal   = "INTERNAL_ERROR"
)

// Error is the concrete error type returned by service layers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with the given kind, code and message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation builds a validation error with the generic validation code.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message}
}

// NotFound builds a not-found error.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Conflict builds a conflict error.
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// Forbidden builds a forbidden error.
func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

// Internal wraps an unexpected failure. The wrapped cause is logged server
// side; clients only ever see the generic message.
func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: message, Err: err}
}

// KindOf extracts the kind from any error chain. Unclassified errors are
// internal by definition.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// CodeOf extracts the machine code from an error chain.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-safe message for an error. Internal errors
// collapse to a generic message so store details never leak.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		return ae.Message
	}
	return "internal server error"
}
