// Package errors provides error handling for prompttask.
//
// This package re-exports github.com/cockroachdb/errors so every package gets
// stack traces, wrapping and user hints from a single import, and defines the
// sentinels that distinguish configuration problems from delegated failures.
//
// Configuration errors are fatal to task setup and are returned to the caller:
//
//	if err := rules.ValidateScope(scope, "task"); err != nil {
//	    return nil, err // errors.IsConfigurationError(err) == true
//	}
//
// Failures reported by a prompt driver are not errors at this level; the task
// stores them as an error artifact instead.
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSafeDetails    = crdb.WithSafeDetails
	WithSecondaryError = crdb.WithSecondaryError
	GetAllHints        = crdb.GetAllHints
	GetAllDetails      = crdb.GetAllDetails
	FlattenHints       = crdb.FlattenHints
	FlattenDetails     = crdb.FlattenDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinels. Wrap or Mark these to add context while keeping Is() working.
var (
	// ErrConfiguration marks setup problems: conflicting rule declarations,
	// a missing prompt driver, an unusable template or config value.
	ErrConfiguration = New("configuration error")

	// ErrNoDriver is returned when neither a task nor its structure provides
	// a prompt driver.
	ErrNoDriver = Mark(New("no prompt driver available"), ErrConfiguration)

	// ErrTaskBusy is returned when Run is called on a task that is already running.
	ErrTaskBusy = New("task is already running")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")
)

// NewConfigurationError creates an error marked as a configuration error.
func NewConfigurationError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrConfiguration)
}

// WrapConfiguration marks err as a configuration error and adds context.
func WrapConfiguration(err error, context string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, context), ErrConfiguration)
}

// IsConfigurationError checks if an error is or wraps ErrConfiguration
func IsConfigurationError(err error) bool {
	return err != nil && Is(err, ErrConfiguration)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
