package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the broad failure classes surfaced by the service.
// Wrap with fmt.Errorf("...: %w", ...) to add context; check with errors.Is.
var (
	// ErrValidation marks missing or malformed request input. Never retried.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a lookup for which no record exists.
	ErrNotFound = errors.New("not found")

	// ErrConnection marks a gateway session that could not be established
	// (missing wallet identity, malformed profile, unreachable network).
	ErrConnection = errors.New("ledger connection error")

	// ErrLedgerRejection marks a transaction rejected by the contract or the
	// network's validation. Terminal: retrying the same arguments cannot succeed.
	ErrLedgerRejection = errors.New("ledger rejection")

	// ErrTransient marks an ordering/consensus timeout or transport hiccup.
	// Eligible for bounded retry at the gateway client layer.
	ErrTransient = errors.New("transient ledger error")

	// ErrStateConflict marks a review transition attempted from an illegal
	// state, including losing a claim race.
	ErrStateConflict = errors.New("state conflict")

	// ErrPrecondition marks an operation whose prerequisite step has not run
	// (e.g. registering a user before the admin is enrolled).
	ErrPrecondition = errors.New("precondition not met")
)

// Validationf builds a field-level validation error.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds a not-found error for a named entity.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf builds a state-conflict error.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether the gateway client may retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
