package vault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrAccountExists is returned when creating an account whose
	// composite key is already occupied.
	ErrAccountExists = errors.New("account already exists")

	// ErrNoAccount is returned when any part of the key path is missing.
	ErrNoAccount = errors.New("no account")

	// ErrSameSenderAndReceiver rejects transfers where sender and
	// receiver resolve to the identical account key.
	ErrSameSenderAndReceiver = errors.New("same sender and receiver")

	// ErrStoreUnavailable wraps persistence failures (disk I/O,
	// serialization). There is no retry; callers report and move on.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InvalidTransactionError signals that a transaction function rejected a
// mutation. The runner discards the working copies and leaves persisted
// state untouched. Details carries the identifying keys of the rejected
// mutation for the user-facing message.
type InvalidTransactionError struct {
	Reason  string
	Details map[string]string

	// Err optionally carries the domain condition behind the rejection
	// (e.g. an insufficient-balance sentinel) so callers can pick a
	// targeted user-facing message with errors.Is.
	Err error
}

func (e *InvalidTransactionError) Unwrap() error { return e.Err }

func (e *InvalidTransactionError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("invalid transaction: %s", e.Reason)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, e.Details[k]))
	}
	return fmt.Sprintf("invalid transaction: %s (%s)", e.Reason, strings.Join(parts, " "))
}

// Invalid builds an InvalidTransactionError for a single account key.
func Invalid(reason string, key Key) *InvalidTransactionError {
	return &InvalidTransactionError{
		Reason: reason,
		Details: map[string]string{
			"tenant":    string(key.Tenant),
			"principal": string(key.Principal),
			"account":   key.Name,
		},
	}
}

// InvalidFor is Invalid with a domain cause attached.
func InvalidFor(cause error, key Key) *InvalidTransactionError {
	e := Invalid(cause.Error(), key)
	e.Err = cause
	return e
}

// IsInvalid reports whether err is (or wraps) an InvalidTransactionError.
func IsInvalid(err error) bool {
	var ite *InvalidTransactionError
	return errors.As(err, &ite)
}
