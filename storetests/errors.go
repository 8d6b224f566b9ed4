package storetests

import (
	"errors"
	"fmt"
)

var (
	// ErrPreconditionFailed matches any *PreconditionFailedError with errors.Is.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrVerificationFailed matches any *VerificationError with errors.Is.
	ErrVerificationFailed = errors.New("verification failed")
)

// PreconditionFailedError means a step could not start because the data it needs, from the
// service or from earlier steps, was missing or insufficient.
type PreconditionFailedError struct {
	Reason string
}

func (e *PreconditionFailedError) Error() string { return "precondition failed: " + e.Reason }

func (e *PreconditionFailedError) Is(target error) bool { return target == ErrPreconditionFailed }

func (e *PreconditionFailedError) Kind() string { return "PreconditionFailed" }

func preconditionFailed(format string, args ...interface{}) error {
	return &PreconditionFailedError{Reason: fmt.Sprintf(format, args...)}
}

// VerificationError means the service answered correctly but its state was not what the
// step checks for, such as a cart that is not empty after checkout.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string { return "verification failed: " + e.Reason }

func (e *VerificationError) Is(target error) bool { return target == ErrVerificationFailed }

func (e *VerificationError) Kind() string { return "VerificationFailed" }
