package challenge

import (
	"errors"
	"fmt"
)

// ErrInvalidChallenge matches every challenge validation failure via
// errors.Is, regardless of the specific reason. Authentication is
// binary: any detected anomaly is fatal to the attempt.
var ErrInvalidChallenge = errors.New("challenge: invalid challenge transaction")

// Error is the single failure kind of this package, parameterized by a
// human-readable reason from a fixed catalog. The caller decides any
// user-facing messaging; this package never logs and never retries.
type Error struct {
	Verb   string // entry point that failed: "build", "read", or "verify"
	Reason string
	Err    error // underlying cause, if any
}

func newError(verb, reason string, err error) *Error {
	return &Error{
		Verb:   verb,
		Reason: reason,
		Err:    err,
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("challenge: %s: %s: %v", e.Verb, e.Reason, e.Err)
	}
	return fmt.Sprintf("challenge: %s: %s", e.Verb, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalidChallenge
}
