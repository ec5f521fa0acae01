package runner

import (
	"errors"
	"fmt"
)

// Failure kinds. The runner treats all of them the same way; the kind only
// tells the operator what went wrong.
var (
	// ErrSynchronization means a wait condition (address reached, element
	// visible) did not hold within its timeout.
	ErrSynchronization = errors.New("synchronization failure")

	// ErrElementResolution means a target could not be found or acted on.
	ErrElementResolution = errors.New("element resolution failure")

	// ErrAssertion means an expected UI state (modal visible or gone) did not hold.
	ErrAssertion = errors.New("assertion failure")

	// ErrCapture means a screenshot could not be written.
	ErrCapture = errors.New("evidence capture failure")
)

// StepError reports which checkpoint failed, in which state, and why.
// errors.Is matches both the kind and the underlying cause.
type StepError struct {
	Checkpoint string
	State      State
	Kind       error
	Err        error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v at %s (state %s): %v", e.Kind, e.Checkpoint, e.State, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
