package annotation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPhase is returned when a control is used while it is disabled.
	ErrInvalidPhase   = errors.New("operation not allowed in current phase")
	ErrNoCandidate    = errors.New("no candidate assigned")
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrEmptyQueue signals that no candidate is pending. It is not a failure.
	ErrEmptyQueue    = errors.New("no candidates below threshold")
	ErrStaleResponse = errors.New("response superseded by a newer request")
)

// ValidationError reports a payload the store rejected. The session keeps running so
// the annotator's work is not lost.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// TransientStoreError wraps a network or server failure talking to the candidate store.
type TransientStoreError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientStoreError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("store %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// asStoreError keeps typed store errors intact and wraps anything else as transient.
func asStoreError(op string, err error) error {
	var validation *ValidationError
	var transient *TransientStoreError
	if errors.As(err, &validation) || errors.As(err, &transient) {
		return err
	}
	return &TransientStoreError{Op: op, Err: err}
}
