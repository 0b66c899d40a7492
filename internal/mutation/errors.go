package mutation

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("mutation: not found")
	ErrUnknownArgument  = errors.New("mutation: unknown argument")
	ErrDuplicateArg     = errors.New("mutation: duplicate argument")
	ErrNoSession        = errors.New("mutation: no open dialog")
	ErrSubmitInFlight   = errors.New("mutation: submission already pending")
	ErrAlreadySucceeded = errors.New("mutation: submission already succeeded")
	ErrNotPending       = errors.New("mutation: no pending submission")
	ErrStaleSession     = errors.New("mutation: stale session")
)

// ValidationError reports a field value that fails its argument rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mutation: field %q: %s", e.Field, e.Reason)
}

// SubmissionError is the failure payload of a remote mutation call.
type SubmissionError struct {
	Code    string
	Message string
}

func (e *SubmissionError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// AsSubmissionError normalises any error returned by an Executor into a
// SubmissionError. A nil error yields nil.
func AsSubmissionError(err error) *SubmissionError {
	if err == nil {
		return nil
	}
	var se *SubmissionError
	if errors.As(err, &se) {
		return se
	}
	return &SubmissionError{Message: err.Error()}
}

func unknownArgument(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownArgument, name)
}
