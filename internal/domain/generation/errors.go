package generation

import (
	"errors"
	"fmt"

	"github.com/ganot/appforge/internal/domain/credential"
)

var (
	// ErrMissingCredential indicates no key is stored for the provider.
	ErrMissingCredential = errors.New("missing credential")
	// ErrCollaboratorFailure indicates the AI provider call failed.
	ErrCollaboratorFailure = errors.New("collaborator failure")
	// ErrStaleResponse indicates the active project changed while the
	// request was in flight. It never reaches the user.
	ErrStaleResponse = errors.New("stale response discarded")
	// ErrInvalidInput indicates an empty prompt or unknown mode.
	ErrInvalidInput = errors.New("invalid generation input")
)

// Cause tags a generation failure.
type Cause string

const (
	CauseMissingCredential   Cause = "missing_credential"
	CauseCollaboratorFailure Cause = "collaborator_failure"
)

// Error is a failed generation. It unwraps to the sentinel for its cause and
// to the underlying error.
type Error struct {
	Cause    Cause
	Provider credential.Provider
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", e.Cause, e.Provider)
	}
	return fmt.Sprintf("%s (%s): %v", e.Cause, e.Provider, e.Err)
}

func (e *Error) Unwrap() []error {
	var sentinel error
	switch e.Cause {
	case CauseMissingCredential:
		sentinel = ErrMissingCredential
	default:
		sentinel = ErrCollaboratorFailure
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}
