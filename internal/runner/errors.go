package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrPrivilegeDenied means the required elevation is unavailable.
	ErrPrivilegeDenied = errors.New("privilege denied")
	// ErrLaunch means the command could not be spawned.
	ErrLaunch = errors.New("launch failure")
	// ErrTimedOut means the command exceeded its time limit and was killed.
	ErrTimedOut = errors.New("timed out")
	// ErrCanceled means the caller's context ended while the command ran.
	ErrCanceled = errors.New("canceled")
)

// Failure reports a command that could not be attempted or completed.
// A command that ran and exited non-zero is not a Failure; see Result.
type Failure struct {
	Kind    error
	Command string
	Reason  string
	Err     error
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	msg := f.Kind.Error()
	if f.Command != "" {
		msg = fmt.Sprintf("%s: %s", msg, f.Command)
	}
	if f.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, f.Reason)
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind}
	}
	return []error{f.Kind, f.Err}
}

func fail(kind error, spec Spec, reason string, err error) *Failure {
	return &Failure{Kind: kind, Command: spec.String(), Reason: reason, Err: err}
}

// IsFailure reports whether err is a runner Failure of any kind.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}
