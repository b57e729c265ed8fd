package pipeline

import (
	"errors"
	"fmt"

	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// State is the lifecycle position of a Run.
type State int

const (
	Pending State = iota
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Completed || s == Aborted
}

func allowed(from, to State) bool {
	switch from {
	case Pending:
		return to == Running || to == Aborted
	case Running:
		return to == Completed || to == Aborted
	default:
		return false
	}
}

var (
	// ErrBusy is returned by Start while another run is active.
	ErrBusy = errors.New("a pipeline run is already active")
	// ErrNoSteps is returned by Start for an empty step list.
	ErrNoSteps = errors.New("pipeline has no steps")
	// ErrCanceled is the error of a run stopped at a step boundary.
	ErrCanceled = errors.New("pipeline canceled")
	// ErrUnsuccessful marks a step whose command exited non-zero.
	ErrUnsuccessful = errors.New("command exited unsuccessfully")
)

// StepError records why a step failed.
type StepError struct {
	Step   string
	Result runner.Result
	Err    error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %q: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step %q: exited with status %d", e.Step, e.Result.ExitCode)
}

func (e *StepError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsuccessful
}
