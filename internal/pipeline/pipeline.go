package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// Action performs one step. A returned error or an unsuccessful Result
// fails the step.
type Action func(ctx context.Context) (runner.Result, error)

// Step is one named unit of a pipeline.
type Step struct {
	Name     string
	Action   Action
	Critical bool
	// Sudo marks steps that may elevate through sudo.
	Sudo bool
}

// NeedsSudo reports whether any step may elevate through sudo.
func NeedsSudo(steps []Step) bool {
	for _, s := range steps {
		if s.Sudo {
			return true
		}
	}
	return false
}

// Outcome is the recorded result of an attempted step.
type Outcome struct {
	Name     string
	Critical bool
	Result   runner.Result
	Err      error
	Started  time.Time
	Finished time.Time
}

// Succeeded reports whether the step completed without error.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// EventKind classifies an Event.
type EventKind int

const (
	StepStarted EventKind = iota
	StepFinished
	ProgressChanged
	RunFinished
)

// Event is pushed to observers as a run advances. Events of one run are
// delivered in order on the run's goroutine.
type Event struct {
	RunID    string
	Kind     EventKind
	Step     string
	Index    int
	Total    int
	Progress float64
	Outcome  Outcome
	State    State
	Err      error
}

// Observer receives run events. It must not block for long: the next step
// starts only after every observer returns.
type Observer func(Event)

// Snapshot is a point-in-time copy of a run.
type Snapshot struct {
	ID       string
	State    State
	Progress float64
	Total    int
	Outcomes []Outcome
	Err      error
}

// Failed returns the outcomes of failed steps.
func (s Snapshot) Failed() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Run is one execution of a step list. Its state is written only by the
// executor goroutine; callers read it through Snapshot.
type Run struct {
	id        string
	steps     []Step
	observers []Observer

	mu       sync.Mutex
	state    State
	progress float64
	outcomes []Outcome
	err      error

	canceled atomic.Bool
	done     chan struct{}
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Cancel asks the run to stop before its next step. A step already in
// flight is not interrupted.
func (r *Run) Cancel() { r.canceled.Store(true) }

// Done is closed once the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run ends and returns its final snapshot.
func (r *Run) Wait() Snapshot {
	<-r.done
	return r.Snapshot()
}

// Snapshot returns the current state of the run.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		ID:       r.id,
		State:    r.state,
		Progress: r.progress,
		Total:    len(r.steps),
		Outcomes: append([]Outcome(nil), r.outcomes...),
		Err:      r.err,
	}
}

func (r *Run) transition(to State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !allowed(r.state, to) {
		panic(fmt.Sprintf("pipeline: invalid transition %s -> %s", r.state, to))
	}
	r.state = to
	if err != nil {
		r.err = err
	}
}

func (r *Run) record(o Outcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
}

func (r *Run) setProgress(p float64) {
	r.mu.Lock()
	r.progress = p
	r.mu.Unlock()
}

func (r *Run) emit(ev Event) {
	ev.RunID = r.id
	ev.Total = len(r.steps)
	for _, obs := range r.observers {
		obs(ev)
	}
}

// Executor runs pipelines one at a time. Starting a run while another is
// active is rejected with ErrBusy rather than queued.
type Executor struct {
	mu        sync.Mutex
	active    *Run
	observers []Observer
	newID     func() string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithObserver adds an observer notified for every run.
func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) { e.observers = append(e.observers, o) }
}

// WithIDFunc overrides run ID generation.
func WithIDFunc(fn func() string) ExecutorOption {
	return func(e *Executor) { e.newID = fn }
}

// NewExecutor returns an idle Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Active returns the running pipeline, or nil.
func (e *Executor) Active() *Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Start launches steps on a background goroutine and returns immediately.
// Extra observers apply to this run only. Ending ctx cancels the run like
// Run.Cancel: it is checked between steps only, and actions receive a
// context that keeps ctx's values but is never canceled, so a started step
// always runs to completion.
func (e *Executor) Start(ctx context.Context, steps []Step, observers ...Observer) (*Run, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	run := &Run{
		id:        e.newID(),
		steps:     append([]Step(nil), steps...),
		observers: append(append([]Observer(nil), e.observers...), observers...),
		done:      make(chan struct{}),
	}
	e.active = run
	e.mu.Unlock()

	go e.execute(ctx, run)
	return run, nil
}

// Run starts steps and waits for the run to finish. The returned error is
// the run's error: nil when Completed.
func (e *Executor) Run(ctx context.Context, steps []Step, observers ...Observer) (Snapshot, error) {
	run, err := e.Start(ctx, steps, observers...)
	if err != nil {
		return Snapshot{}, err
	}
	snap := run.Wait()
	return snap, snap.Err
}

func (e *Executor) execute(ctx context.Context, run *Run) {
	defer func() {
		e.mu.Lock()
		if e.active == run {
			e.active = nil
		}
		e.mu.Unlock()
		close(run.done)
	}()

	run.transition(Running, nil)
	total := len(run.steps)
	final := Completed
	var runErr error

	for i, step := range run.steps {
		if run.canceled.Load() || ctx.Err() != nil {
			final, runErr = Aborted, ErrCanceled
			break
		}

		run.emit(Event{Kind: StepStarted, Step: step.Name, Index: i})

		started := time.Now()
		res, err := step.Action(context.WithoutCancel(ctx))
		if err != nil || !res.Succeeded() {
			err = &StepError{Step: step.Name, Result: res, Err: err}
		}
		outcome := Outcome{
			Name:     step.Name,
			Critical: step.Critical,
			Result:   res,
			Err:      err,
			Started:  started,
			Finished: time.Now(),
		}
		run.record(outcome)
		run.emit(Event{Kind: StepFinished, Step: step.Name, Index: i, Outcome: outcome})

		if err != nil && step.Critical {
			final, runErr = Aborted, err
			break
		}

		progress := float64(i+1) / float64(total)
		run.setProgress(progress)
		run.emit(Event{Kind: ProgressChanged, Step: step.Name, Index: i, Progress: progress})
	}

	run.transition(final, runErr)
	snap := run.Snapshot()
	run.emit(Event{Kind: RunFinished, State: final, Progress: snap.Progress, Err: runErr})
}
