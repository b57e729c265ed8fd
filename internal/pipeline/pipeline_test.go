package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lakshaymaurya-felt/archmole/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) progress() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []float64
	for _, ev := range r.events {
		if ev.Kind == ProgressChanged {
			out = append(out, ev.Progress)
		}
	}
	return out
}

func succeed(calls *atomic.Int32) Action {
	return func(context.Context) (runner.Result, error) {
		if calls != nil {
			calls.Add(1)
		}
		return runner.Result{Stdout: "ok"}, nil
	}
}

func failWith(err error) Action {
	return func(context.Context) (runner.Result, error) {
		return runner.Result{}, err
	}
}

func TestRun_NonCriticalFailureContinues(t *testing.T) {
	boom := errors.New("mhwd-kernel missing")
	var bCalls atomic.Int32
	e := NewExecutor()

	snap, err := e.Run(context.Background(), []Step{
		{Name: "A", Action: failWith(boom)},
		{Name: "B", Action: succeed(&bCalls)},
	})

	require.NoError(t, err)
	assert.Equal(t, Completed, snap.State)
	require.Len(t, snap.Outcomes, 2)
	assert.False(t, snap.Outcomes[0].Succeeded())
	assert.ErrorIs(t, snap.Outcomes[0].Err, boom)
	assert.True(t, snap.Outcomes[1].Succeeded())
	assert.Equal(t, int32(1), bCalls.Load())
	assert.Equal(t, 1.0, snap.Progress)
}

func TestRun_CriticalFailureAborts(t *testing.T) {
	boom := errors.New("privilege denied")
	var bCalls atomic.Int32
	e := NewExecutor()

	snap, err := e.Run(context.Background(), []Step{
		{Name: "A", Action: failWith(boom), Critical: true},
		{Name: "B", Action: succeed(&bCalls)},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "A", stepErr.Step)
	assert.Equal(t, Aborted, snap.State)
	assert.Len(t, snap.Outcomes, 1)
	assert.Zero(t, bCalls.Load())
}

func TestRun_UnsuccessfulResultFailsStep(t *testing.T) {
	e := NewExecutor()
	unsuccessful := func(context.Context) (runner.Result, error) {
		return runner.Result{ExitCode: 1, Stderr: "unable to lock database"}, nil
	}

	snap, err := e.Run(context.Background(), []Step{{Name: "cache", Action: unsuccessful, Critical: true}})

	assert.ErrorIs(t, err, ErrUnsuccessful)
	assert.Equal(t, Aborted, snap.State)
	assert.Equal(t, 1, snap.Outcomes[0].Result.ExitCode)
}

func TestRun_ProgressInOrder(t *testing.T) {
	rec := &recorder{}
	e := NewExecutor(WithObserver(rec.observe))
	steps := make([]Step, 4)
	for i := range steps {
		steps[i] = Step{Name: string(rune('A' + i)), Action: succeed(nil)}
	}

	_, err := e.Run(context.Background(), steps)

	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.50, 0.75, 1.00}, rec.progress())
}

func TestRun_EventSequence(t *testing.T) {
	rec := &recorder{}
	e := NewExecutor(WithIDFunc(func() string { return "run-1" }))

	_, err := e.Run(context.Background(), []Step{
		{Name: "A", Action: succeed(nil)},
		{Name: "B", Action: failWith(errors.New("x"))},
	}, rec.observe)
	require.NoError(t, err)

	var kinds []EventKind
	for _, ev := range rec.events {
		assert.Equal(t, "run-1", ev.RunID)
		assert.Equal(t, 2, ev.Total)
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{
		StepStarted, StepFinished, ProgressChanged,
		StepStarted, StepFinished, ProgressChanged,
		RunFinished,
	}, kinds)
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, Completed, last.State)
}

func TestStart_RejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	e := NewExecutor()
	blocking := func(context.Context) (runner.Result, error) {
		close(started)
		<-release
		return runner.Result{}, nil
	}

	run, err := e.Start(context.Background(), []Step{{Name: "kernels", Action: blocking}})
	require.NoError(t, err)
	<-started

	_, err = e.Start(context.Background(), []Step{{Name: "cache", Action: succeed(nil)}})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Same(t, run, e.Active())

	close(release)
	snap := run.Wait()
	assert.Equal(t, Completed, snap.State)
	assert.Nil(t, e.Active())

	_, err = e.Run(context.Background(), []Step{{Name: "cache", Action: succeed(nil)}})
	assert.NoError(t, err)
}

func TestCancel_StopsAtStepBoundary(t *testing.T) {
	var secondCalls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	e := NewExecutor()

	run, err := e.Start(context.Background(), []Step{
		{Name: "first", Action: func(context.Context) (runner.Result, error) {
			close(started)
			<-release
			return runner.Result{Stdout: "done"}, nil
		}},
		{Name: "second", Action: succeed(&secondCalls)},
	})
	require.NoError(t, err)

	<-started
	run.Cancel()
	close(release)
	snap := run.Wait()

	assert.Equal(t, Aborted, snap.State)
	assert.ErrorIs(t, snap.Err, ErrCanceled)
	require.Len(t, snap.Outcomes, 1)
	assert.True(t, snap.Outcomes[0].Succeeded(), "in-flight step runs to completion")
	assert.Zero(t, secondCalls.Load())
	assert.Equal(t, 0.5, snap.Progress)
}

func TestCancel_ContextMidStepLetsStepFinish(t *testing.T) {
	var secondCalls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	var stepErr error
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run, err := NewExecutor().Start(ctx, []Step{
		{Name: "pacman -Syu", Critical: true, Action: func(stepCtx context.Context) (runner.Result, error) {
			close(started)
			<-release
			stepErr = stepCtx.Err()
			return runner.Result{Stdout: "upgraded"}, nil
		}},
		{Name: "paccache -rk2", Action: succeed(&secondCalls)},
	})
	require.NoError(t, err)

	<-started
	cancel()
	close(release)
	snap := run.Wait()

	assert.NoError(t, stepErr, "step context outlives the run context")
	assert.Equal(t, Aborted, snap.State)
	assert.ErrorIs(t, snap.Err, ErrCanceled)
	require.Len(t, snap.Outcomes, 1)
	assert.True(t, snap.Outcomes[0].Succeeded())
	assert.Equal(t, "upgraded", snap.Outcomes[0].Result.Stdout)
	assert.Zero(t, secondCalls.Load())
}

func TestCancel_ContextBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32

	snap, err := NewExecutor().Run(ctx, []Step{{Name: "A", Action: succeed(&calls)}})

	assert.ErrorIs(t, err, ErrCanceled)
	assert.Equal(t, Aborted, snap.State)
	assert.Zero(t, calls.Load())
}

func TestStart_NoSteps(t *testing.T) {
	_, err := NewExecutor().Start(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSteps)
}

func TestStart_ReturnsBeforeStepsFinish(t *testing.T) {
	release := make(chan struct{})
	e := NewExecutor()

	run, err := e.Start(context.Background(), []Step{{Name: "slow", Action: func(context.Context) (runner.Result, error) {
		<-release
		return runner.Result{}, nil
	}}})
	require.NoError(t, err)

	select {
	case <-run.Done():
		t.Fatal("run finished before its step was released")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-run.Done()
}

func TestSnapshot_Failed(t *testing.T) {
	snap := Snapshot{Outcomes: []Outcome{{Name: "A"}, {Name: "B", Err: errors.New("x")}}}
	failed := snap.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "B", failed[0].Name)
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, allowed(Pending, Running))
	assert.True(t, allowed(Running, Completed))
	assert.True(t, allowed(Running, Aborted))
	assert.False(t, allowed(Completed, Running))
	assert.False(t, allowed(Aborted, Completed))
	assert.True(t, Completed.Terminal())
	assert.False(t, Running.Terminal())
}
