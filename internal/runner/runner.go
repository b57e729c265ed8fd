package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
)

// Execer executes a single Spec. Runner is the production implementation;
// operations depend on this interface so tests can script outcomes.
type Execer interface {
	Execute(ctx context.Context, spec Spec) (Result, error)
}

// Trace describes one finished Execute call, for debug logging.
type Trace struct {
	Spec   Spec
	Argv   []string
	DryRun bool
	Result Result
	Err    error
}

// Runner executes Specs behind a privilege pre-flight.
type Runner struct {
	gate     *privilege.Gate
	launcher Launcher
	dryRun   bool
	trace    func(Trace)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLauncher replaces the process launcher.
func WithLauncher(l Launcher) Option {
	return func(r *Runner) { r.launcher = l }
}

// WithDryRun makes the runner skip mutating specs.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// WithTrace registers a callback invoked after every Execute.
func WithTrace(fn func(Trace)) Option {
	return func(r *Runner) { r.trace = fn }
}

// New returns a Runner using gate for privilege checks and PATH lookups.
func New(gate *privilege.Gate, opts ...Option) *Runner {
	r := &Runner{
		gate:     gate,
		launcher: CmdLauncher{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs spec and returns its Result. A non-zero exit is returned as
// an unsuccessful Result with a nil error. The returned error is always a
// *Failure: the command was denied, could not be spawned, timed out, or
// was canceled.
func (r *Runner) Execute(ctx context.Context, spec Spec) (res Result, err error) {
	argv := spec.Argv()
	dry := false
	if r.trace != nil {
		defer func() {
			r.trace(Trace{Spec: spec, Argv: argv, DryRun: dry, Result: res, Err: err})
		}()
	}

	decision := r.gate.Check(spec.Privilege())
	if !decision.Allowed {
		return Result{}, fail(ErrPrivilegeDenied, spec, decision.Reason, nil)
	}
	if !r.gate.Available(spec.Program()) {
		return Result{}, fail(ErrLaunch, spec, fmt.Sprintf("%s is not installed or not on PATH", spec.Program()), nil)
	}
	argv = decision.Wrap(argv)

	if r.dryRun && spec.Mutating() {
		dry = true
		return Result{Stdout: "dry-run: would run " + spec.String(), Skipped: true}, nil
	}

	runCtx := ctx
	if spec.Timeout() > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout())
		defer cancel()
	}

	start := time.Now()
	out, launchErr := r.launcher.Launch(runCtx, argv, LaunchOptions{Combined: spec.Combined()})
	res = Result{
		ExitCode: out.ExitCode,
		Stdout:   joinLines(out.Stdout),
		Stderr:   joinLines(out.Stderr),
		Duration: out.Runtime,
	}
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}

	switch {
	case launchErr == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, fail(ErrCanceled, spec, "", ctx.Err())
	case errors.Is(launchErr, context.DeadlineExceeded) || runCtx.Err() != nil:
		return res, fail(ErrTimedOut, spec, fmt.Sprintf("exceeded %s", spec.Timeout()), nil)
	default:
		return res, fail(ErrLaunch, spec, "", launchErr)
	}
}

// Sequence executes specs in order through ex. Unsuccessful results do not
// stop the sequence; a Failure does. The merged Result carries the first
// non-zero exit code and all captured output.
func Sequence(ctx context.Context, ex Execer, specs ...Spec) (Result, error) {
	var merged Result
	for _, spec := range specs {
		res, err := ex.Execute(ctx, spec)
		merged = merged.merge(res)
		if err != nil {
			return merged, err
		}
	}
	return merged, nil
}
