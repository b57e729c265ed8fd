package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gookit/color"
	"github.com/mattn/go-isatty"

	"github.com/lakshaymaurya-felt/archmole/internal/clean"
	"github.com/lakshaymaurya-felt/archmole/internal/config"
	"github.com/lakshaymaurya-felt/archmole/internal/core"
	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/oplog"
	"github.com/lakshaymaurya-felt/archmole/internal/optimize"
	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/recipe"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
	"github.com/lakshaymaurya-felt/archmole/internal/ui"
)

// errStepsFailed is returned when a run finished with failed steps. The
// failures are already logged, so main only sets the exit status.
var errStepsFailed = errors.New("one or more steps failed")

// app is the wiring shared by every command.
type app struct {
	store    *config.Store
	cfg      config.Config
	log      *oplog.Logger
	fileSink *oplog.FileSink
	gate     *privilege.Gate
	runner   *runner.Runner
	executor *pipeline.Executor
}

// newApp loads the configuration and builds the logger, privilege gate,
// runner and pipeline executor.
func newApp() (*app, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	store := config.NewStore(path)
	a := &app{
		store: store,
		cfg:   store.Load(),
		log:   oplog.New(),
		gate:  privilege.NewGate(),
	}

	if sink, err := oplog.NewFileSink(config.DefaultLogPath(), a.cfg.MaxLogSize); err == nil {
		a.fileSink = sink
		a.log.AddSink(sink)
	} else if debug {
		fmt.Fprintf(os.Stderr, "log file disabled: %v\n", err)
	}

	opts := []runner.Option{runner.WithDryRun(dryRun)}
	if debug {
		opts = append(opts, runner.WithTrace(a.traceCommand))
	}
	a.runner = runner.New(a.gate, opts...)
	a.executor = pipeline.NewExecutor(pipeline.WithObserver(a.tagRun))
	return a, nil
}

func (a *app) close() {
	if a.fileSink != nil {
		_ = a.fileSink.Close()
	}
}

func (a *app) traceCommand(t runner.Trace) {
	switch {
	case t.Err != nil:
		a.log.Infof("$ %s -> %v", strings.Join(t.Argv, " "), t.Err)
	case t.DryRun:
		a.log.Infof("$ %s (skipped, dry run)", strings.Join(t.Argv, " "))
	default:
		a.log.Infof("$ %s -> exit %d in %s", strings.Join(t.Argv, " "), t.Result.ExitCode, t.Result.Duration.Round(time.Millisecond))
	}
}

// tagRun stamps log lines with the run ID. Observers run before each
// step's action, so every line a step logs carries its run.
func (a *app) tagRun(ev pipeline.Event) {
	a.log.SetRun(ev.RunID)
}

// env returns the operation environment for the current flags.
func (a *app) env(match kernel.MatchMode) recipe.Env {
	return recipe.Env{
		Exec:        a.runner,
		Gate:        a.gate,
		Config:      a.cfg,
		Log:         a.log,
		KernelMatch: match,
		DryRun:      dryRun,
		Release:     core.KernelRelease,
		Memory:      optimize.ProbeMemory,
		Docker:      clean.QueryDockerUsage,
		IsCatOS:     core.IsCatOS,
	}
}

// ─── Running pipelines ───────────────────────────────────────────────────────

// useTUI reports whether output goes to an interactive terminal.
func useTUI() bool {
	if noTUI {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// cancelOnSignal cancels run at the next step boundary on SIGINT or
// SIGTERM. The step in flight keeps running. The returned func stops
// listening.
func cancelOnSignal(run *pipeline.Run, log *oplog.Logger) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			log.Infof("canceling: the current step will finish first")
			run.Cancel()
		case <-run.Done():
		}
	}()
	return func() { signal.Stop(sigs) }
}

// checkDistro warns when the system is not Arch-based. Unknown releases
// are not reported.
func (a *app) checkDistro(rel core.OSRelease) {
	if rel.ID == "" || rel.IsArchFamily() {
		return
	}
	name := rel.PrettyName
	if name == "" {
		name = rel.ID
	}
	a.log.Infof("%s is not Arch-based; pacman steps will likely fail", name)
}

// authenticate caches sudo credentials in the foreground, before a run
// that may need them takes over the terminal. Without a terminal the run
// goes ahead and its sudo commands fail instead of prompting.
func (a *app) authenticate(steps []pipeline.Step) error {
	if dryRun || !pipeline.NeedsSudo(steps) {
		return nil
	}
	ctx, stop := signalContext()
	defer stop()
	err := a.gate.Authenticate(ctx, isatty.IsTerminal(os.Stdin.Fd()))
	if errors.Is(err, privilege.ErrNoTicket) {
		a.log.Infof("%v; steps that need sudo will fail", err)
		return nil
	}
	return err
}

// runSteps executes steps as one pipeline run, in the TUI when attached to
// a terminal and as plain log lines otherwise.
func (a *app) runSteps(title string, steps []pipeline.Step) error {
	if dryRun {
		a.log.Infof("dry run: privileged and destructive commands are only reported")
	}
	if rel, err := core.ReadOSRelease(); err == nil {
		a.checkDistro(rel)
	}
	if err := a.authenticate(steps); err != nil {
		return err
	}
	var (
		snap pipeline.Snapshot
		err  error
	)
	if useTUI() {
		snap, err = a.runTUI(title, steps)
	} else {
		snap, err = a.runPlain(title, steps)
	}
	if err != nil && snap.ID == "" {
		return err
	}
	if snap.State == pipeline.Aborted || len(snap.Failed()) > 0 {
		return errStepsFailed
	}
	return nil
}

func (a *app) runPlain(title string, steps []pipeline.Step) (pipeline.Snapshot, error) {
	a.log.AddSink(oplog.NewConsoleSink(os.Stdout))

	color.Bold.Println(title)
	progress := func(ev pipeline.Event) {
		if ev.Kind == pipeline.StepStarted {
			color.FgDarkGray.Printf("[%d/%d] %s\n", ev.Index+1, len(steps), ev.Step)
		}
	}
	run, err := a.executor.Start(context.Background(), steps, progress)
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	stop := cancelOnSignal(run, a.log)
	defer stop()
	snap := run.Wait()
	a.logFinished(snap)
	printSummary(os.Stdout, snap)
	return snap, snap.Err
}

func (a *app) runTUI(title string, steps []pipeline.Step) (pipeline.Snapshot, error) {
	var program *tea.Program
	a.log.AddSink(oplog.FuncSink(func(l oplog.Line) {
		program.Send(ui.LogMsg{Line: l})
	}))

	// Start before the program exists so the model can hold the run's Cancel.
	// Observers block in Send until the program starts reading.
	var run *pipeline.Run
	model := ui.NewPipelineModel(title, steps, func() {
		if run != nil {
			run.Cancel()
		}
	})
	program = tea.NewProgram(model)

	run, err := a.executor.Start(context.Background(), steps, func(ev pipeline.Event) {
		program.Send(ui.EventMsg{Event: ev})
	})
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	if _, err := program.Run(); err != nil {
		run.Cancel()
		snap := run.Wait()
		return snap, fmt.Errorf("terminal UI: %w", err)
	}
	snap := run.Wait()
	a.logFinished(snap)
	return snap, snap.Err
}

// logFinished records the run's final state, tagged with its ID.
func (a *app) logFinished(snap pipeline.Snapshot) {
	if snap.Err != nil {
		a.log.Infof("run %s %s: %v", snap.ID, snap.State, snap.Err)
		return
	}
	a.log.Infof("run %s %s", snap.ID, snap.State)
}

func printSummary(w io.Writer, snap pipeline.Snapshot) {
	failed := snap.Failed()
	switch {
	case snap.State == pipeline.Aborted:
		fmt.Fprintln(w, color.Error.Sprintf("%s Aborted at %.0f%%: %v", ui.IconError, snap.Progress*100, snap.Err))
	case len(failed) > 0:
		names := make([]string, len(failed))
		for i, o := range failed {
			names[i] = o.Name
		}
		fmt.Fprintln(w, color.Warn.Sprintf("%s Completed with failures: %s", ui.IconError, strings.Join(names, ", ")))
	default:
		fmt.Fprintln(w, color.Success.Sprintf("%s Completed", ui.IconSuccess))
	}
	fmt.Fprintln(w, color.FgDarkGray.Sprintf("Run ID: %s", snap.ID))
}
