package recipe

import (
	"context"
	"fmt"
	"strings"

	"github.com/lakshaymaurya-felt/archmole/internal/clean"
	"github.com/lakshaymaurya-felt/archmole/internal/config"
	"github.com/lakshaymaurya-felt/archmole/internal/deps"
	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/oplog"
	"github.com/lakshaymaurya-felt/archmole/internal/optimize"
	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// Env carries what operations need at run time.
type Env struct {
	Exec        runner.Execer
	Gate        *privilege.Gate
	Config      config.Config
	Log         *oplog.Logger
	KernelMatch kernel.MatchMode
	DryRun      bool

	// Probes. Nil disables the report that uses them.
	Release func() (string, error)
	Memory  optimize.MemoryProbe
	Docker  clean.UsageFunc
	IsCatOS func() bool
}

// Func performs an operation and returns its result with a one-line summary
// for the success log.
type Func func(ctx context.Context, env Env, args []string) (runner.Result, string, error)

// Operation is a named, pipeline-ready unit of work.
type Operation struct {
	Name        string
	Description string
	// MinArgs and MaxArgs bound the positional arguments.
	MinArgs, MaxArgs int
	// Sudo is set when the operation may run commands through sudo.
	Sudo bool
	Run  Func
}

// ─── Registry ────────────────────────────────────────────────────────────────

var builtins = []Operation{
	{Name: "package-cache", Description: "Clean package cache", Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return clean.PackageCache(ctx, env.Exec, env.Config.KeepVersions)
	}},
	{Name: "user-cache", Description: "Clean user cache", Sudo: true, Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return clean.UserCache(ctx, env.Exec)
	}},
	{Name: "old-kernels", Description: "Remove old kernels", Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return clean.OldKernels(ctx, env.Exec, env.KernelMatch, env.Release)
	}},
	{Name: "logs", Description: "Clean system logs", Sudo: true, Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return clean.Logs(ctx, env.Exec, env.Config.MaxLogSize)
	}},
	{Name: "temp-files", Description: "Clean temporary files", Sudo: true, Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return clean.TempFiles(ctx, env.Exec)
	}},
	{Name: "docker", Description: "Clean docker data", Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return clean.Docker(ctx, env.Exec, env.Docker)
	}},
	{Name: "large-files", Description: "Find large files", MaxArgs: 1, Run: func(ctx context.Context, env Env, args []string) (runner.Result, string, error) {
		root := "/"
		if len(args) > 0 {
			root = args[0]
		}
		return clean.LargeFiles(ctx, env.Exec, root, env.Config.ExcludeDirs)
	}},
	{Name: "drop-caches", Description: "Drop memory caches", Sudo: true, Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return optimize.DropCaches(ctx, env.Exec, env.Memory)
	}},
	{Name: "reset-vram", Description: "Release GPU memory", Sudo: true, Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return optimize.ResetVRAM(ctx, env.Exec)
	}},
	{Name: "kill", Description: "Kill process", MinArgs: 1, MaxArgs: 1, Sudo: true, Run: func(ctx context.Context, env Env, args []string) (runner.Result, string, error) {
		pid, err := optimize.ParsePID(args[0])
		if err != nil {
			return runner.Result{}, "", err
		}
		return optimize.Kill(ctx, env.Exec, pid)
	}},
	{Name: "performance-mode", Description: "Enable performance mode", Sudo: true, Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return optimize.PerformanceMode(ctx, env.Exec)
	}},
	{Name: "disable-sleep", Description: "Disable sleep mode", Sudo: true, Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return optimize.DisableSleep(ctx, env.Exec)
	}},
	{Name: "distro-tune", Description: "Tune CatOS", Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		isCatOS := env.IsCatOS != nil && env.IsCatOS()
		hasYay := env.Gate != nil && env.Gate.Available("yay")
		return optimize.DistroTune(ctx, env.Exec, isCatOS, hasYay)
	}},
	{Name: "system-update", Description: "Update system", Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return optimize.SystemUpdate(ctx, env.Exec)
	}},
	{Name: "deps", Description: "Install dependencies", Sudo: true, Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
		return deps.Ensure(ctx, env.Exec)
	}},
}

// Builtins returns every registered operation in display order.
func Builtins() []Operation {
	return append([]Operation(nil), builtins...)
}

// Lookup finds a builtin by name.
func Lookup(name string) (Operation, bool) {
	for _, op := range builtins {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Operation {
	op, ok := Lookup(name)
	if !ok {
		panic("recipe: unknown builtin " + name)
	}
	return op
}

// SmartCleanOps are run, in order, by a plain `am clean`.
var SmartCleanOps = []string{"package-cache", "user-cache", "old-kernels", "logs"}

// SmartClean returns the smart clean pipeline. No step is critical.
func SmartClean(env Env) []pipeline.Step {
	steps := make([]pipeline.Step, len(SmartCleanOps))
	for i, name := range SmartCleanOps {
		steps[i] = MustLookup(name).Step(env, nil, false)
	}
	return steps
}

// ─── Steps ───────────────────────────────────────────────────────────────────

// CheckArgs validates the positional argument count.
func (op Operation) CheckArgs(args []string) error {
	if len(args) < op.MinArgs || len(args) > op.MaxArgs {
		if op.MinArgs == op.MaxArgs {
			return fmt.Errorf("%s takes %d argument(s), got %d", op.Name, op.MinArgs, len(args))
		}
		return fmt.Errorf("%s takes %d to %d arguments, got %d", op.Name, op.MinArgs, op.MaxArgs, len(args))
	}
	return nil
}

// Step wraps the operation for a pipeline. The step logs exactly one
// outcome line, preceded by the command output when there is any.
func (op Operation) Step(env Env, args []string, critical bool) pipeline.Step {
	return pipeline.Step{
		Name:     op.Description,
		Critical: critical,
		Sudo:     op.Sudo,
		Action: func(ctx context.Context) (runner.Result, error) {
			if err := op.CheckArgs(args); err != nil {
				report(env, op.Description, runner.Result{}, "", err)
				return runner.Result{}, err
			}
			res, summary, err := op.Run(ctx, env, args)
			report(env, op.Description, res, summary, err)
			return res, err
		},
	}
}

// maxErrorOutput bounds how much command output an error line carries.
const maxErrorOutput = 5

func report(env Env, desc string, res runner.Result, summary string, err error) {
	log := env.Log
	if log == nil {
		return
	}
	if out := strings.TrimSpace(res.Stdout); out != "" {
		log.Infof("%s", out)
	}

	switch {
	case err != nil:
		log.Errorf("%s failed: %v", desc, err)
	case !res.Succeeded():
		detail := res.Stderr
		if strings.TrimSpace(detail) == "" {
			detail = res.Stdout
		}
		log.Errorf("%s failed (exit %d): %s", desc, res.ExitCode, tail(detail, maxErrorOutput))
	default:
		if summary == "" {
			summary = desc + " done"
		}
		if env.DryRun {
			summary = "dry run: " + summary
		}
		log.Successf("%s", summary)
	}
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
