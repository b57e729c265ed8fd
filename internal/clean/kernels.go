package clean

import (
	"context"
	"fmt"
	"strings"

	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// KernelPlan is the removal decision for installed kernels. It is derived
// fresh on every call and must not be reused after kernels change.
type KernelPlan struct {
	Running   string
	Installed []kernel.Entry
	Removable []kernel.Entry
}

// ListKernelsSpec lists installed kernels with mhwd-kernel.
func ListKernelsSpec() runner.Spec {
	return runner.Command("mhwd-kernel", "-li")
}

// PlanKernels lists installed kernels and decides which can go. The running
// kernel comes from the listing's "Currently running" line, else from
// release(). An unsuccessful listing is returned as-is with an empty plan.
func PlanKernels(ctx context.Context, ex runner.Execer, mode kernel.MatchMode, release func() (string, error)) (KernelPlan, runner.Result, error) {
	res, err := ex.Execute(ctx, ListKernelsSpec())
	if err != nil || !res.Succeeded() {
		return KernelPlan{}, res, err
	}

	running := kernel.RunningFromListing(res.Stdout)
	if running == "" && release != nil {
		rel, relErr := release()
		if relErr != nil {
			return KernelPlan{}, res, fmt.Errorf("determine running kernel: %w", relErr)
		}
		running = kernel.RunningFromRelease(rel)
	}
	if running == "" {
		return KernelPlan{}, res, fmt.Errorf("cannot determine the running kernel")
	}

	return KernelPlan{
		Running:   running,
		Installed: kernel.Parse(running, res.Stdout, mode),
		Removable: kernel.ComputeRemovable(running, res.Stdout, mode),
	}, res, nil
}

// RemoveKernelsSpec removes kernel packages with their unneeded dependencies.
func RemoveKernelsSpec(entries []kernel.Entry) runner.Spec {
	args := append([]string{"-Rns", "--noconfirm"}, kernel.Identifiers(entries)...)
	return runner.Command("pacman", args...).
		WithPrivilege(privilege.PolicyKit).
		WithMutation().
		WithCombinedOutput()
}

// OldKernels removes every installed kernel except the running one.
func OldKernels(ctx context.Context, ex runner.Execer, mode kernel.MatchMode, release func() (string, error)) (runner.Result, string, error) {
	plan, res, err := PlanKernels(ctx, ex, mode, release)
	if err != nil || !res.Succeeded() {
		return res, "", err
	}
	if len(plan.Removable) == 0 {
		return runner.Result{Stdout: fmt.Sprintf("running %s; no old kernels installed", plan.Running)}, "no old kernels to remove", nil
	}

	ids := kernel.Identifiers(plan.Removable)
	res, err = ex.Execute(ctx, RemoveKernelsSpec(plan.Removable))
	return res, fmt.Sprintf("removed kernels %s (kept %s)", strings.Join(ids, ", "), plan.Running), err
}
