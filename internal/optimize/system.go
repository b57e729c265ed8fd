package optimize

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// SleepTargets are the systemd targets masked by DisableSleep.
var SleepTargets = []string{"sleep.target", "suspend.target", "hibernate.target", "hybrid-sleep.target"}

// ─── Processes ───────────────────────────────────────────────────────────────

// KillSpec sends SIGKILL to pid.
func KillSpec(pid int) runner.Spec {
	return runner.Command("kill", "-9", strconv.Itoa(pid)).
		WithPrivilege(privilege.Sudo).
		WithMutation().
		WithCombinedOutput()
}

// ParsePID validates a process id argument. PID 1 and below are refused.
func ParsePID(s string) (int, error) {
	pid, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid pid %q", s)
	}
	if pid <= 1 {
		return 0, fmt.Errorf("refusing to kill pid %d", pid)
	}
	return pid, nil
}

// Kill force-kills a process.
func Kill(ctx context.Context, ex runner.Execer, pid int) (runner.Result, string, error) {
	if pid <= 1 {
		return runner.Result{}, "", fmt.Errorf("refusing to kill pid %d", pid)
	}
	res, err := ex.Execute(ctx, KillSpec(pid))
	return res, fmt.Sprintf("process %d killed", pid), err
}

// ─── Power ───────────────────────────────────────────────────────────────────

// PerformanceSpec sets every CPU's frequency governor to performance.
func PerformanceSpec() runner.Spec {
	return runner.Shell("echo performance | tee /sys/devices/system/cpu/cpu*/cpufreq/scaling_governor").
		WithPrivilege(privilege.Sudo).
		WithMutation()
}

// PerformanceMode switches the CPU governor to performance.
func PerformanceMode(ctx context.Context, ex runner.Execer) (runner.Result, string, error) {
	res, err := ex.Execute(ctx, PerformanceSpec())
	res.Stdout = "" // tee echoes one line per CPU
	return res, "CPU governor set to performance", err
}

// DisableSleepSpec masks the sleep targets.
func DisableSleepSpec() runner.Spec {
	args := append([]string{"mask"}, SleepTargets...)
	return runner.Command("systemctl", args...).
		WithPrivilege(privilege.Sudo).
		WithMutation().
		WithCombinedOutput()
}

// DisableSleep prevents suspend and hibernation.
func DisableSleep(ctx context.Context, ex runner.Execer) (runner.Result, string, error) {
	res, err := ex.Execute(ctx, DisableSleepSpec())
	return res, "sleep and hibernation disabled", err
}

// ─── Packages ────────────────────────────────────────────────────────────────

// SystemUpdateSpec upgrades every installed package.
func SystemUpdateSpec() runner.Spec {
	return runner.Command("pacman", "-Syu", "--noconfirm").
		WithPrivilege(privilege.PolicyKit).
		WithMutation().
		WithCombinedOutput()
}

// SystemUpdate runs a full system upgrade.
func SystemUpdate(ctx context.Context, ex runner.Execer) (runner.Result, string, error) {
	res, err := ex.Execute(ctx, SystemUpdateSpec())
	return res, "system updated", err
}

// YayCleanSpec cleans the yay build and package cache. yay refuses to run
// as root, so it is not elevated.
func YayCleanSpec() runner.Spec {
	return runner.Command("yay", "-Sc", "--noconfirm").WithMutation().WithCombinedOutput()
}

// DistroTune applies CatOS upkeep: clean the yay cache when yay is
// installed, then upgrade the system. Other distros are skipped.
func DistroTune(ctx context.Context, ex runner.Execer, isCatOS, hasYay bool) (runner.Result, string, error) {
	if !isCatOS {
		return runner.Result{Stdout: "not running CatOS"}, "distro tune skipped", nil
	}
	specs := []runner.Spec{SystemUpdateSpec()}
	if hasYay {
		specs = append([]runner.Spec{YayCleanSpec()}, specs...)
	}
	res, err := runner.Sequence(ctx, ex, specs...)
	return res, "CatOS tuned", err
}
