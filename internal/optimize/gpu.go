package optimize

import (
	"bufio"
	"context"
	"strings"

	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// QueryVRAMSpec lists processes holding GPU memory.
func QueryVRAMSpec() runner.Spec {
	return runner.Command("nvidia-smi", "--query-compute-apps=pid,gpu_name,used_memory", "--format=csv")
}

// ResetGPUSpec resets GPU 0.
func ResetGPUSpec() runner.Spec {
	return runner.Command("nvidia-smi", "-i", "0", "-r").
		WithPrivilege(privilege.Sudo).
		WithMutation().
		WithCombinedOutput()
}

// ComputeApps returns the data rows of a --query-compute-apps CSV listing.
func ComputeApps(out string) []string {
	if strings.Contains(out, "No running") {
		return nil
	}
	var rows []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	header := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if header {
			header = false
			if strings.HasPrefix(line, "pid") {
				continue
			}
		}
		rows = append(rows, line)
	}
	return rows
}

// ResetVRAM resets the GPU when compute processes hold memory on it.
func ResetVRAM(ctx context.Context, ex runner.Execer) (runner.Result, string, error) {
	res, err := ex.Execute(ctx, QueryVRAMSpec())
	if err != nil || !res.Succeeded() {
		return res, "", err
	}
	apps := ComputeApps(res.Stdout)
	if len(apps) == 0 {
		return runner.Result{Stdout: "no compute processes on the GPU"}, "VRAM already clear", nil
	}

	reset, err := ex.Execute(ctx, ResetGPUSpec())
	reset.Stdout = strings.TrimSpace(res.Stdout + "\n" + reset.Stdout)
	return reset, "GPU reset, VRAM released", err
}
