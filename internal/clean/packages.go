package clean

import (
	"context"
	"fmt"

	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// PackageCacheSpecs returns the pacman and paccache invocations that trim
// the package cache down to keep versions per package.
func PackageCacheSpecs(keep int) []runner.Spec {
	if keep < 1 {
		keep = 1
	}
	return []runner.Spec{
		runner.Command("pacman", "-Sc", "--noconfirm").WithPrivilege(privilege.PolicyKit).WithMutation().WithCombinedOutput(),
		runner.Command("paccache", fmt.Sprintf("-rk%d", keep)).WithPrivilege(privilege.PolicyKit).WithMutation().WithCombinedOutput(),
	}
}

// PackageCache cleans the pacman cache.
func PackageCache(ctx context.Context, ex runner.Execer, keep int) (runner.Result, string, error) {
	res, err := runner.Sequence(ctx, ex, PackageCacheSpecs(keep)...)
	return res, fmt.Sprintf("package cache cleaned (kept %d versions)", keep), err
}

// JournalSpec returns the journal vacuum command for a size cap in MB.
func JournalSpec(maxMB int) runner.Spec {
	return runner.Command("journalctl", fmt.Sprintf("--vacuum-size=%dM", maxMB)).
		WithPrivilege(privilege.Sudo).
		WithMutation().
		WithCombinedOutput()
}

// Logs shrinks the systemd journal to maxMB.
func Logs(ctx context.Context, ex runner.Execer, maxMB int) (runner.Result, string, error) {
	res, err := ex.Execute(ctx, JournalSpec(maxMB))
	return res, fmt.Sprintf("system logs vacuumed to %d MB", maxMB), err
}
