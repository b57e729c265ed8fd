package clean

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/lakshaymaurya-felt/archmole/internal/config"
	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// ─── User Cache Scanning ─────────────────────────────────────────────────────

// ExpandTargets resolves the glob patterns of targets to existing paths,
// deduplicated and sorted. Protected paths are dropped.
func ExpandTargets(targets []config.CleanTarget) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, t := range targets {
		for _, pattern := range t.Paths {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				continue
			}
			for _, m := range matches {
				m = filepath.Clean(m)
				if seen[m] || config.IsProtected(m) {
					continue
				}
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// ─── Removal ─────────────────────────────────────────────────────────────────

// RemoveTargets deletes the expanded paths of targets with a single
// `rm -rf`. Targets flagged RequiresAdmin are removed with sudo. When no
// path exists the result is successful and nothing is spawned.
func RemoveTargets(ctx context.Context, ex runner.Execer, targets []config.CleanTarget) (runner.Result, int, error) {
	var user, admin []config.CleanTarget
	for _, t := range targets {
		if t.RequiresAdmin {
			admin = append(admin, t)
		} else {
			user = append(user, t)
		}
	}

	var specs []runner.Spec
	removed := 0
	if paths := ExpandTargets(user); len(paths) > 0 {
		specs = append(specs, rmSpec(paths))
		removed += len(paths)
	}
	if paths := ExpandTargets(admin); len(paths) > 0 {
		specs = append(specs, rmSpec(paths).WithPrivilege(privilege.Sudo))
		removed += len(paths)
	}
	if len(specs) == 0 {
		return runner.Result{Stdout: "nothing to clean"}, 0, nil
	}

	res, err := runner.Sequence(ctx, ex, specs...)
	return res, removed, err
}

func rmSpec(paths []string) runner.Spec {
	args := append([]string{"-rf", "--"}, paths...)
	return runner.Command("rm", args...).WithMutation()
}

// UserCache removes ~/.cache contents, ~/.thumbnails and the trash.
func UserCache(ctx context.Context, ex runner.Execer) (runner.Result, string, error) {
	res, n, err := RemoveTargets(ctx, ex, config.GetTargetsByCategory("user"))
	return res, fmt.Sprintf("user cache cleaned (%d paths)", n), err
}

// TempFiles removes everything under /tmp as root.
func TempFiles(ctx context.Context, ex runner.Execer) (runner.Result, string, error) {
	res, n, err := RemoveTargets(ctx, ex, config.GetTargetsByCategory("system"))
	return res, fmt.Sprintf("temporary files cleaned (%d paths)", n), err
}
