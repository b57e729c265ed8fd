// Package optimize holds the performance and maintenance operations: cache
// dropping, GPU memory reset, power and sleep settings, and distro upkeep.
package optimize

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/lakshaymaurya-felt/archmole/internal/core"
	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// MemorySnapshot is the part of memory state a cache drop changes.
type MemorySnapshot struct {
	Available uint64
	Cached    uint64
	Buffers   uint64
}

// MemoryProbe samples memory state.
type MemoryProbe func(ctx context.Context) (MemorySnapshot, error)

// ProbeMemory reads /proc/meminfo through gopsutil.
func ProbeMemory(ctx context.Context) (MemorySnapshot, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemorySnapshot{}, fmt.Errorf("read memory stats: %w", err)
	}
	return MemorySnapshot{Available: vm.Available, Cached: vm.Cached, Buffers: vm.Buffers}, nil
}

// DropCachesSpec flushes dirty pages and drops the page, dentry and inode caches.
func DropCachesSpec() runner.Spec {
	return runner.Shell("sync && echo 3 > /proc/sys/vm/drop_caches").
		WithPrivilege(privilege.Sudo).
		WithMutation()
}

// DropCaches frees kernel caches. With a probe, the summary reports how much
// memory became available; a dry run reports nothing.
func DropCaches(ctx context.Context, ex runner.Execer, probe MemoryProbe) (runner.Result, string, error) {
	const summary = "memory caches dropped"
	if probe == nil {
		res, err := ex.Execute(ctx, DropCachesSpec())
		return res, summary, err
	}

	before, beforeErr := probe(ctx)
	res, err := ex.Execute(ctx, DropCachesSpec())
	if err != nil || !res.Succeeded() || res.Skipped || beforeErr != nil {
		return res, summary, err
	}

	after, afterErr := probe(ctx)
	if afterErr != nil {
		return res, summary, nil
	}
	var freed int64
	if after.Available > before.Available {
		freed = int64(after.Available - before.Available)
	}
	return res, fmt.Sprintf("%s (%s freed, %s available)", summary,
		core.FormatSize(freed), core.FormatSize(int64(after.Available))), nil
}
