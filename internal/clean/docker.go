package clean

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"

	"github.com/lakshaymaurya-felt/archmole/internal/core"
	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// DockerUsage summarises what a prune could reclaim.
type DockerUsage struct {
	Images      int
	Containers  int
	LayersSize  int64
	Reclaimable int64
}

// String renders the usage for a log line.
func (u DockerUsage) String() string {
	return fmt.Sprintf("%d images, %d containers, %s layers, %s reclaimable",
		u.Images, u.Containers, core.FormatSize(u.LayersSize), core.FormatSize(u.Reclaimable))
}

// UsageFunc queries docker disk usage.
type UsageFunc func(ctx context.Context) (DockerUsage, error)

// QueryDockerUsage asks the docker daemon for disk usage through the engine
// API. DOCKER_HOST and friends are honoured.
func QueryDockerUsage(ctx context.Context) (DockerUsage, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return DockerUsage{}, fmt.Errorf("docker client: %w", err)
	}
	defer cli.Close()

	du, err := cli.DiskUsage(ctx, types.DiskUsageOptions{})
	if err != nil {
		return DockerUsage{}, fmt.Errorf("docker disk usage: %w", err)
	}

	usage := DockerUsage{
		Images:     len(du.Images),
		Containers: len(du.Containers),
		LayersSize: du.LayersSize,
	}
	for _, img := range du.Images {
		if img != nil && img.Containers == 0 {
			usage.Reclaimable += img.Size - img.SharedSize
		}
	}
	for _, c := range du.Containers {
		if c != nil && c.State != "running" {
			usage.Reclaimable += c.SizeRw
		}
	}
	for _, bc := range du.BuildCache {
		if bc != nil && !bc.InUse {
			usage.Reclaimable += bc.Size
		}
	}
	return usage, nil
}

// DockerPruneSpecs removes stopped containers, dangling data and unused images.
func DockerPruneSpecs() []runner.Spec {
	return []runner.Spec{
		runner.Command("docker", "system", "prune", "-f").WithPrivilege(privilege.PolicyKit).WithMutation().WithCombinedOutput(),
		runner.Command("docker", "image", "prune", "-a", "-f").WithPrivilege(privilege.PolicyKit).WithMutation().WithCombinedOutput(),
	}
}

// Docker prunes docker data. When usage is non-nil the reclaimable estimate
// is reported first; a daemon that cannot be reached only drops the estimate.
func Docker(ctx context.Context, ex runner.Execer, usage UsageFunc) (runner.Result, string, error) {
	summary := "docker data pruned"
	if usage != nil {
		if u, err := usage(ctx); err == nil {
			summary = fmt.Sprintf("docker data pruned (before: %s)", u)
		}
	}
	res, err := runner.Sequence(ctx, ex, DockerPruneSpecs()...)
	return res, summary, err
}
