package optimize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
	"github.com/lakshaymaurya-felt/archmole/internal/runner/runnertest"
)

func TestDropCaches_ReportsFreedMemory(t *testing.T) {
	fake := runnertest.New()
	samples := []MemorySnapshot{{Available: 1 << 30}, {Available: 3 << 30}}
	probe := func(context.Context) (MemorySnapshot, error) {
		s := samples[0]
		samples = samples[1:]
		return s, nil
	}

	res, summary, err := DropCaches(context.Background(), fake, probe)

	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "sync && echo 3 > /proc/sys/vm/drop_caches", fake.Commands()[0])
	assert.Equal(t, privilege.Sudo, fake.Calls()[0].Privilege())
	assert.Equal(t, "memory caches dropped (2.0 GiB freed, 3.0 GiB available)", summary)
}

func TestDropCaches_ProbeFailureKeepsPlainSummary(t *testing.T) {
	fake := runnertest.New()
	probe := func(context.Context) (MemorySnapshot, error) { return MemorySnapshot{}, errors.New("no proc") }

	_, summary, err := DropCaches(context.Background(), fake, probe)

	require.NoError(t, err)
	assert.Equal(t, "memory caches dropped", summary)
	assert.Len(t, fake.Calls(), 1)
}

func TestDropCaches_DryRunSkipsMemoryReport(t *testing.T) {
	fake := runnertest.New().On("sync && echo 3", runner.Result{Stdout: "dry-run: would run sync && echo 3 > /proc/sys/vm/drop_caches", Skipped: true}, nil)
	samples := 0
	probe := func(context.Context) (MemorySnapshot, error) {
		samples++
		return MemorySnapshot{Available: 1 << 30}, nil
	}

	res, summary, err := DropCaches(context.Background(), fake, probe)

	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, "memory caches dropped", summary)
	assert.Equal(t, 1, samples, "no sample after a skipped drop")
}

func TestResetVRAM_ResetsOnlyWithComputeApps(t *testing.T) {
	listing := "pid, gpu_name, used_memory [MiB]\n4242, NVIDIA GeForce RTX 3060, 812 MiB\n"
	fake := runnertest.New().Stdout("nvidia-smi --query", listing)

	_, summary, err := ResetVRAM(context.Background(), fake)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"nvidia-smi --query-compute-apps=pid,gpu_name,used_memory --format=csv",
		"nvidia-smi -i 0 -r",
	}, fake.Commands())
	assert.Equal(t, "GPU reset, VRAM released", summary)
}

func TestResetVRAM_NothingRunning(t *testing.T) {
	for _, listing := range []string{
		"pid, gpu_name, used_memory [MiB]\n",
		"No running processes found\n",
	} {
		fake := runnertest.New().Stdout("nvidia-smi --query", listing)

		res, summary, err := ResetVRAM(context.Background(), fake)

		require.NoError(t, err)
		assert.True(t, res.Succeeded())
		assert.Len(t, fake.Calls(), 1)
		assert.Equal(t, "VRAM already clear", summary)
	}
}

func TestResetVRAM_MissingDriverFails(t *testing.T) {
	missing := &runner.Failure{Kind: runner.ErrLaunch, Reason: "nvidia-smi is not installed or not on PATH"}
	fake := runnertest.New().On("nvidia-smi", runner.Result{}, missing)

	_, _, err := ResetVRAM(context.Background(), fake)

	require.ErrorIs(t, err, runner.ErrLaunch)
}

func TestParsePID(t *testing.T) {
	pid, err := ParsePID("4242")
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)

	for _, bad := range []string{"", "abc", "1", "0", "-5"} {
		_, err := ParsePID(bad)
		assert.Error(t, err, bad)
	}
}

func TestKill(t *testing.T) {
	fake := runnertest.New()

	_, summary, err := Kill(context.Background(), fake, 4242)

	require.NoError(t, err)
	assert.Equal(t, []string{"kill -9 4242"}, fake.Commands())
	assert.Equal(t, "process 4242 killed", summary)

	_, _, err = Kill(context.Background(), fake, 1)
	assert.Error(t, err)
	assert.Len(t, fake.Calls(), 1)
}

func TestDisableSleep_MasksAllTargets(t *testing.T) {
	fake := runnertest.New()

	_, _, err := DisableSleep(context.Background(), fake)

	require.NoError(t, err)
	assert.Equal(t, []string{"systemctl mask sleep.target suspend.target hibernate.target hybrid-sleep.target"}, fake.Commands())
}

func TestPerformanceMode_DropsTeeEcho(t *testing.T) {
	fake := runnertest.New().Stdout("echo performance", "performance\nperformance\n")

	res, _, err := PerformanceMode(context.Background(), fake)

	require.NoError(t, err)
	assert.Empty(t, res.Stdout)
	assert.True(t, fake.Calls()[0].Mutating())
}

func TestDistroTune(t *testing.T) {
	t.Run("skips other distros", func(t *testing.T) {
		fake := runnertest.New()
		_, summary, err := DistroTune(context.Background(), fake, false, true)
		require.NoError(t, err)
		assert.Empty(t, fake.Calls())
		assert.Equal(t, "distro tune skipped", summary)
	})

	t.Run("cleans yay cache first", func(t *testing.T) {
		fake := runnertest.New()
		_, _, err := DistroTune(context.Background(), fake, true, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"yay -Sc --noconfirm", "pacman -Syu --noconfirm"}, fake.Commands())
		assert.Equal(t, privilege.None, fake.Calls()[0].Privilege())
	})

	t.Run("without yay", func(t *testing.T) {
		fake := runnertest.New()
		_, _, err := DistroTune(context.Background(), fake, true, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"pacman -Syu --noconfirm"}, fake.Commands())
	})
}

func TestSystemUpdate(t *testing.T) {
	fake := runnertest.New().Exit("pacman -Syu", 1, "error: failed to synchronize all databases")

	res, _, err := SystemUpdate(context.Background(), fake)

	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Equal(t, privilege.PolicyKit, fake.Calls()[0].Privilege())
}
