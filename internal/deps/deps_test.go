package deps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
	"github.com/lakshaymaurya-felt/archmole/internal/runner/runnertest"
)

func TestCheck_ReportsMissing(t *testing.T) {
	fake := runnertest.New().
		Exit("pacman -Qi pacman-contrib", 1, "error: package 'pacman-contrib' was not found").
		Exit("pacman -Qi docker", 1, "error: package 'docker' was not found")

	missing, err := Check(context.Background(), fake, Required)

	require.NoError(t, err)
	assert.Equal(t, []string{"pacman-contrib", "docker"}, Names(missing))
	assert.Len(t, fake.Calls(), 3)
}

func TestCheck_PacmanMissingIsError(t *testing.T) {
	fail := &runner.Failure{Kind: runner.ErrLaunch, Reason: "pacman is not installed or not on PATH"}
	fake := runnertest.New().On("pacman", runner.Result{}, fail)

	_, err := Check(context.Background(), fake, Required)

	require.ErrorIs(t, err, runner.ErrLaunch)
}

func TestInstall_AttemptsEveryPackage(t *testing.T) {
	fake := runnertest.New().Exit("pacman -S --noconfirm polkit", 1, "error: target not found: polkit")

	err := Install(context.Background(), fake, Required)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "install polkit")
	assert.Equal(t, []string{
		"pacman -S --noconfirm pacman-contrib",
		"pacman -S --noconfirm polkit",
		"pacman -S --noconfirm docker",
	}, fake.Commands())
	for _, c := range fake.Calls() {
		assert.Equal(t, privilege.Sudo, c.Privilege())
	}
}

func TestEnsure(t *testing.T) {
	fake := runnertest.New().Exit("pacman -Qi docker", 1, "")

	_, summary, err := Ensure(context.Background(), fake)

	require.NoError(t, err)
	assert.Equal(t, "installed docker", summary)
	assert.Equal(t, "pacman -S --noconfirm docker", fake.Commands()[3])
}

func TestEnsure_NothingMissing(t *testing.T) {
	fake := runnertest.New()

	_, summary, err := Ensure(context.Background(), fake)

	require.NoError(t, err)
	assert.Equal(t, "all dependencies installed", summary)
	assert.Len(t, fake.Calls(), 3)
}
