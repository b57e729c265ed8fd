package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshaymaurya-felt/archmole/internal/config"
	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
	"github.com/lakshaymaurya-felt/archmole/internal/recipe"
)

func resetSelections(t *testing.T, sels []*selection) {
	t.Helper()
	t.Cleanup(func() {
		for _, s := range sels {
			s.on = false
		}
	})
}

func names(steps []pipeline.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Name
	}
	return out
}

func TestCleanSteps_DefaultsToSmartClean(t *testing.T) {
	steps := cleanSteps(recipe.Env{})

	assert.Equal(t, []string{"Clean package cache", "Clean user cache", "Remove old kernels", "Clean system logs"}, names(steps))
	for _, s := range steps {
		assert.False(t, s.Critical)
	}
}

func TestCleanSteps_SelectionKeepsFlagOrder(t *testing.T) {
	resetSelections(t, cleanSelections)
	for _, s := range cleanSelections {
		if s.flag == "docker" || s.flag == "temp" {
			s.on = true
		}
	}

	assert.Equal(t, []string{"Clean temporary files", "Clean docker data"}, names(cleanSteps(recipe.Env{})))
}

func TestSelectedSteps_AllAndEmpty(t *testing.T) {
	all := selectedSteps(recipe.Env{}, cleanSelections, true, recipe.SmartClean)
	assert.Len(t, all, len(cleanSelections))

	assert.Empty(t, selectedSteps(recipe.Env{}, optimizeSelections, false, nil))
}

func TestSelections_NameRegisteredBuiltins(t *testing.T) {
	for _, s := range append(append([]*selection{}, cleanSelections...), optimizeSelections...) {
		_, ok := recipe.Lookup(s.op)
		assert.True(t, ok, s.op)
	}
}

func TestRootCommandTree(t *testing.T) {
	want := []string{"clean", "kernels", "optimize", "kill", "analyze", "status", "run", "deps", "update", "config", "completion", "version"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
	for _, flag := range []string{"debug", "dry-run", "no-tui", "config"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestConfigFlag_NamesDefaultPath(t *testing.T) {
	t.Setenv("ARCHMOLE_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/home/cat/.config")

	usage := rootCmd.PersistentFlags().Lookup("config").Usage
	assert.Equal(t, "/home/cat/.config/arch_cleaner.json", config.DefaultConfigPath())
	assert.Contains(t, usage, "$XDG_CONFIG_HOME/arch_cleaner.json")
}

func TestCompletion_Bash(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	rootCmd.SetArgs([]string{"completion", "bash"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "__start_am")
}
