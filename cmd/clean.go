package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
	"github.com/lakshaymaurya-felt/archmole/internal/recipe"
)

// selection maps a boolean flag to the builtin it enables.
type selection struct {
	flag string
	op   string
	on   bool
}

var (
	cleanAll    bool
	kernelMatch string

	cleanSelections = []*selection{
		{flag: "package-cache", op: "package-cache"},
		{flag: "user-cache", op: "user-cache"},
		{flag: "kernels", op: "old-kernels"},
		{flag: "logs", op: "logs"},
		{flag: "temp", op: "temp-files"},
		{flag: "docker", op: "docker"},
	}
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Free up disk space",
	Long: `Clean package caches, user caches, old kernels, logs, temporary files
and Docker data.

Without a selection flag the smart clean runs: package cache, user cache,
old kernels and logs. Failed steps are reported and the rest still run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := kernel.ParseMatchMode(kernelMatch)
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			env := a.env(mode)
			return a.runSteps("Cleaning system", cleanSteps(env))
		})
	},
}

// cleanSteps returns the selected clean steps, the smart clean when nothing
// is selected, or every clean operation with --all.
func cleanSteps(env recipe.Env) []pipeline.Step {
	return selectedSteps(env, cleanSelections, cleanAll, recipe.SmartClean)
}

func selectedSteps(env recipe.Env, sels []*selection, all bool, fallback func(recipe.Env) []pipeline.Step) []pipeline.Step {
	var steps []pipeline.Step
	for _, s := range sels {
		if all || s.on {
			steps = append(steps, recipe.MustLookup(s.op).Step(env, nil, false))
		}
	}
	if len(steps) == 0 && fallback != nil {
		return fallback(env)
	}
	return steps
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Run every clean operation")
	for _, s := range cleanSelections {
		op := recipe.MustLookup(s.op)
		cleanCmd.Flags().BoolVar(&s.on, s.flag, false, op.Description)
	}
	cleanCmd.Flags().StringVar(&kernelMatch, "kernel-match", "exact", "How the running kernel is matched against installed ones (exact|substring)")
}
