package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/optimize"
	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
	"github.com/lakshaymaurya-felt/archmole/internal/recipe"
)

var killCmd = &cobra.Command{
	Use:   "kill <pid>",
	Short: "Kill a process with SIGKILL",
	Long:  "Send SIGKILL to a process through sudo. PIDs 0 and 1 are refused.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := optimize.ParsePID(args[0]); err != nil {
			return err
		}
		return withApp(func(a *app) error {
			step := recipe.MustLookup("kill").Step(a.env(kernel.MatchExact), args, true)
			return a.runSteps("Killing process "+args[0], []pipeline.Step{step})
		})
	},
}
