package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
	"github.com/lakshaymaurya-felt/archmole/internal/recipe"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the system",
	Long:  "Run a full system upgrade with pacman -Syu. Same as 'am optimize --update'.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			step := recipe.MustLookup("system-update").Step(a.env(kernel.MatchExact), nil, true)
			return a.runSteps("Updating system", []pipeline.Step{step})
		})
	},
}
