package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/recipe"
)

var optimizeSelections = []*selection{
	{flag: "memory", op: "drop-caches"},
	{flag: "vram", op: "reset-vram"},
	{flag: "performance", op: "performance-mode"},
	{flag: "no-sleep", op: "disable-sleep"},
	{flag: "distro", op: "distro-tune"},
	{flag: "update", op: "system-update"},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Tune memory, GPU and power settings",
	Long: `Drop memory caches, release GPU memory, switch the CPU governor to
performance, disable sleep targets, tune CatOS or update the system.

At least one selection flag is required; the selected steps run in the
order listed here.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			steps := selectedSteps(a.env(kernel.MatchExact), optimizeSelections, false, nil)
			if len(steps) == 0 {
				return errors.New("nothing selected; see am optimize --help")
			}
			return a.runSteps("Optimizing system", steps)
		})
	},
}

func init() {
	for _, s := range optimizeSelections {
		optimizeCmd.Flags().BoolVar(&s.on, s.flag, false, recipe.MustLookup(s.op).Description)
	}
}
