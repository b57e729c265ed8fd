package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/deps"
	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
	"github.com/lakshaymaurya-felt/archmole/internal/recipe"
	"github.com/lakshaymaurya-felt/archmole/internal/ui"
)

var depsInstall bool

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Check the packages archmole relies on",
	Long: `Report whether pacman-contrib, polkit and docker are installed.
With --install, missing packages are installed with pacman.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if depsInstall {
				step := recipe.MustLookup("deps").Step(a.env(kernel.MatchExact), nil, true)
				return a.runSteps("Installing dependencies", []pipeline.Step{step})
			}

			ctx, stop := signalContext()
			defer stop()
			missing, err := deps.Check(ctx, a.runner, deps.Required)
			if err != nil {
				return err
			}
			absent := make(map[string]bool, len(missing))
			for _, p := range missing {
				absent[p.Name] = true
			}

			w := cmd.OutOrStdout()
			for _, p := range deps.Required {
				mark := ui.SuccessStyle.Render(ui.IconSuccess)
				if absent[p.Name] {
					mark = ui.ErrorStyle.Render(ui.IconError)
				}
				fmt.Fprintf(w, "  %s %-16s %s\n", mark, p.Name, ui.MutedStyle.Render(p.Purpose))
			}
			if len(missing) > 0 {
				fmt.Fprintln(w)
				fmt.Fprintln(w, ui.HintBarStyle.Render("Run 'am deps --install' to install the missing packages."))
			}
			return nil
		})
	},
}

func init() {
	depsCmd.Flags().BoolVar(&depsInstall, "install", false, "Install missing packages")
}
