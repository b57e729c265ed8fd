package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/clean"
	"github.com/lakshaymaurya-felt/archmole/internal/core"
	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/ui"
)

var kernelsCmd = &cobra.Command{
	Use:   "kernels",
	Short: "List installed kernels and the removable set",
	Long: `List the kernels mhwd-kernel reports, mark the running one and show
which would be removed by 'am clean --kernels'. Nothing is removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := kernel.ParseMatchMode(kernelMatch)
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			if !a.gate.Available("mhwd-kernel") {
				return fmt.Errorf("mhwd-kernel not found; kernel listing needs a Manjaro-based system")
			}
			ctx, stop := signalContext()
			defer stop()

			plan, res, err := clean.PlanKernels(ctx, a.runner, mode, core.KernelRelease)
			if err != nil {
				return err
			}
			if !res.Succeeded() {
				return fmt.Errorf("mhwd-kernel -li exited %d: %s", res.ExitCode, res.Output())
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, ui.TitleStyle.Render("Installed kernels"))
			fmt.Fprintln(w, ui.MutedStyle.Render(fmt.Sprintf("running %s, matching %s", plan.Running, mode)))
			fmt.Fprintln(w)
			for _, e := range plan.Installed {
				if e.Running {
					fmt.Fprintf(w, "  %s %s %s\n", ui.SuccessStyle.Render(ui.IconSuccess), e.Identifier, ui.MutedStyle.Render("(running)"))
				} else {
					fmt.Fprintf(w, "  %s %s %s\n", ui.ErrorStyle.Render(ui.IconBullet), e.Identifier, ui.MutedStyle.Render("(removable)"))
				}
			}
			fmt.Fprintln(w)
			if len(plan.Removable) == 0 {
				fmt.Fprintln(w, ui.HintBarStyle.Render("No old kernels to remove."))
			} else {
				fmt.Fprintln(w, ui.HintBarStyle.Render(fmt.Sprintf("%d removable; run 'am clean --kernels' to remove them.", len(plan.Removable))))
			}
			return nil
		})
	},
}

func init() {
	kernelsCmd.Flags().StringVar(&kernelMatch, "kernel-match", "exact", "How the running kernel is matched against installed ones (exact|substring)")
}
