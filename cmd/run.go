package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/recipe"
)

var runCmd = &cobra.Command{
	Use:   "run <recipe.yaml>",
	Short: "Run a YAML recipe",
	Long: `Run the steps of a recipe file in order. A step either names a builtin
operation (op: package-cache) or runs a shell line (run: ...) with an
optional privilege, timeout and critical flag. A failed critical step
aborts the rest of the recipe.

Builtin operations:
  package-cache  user-cache  old-kernels  logs  temp-files  docker
  large-files [path]  drop-caches  reset-vram  kill <pid>
  performance-mode  disable-sleep  distro-tune  system-update  deps`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := kernel.ParseMatchMode(kernelMatch)
		if err != nil {
			return err
		}
		r, err := recipe.Load(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			return a.runSteps(r.Name, r.Build(a.env(mode)))
		})
	},
}

func init() {
	runCmd.Flags().StringVar(&kernelMatch, "kernel-match", "exact", "How the running kernel is matched against installed ones (exact|substring)")
}
