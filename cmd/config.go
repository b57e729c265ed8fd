package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/config"
	"github.com/lakshaymaurya-felt/archmole/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Settings live in arch_cleaner.json:

  keep_versions  package versions paccache keeps (default 2)
  max_log_size   journal vacuum and log rotation size in MB (default 100)
  exclude_dirs   comma-separated directories skipped by the large file search`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, ui.MutedStyle.Render(a.store.Path()))
			for _, key := range config.Keys {
				val, err := a.cfg.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "  %-14s %s\n", key, val)
			}
			return nil
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting and save it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			cfg, err := a.cfg.Set(args[0], args[1])
			if err != nil {
				return err
			}
			if err := a.store.Save(cfg); err != nil {
				return err
			}
			val, _ := cfg.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", ui.SuccessStyle.Render(ui.IconSuccess), args[0], val)
			return nil
		})
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configPathCmd)
}
