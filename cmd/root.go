package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/config"
)

var (
	// Global flags
	debug      bool
	dryRun     bool
	noTUI      bool
	configPath string

	// Version info populated from main
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "am",
	Short: "Clean and tune Arch-based systems",
	Long: `ArchMole - Clean and tune Arch-based systems.

Removes stale package caches, old kernels, logs and temporary files,
prunes Docker data, finds large files and tunes memory, GPU and power
settings. Privileged commands go through sudo or pkexec.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Failed steps have already been reported
// when errStepsFailed comes back, so only other errors are printed.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errStepsFailed) {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// withApp builds the shared wiring for one command invocation.
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log every command with its exit status")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Report privileged and destructive commands without running them")
	rootCmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false, "Print plain log lines instead of the progress view")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default $ARCHMOLE_CONFIG or $XDG_CONFIG_HOME/"+config.ConfigFileName+")")

	// Register all subcommands
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(kernelsCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}
