package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion bash|zsh|fish",
	Short: "Generate shell tab completion",
	Long: `Print a completion script for the given shell.

  bash:  am completion bash > /usr/share/bash-completion/completions/am
  zsh:   am completion zsh > "${fpath[1]}/_am"
  fish:  am completion fish > ~/.config/fish/completions/am.fish`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"bash", "zsh", "fish"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(out, true)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		default:
			return rootCmd.GenFishCompletion(out, true)
		}
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
