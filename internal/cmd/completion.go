package cmd

import (
	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for the Saple CLI.

The completion script provides:
- Command and subcommand completion
- Flag value completion for enum flags (e.g., --output, --model)
- Dynamic agent and file id completion

To load completions:

Bash:
  $ source <(saple completion bash)

Zsh:
  $ saple completion zsh > "${fpath[1]}/_saple"

Fish:
  $ saple completion fish | source

PowerShell:
  PS> saple completion powershell | Out-String | Invoke-Expression

Notes:
- Agent and file ids are cached in ~/.saple/cache/ (cache.ttl, default 5 minutes)
- Lookups give up after completion.timeout (default 2 seconds)
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
