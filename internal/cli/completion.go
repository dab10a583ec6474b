package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/grid/kinds"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for tilegrid.

Bash:
  $ source <(tilegrid completion bash)

Zsh:
  $ tilegrid completion zsh > "${fpath[1]}/_tilegrid"

Fish:
  $ tilegrid completion fish > ~/.config/fish/completions/tilegrid.fish

PowerShell:
  PS> tilegrid completion powershell | Out-String | Invoke-Expression
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

// registerCompletions adds value completion for the shared grid flags.
func registerCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("kind", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return kinds.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	if cmd.Flags().Lookup("palette") != nil {
		_ = cmd.RegisterFlagCompletionFunc("palette", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"mono", "pastel"}, cobra.ShellCompDirectiveNoFileComp
		})
	}
	if cmd.Flags().Lookup("format") != nil {
		_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{pipeline.FormatHTML, pipeline.FormatJSON, pipeline.FormatSVG, pipeline.FormatPDF, pipeline.FormatPNG},
				cobra.ShellCompDirectiveNoFileComp
		})
	}
}
