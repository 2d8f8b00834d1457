package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyflow-project/copyflow/pkg/language"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for copyflow.

Completions cover commands, flags, and the values of --lang and --tone.

Bash:
  source <(copyflow completion bash)

Zsh:
  copyflow completion zsh > "${fpath[1]}/_copyflow"

Fish:
  copyflow completion fish > ~/.config/fish/completions/copyflow.fish

PowerShell:
  copyflow completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		var err error
		switch args[0] {
		case "bash":
			err = cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			err = cmd.Root().GenZshCompletion(out)
		case "fish":
			err = cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			err = cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
		if err != nil {
			return fmt.Errorf("generate completion for %s: %w", args[0], err)
		}
		return nil
	},
}

// completeLanguages offers supported codes with their display names.
func completeLanguages(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	opts := language.Options()
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, fmt.Sprintf("%s\t%s", o.Code, o.Name))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func completeTones(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, 0, len(language.Tones))
	for _, t := range language.Tones {
		out = append(out, string(t))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// registerValueCompletions attaches value completion to the --lang and
// --tone flags of every command that has them.
func registerValueCompletions(cmds ...*cobra.Command) {
	for _, c := range cmds {
		if c.Flags().Lookup("lang") != nil {
			_ = c.RegisterFlagCompletionFunc("lang", completeLanguages)
		}
		if c.Flags().Lookup("tone") != nil {
			_ = c.RegisterFlagCompletionFunc("tone", completeTones)
		}
	}
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
