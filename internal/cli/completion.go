package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for vkmsctl.

To load completions:

Bash:
  $ source <(vkmsctl completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ vkmsctl completion bash > /etc/bash_completion.d/vkmsctl
  # macOS:
  $ vkmsctl completion bash > $(brew --prefix)/etc/bash_completion.d/vkmsctl

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ vkmsctl completion zsh > "${fpath[1]}/_vkmsctl"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ vkmsctl completion fish | source

  # To load completions for each session, execute once:
  $ vkmsctl completion fish > ~/.config/fish/completions/vkmsctl.fish

PowerShell:
  PS> vkmsctl completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> vkmsctl completion powershell > vkmsctl.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeDevices completes device names from the control tree.
// Completion runs without the root pre-run hook, so it configures itself.
func (c *CLI) completeDevices(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := c.configure(cmd); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	reader, err := c.newReader()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	names, err := reader.Names(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	taken := make(map[string]bool, len(args))
	for _, a := range args {
		taken[a] = true
	}
	var out []string
	for _, n := range names {
		if !taken[n] {
			out = append(out, n)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
