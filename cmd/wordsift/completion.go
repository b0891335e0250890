package wordsift

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	generators := map[string]func(w io.Writer) error{
		"bash":       func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		"zsh":        rootCmd.GenZshCompletion,
		"fish":       func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		"powershell": rootCmd.GenPowerShellCompletionWithDesc,
	}
	cmd := &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := generators[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
			return gen(cmd.OutOrStdout())
		},
		Example: `
# Bash
wordsift completion bash > /etc/bash_completion.d/wordsift

# Zsh
wordsift completion zsh > "${fpath[1]}/_wordsift"

# Fish
wordsift completion fish > ~/.config/fish/completions/wordsift.fish`,
	}
	rootCmd.AddCommand(cmd)
}
