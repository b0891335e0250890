package wordsift

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/checkers"
)

func init() {
	list := &cobra.Command{
		Use:   "checkers",
		Short: "List available checkers (* marks the active ones)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(".")
			if err != nil {
				return err
			}
			opts, err := s.options()
			if err != nil {
				return err
			}
			for _, id := range checkers.IDs() {
				mark := " "
				if slices.Contains(opts.Checkers, id) {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, id)
			}
			return nil
		},
	}

	test := &cobra.Command{
		Use:   "test-checker <id> [text...]",
		Short: "Run a single checker against text (args or stdin)",
		Long:  "Available checkers: " + strings.Join(checkers.IDs(), ", "),
		Args:  cobra.MinimumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return checkers.IDs(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.ToLower(args[0])
			if !slices.Contains(checkers.IDs(), id) {
				return fmt.Errorf("%w: %q (available: %s)", checkers.ErrUnknownChecker, id, strings.Join(checkers.IDs(), ", "))
			}
			text, err := readText(cmd, args[1:])
			if err != nil {
				return err
			}
			s, err := loadSettings(".")
			if err != nil {
				return err
			}
			s.only = id
			g, release, err := buildGuard(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer func() { _ = release() }()
			ms, err := g.FindAll(text)
			if err != nil {
				return err
			}
			return printMatches(cmd, text, ms)
		},
	}

	rootCmd.AddCommand(list, test)
}
