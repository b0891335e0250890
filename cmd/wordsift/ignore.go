package wordsift

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/ignore"
)

func init() {
	var root string
	cmd := &cobra.Command{
		Use:   "ignore <pattern>...",
		Short: "Add glob patterns to " + ignore.FileName,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			for _, p := range args {
				if err := ignore.Append(abs, p); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", filepath.Join(abs, ignore.FileName))
			return nil
		},
	}
	cmd.Flags().StringVarP(&root, "path", "p", ".", "directory holding the ignore file")
	rootCmd.AddCommand(cmd)
}
