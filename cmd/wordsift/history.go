package wordsift

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/audit"
	"github.com/wordsift/wordsift/internal/cache"
	"github.com/wordsift/wordsift/internal/report"
)

func init() {
	var root string
	history := &cobra.Command{
		Use:   "history",
		Short: "Show past scans from the audit log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			records, err := audit.Open(abs).Records()
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("#", "TIME", "SOURCE", "COMMIT", "FILES", "FINDINGS", "NEW", "DURATION")
			for i, r := range records {
				_ = table.Append([]string{
					strconv.Itoa(i),
					r.Time.Local().Format("2006-01-02 15:04:05"),
					r.Source,
					r.Commit,
					strconv.Itoa(r.Files),
					strconv.Itoa(r.Total),
					strconv.Itoa(r.New),
					r.Duration,
				})
			}
			return table.Render()
		},
	}
	history.PersistentFlags().StringVarP(&root, "path", "p", ".", "scanned root")

	rm := &cobra.Command{
		Use:   "rm <index>",
		Short: "Delete one record (index as shown by history)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			return audit.Open(abs).Delete(i)
		},
	}

	last := &cobra.Command{
		Use:   "last",
		Short: "Print the findings of the most recent scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			res, err := cache.LoadResults(abs)
			if err != nil {
				return fmt.Errorf("no saved scan for %s: %w", abs, err)
			}
			if flagJSON {
				return report.WriteJSON(cmd.OutOrStdout(), res.Findings)
			}
			report.PrintTable(cmd.OutOrStdout(), res.Findings, report.PrintOptions{NoColor: !report.ColorEnabled(stdoutFile(cmd), flagNoColor)})
			return nil
		},
	}

	history.AddCommand(rm, last)
	rootCmd.AddCommand(history)
}
