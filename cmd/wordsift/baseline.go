package wordsift

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Accept current findings so later scans only report new ones",
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Rewrite the baseline from a fresh scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(flagPath)
			if err != nil {
				return err
			}
			s, err := loadSettings(abs)
			if err != nil {
				return err
			}
			g, release, err := buildGuard(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer func() { _ = release() }()
			cfg := fileScan(cmd, s)
			res, err := g.ScanFiles(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if flagArchives {
				ar, err := scanArchives(cmd, g, cfg)
				if err != nil {
					return err
				}
				res = res.Merge(ar)
			}
			if err := report.SaveBaseline(filepath.Join(abs, report.DefaultBaselineFile), res.Findings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated (%d findings).\n", len(res.Findings))
			return nil
		},
	}
	update.Flags().StringVarP(&flagPath, "path", "p", ".", "path to scan")
	update.Flags().BoolVar(&flagArchives, "archives", false, "include archive entries")

	show := &cobra.Command{
		Use:   "show",
		Short: "List accepted findings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(flagPath)
			if err != nil {
				return err
			}
			b, err := report.LoadBaseline(filepath.Join(abs, report.DefaultBaselineFile))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, k := range b.Keys() {
				fmt.Fprintf(out, "%d\t%s\n", b.Counts[k], k)
			}
			fmt.Fprintf(out, "%d accepted, created %s\n", b.Len(), b.Created.Format("2006-01-02 15:04"))
			return nil
		},
	}
	show.Flags().StringVarP(&flagPath, "path", "p", ".", "scan root")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update, show)
}
