package wordsift

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/redact"
)

var flagFixCheck bool

func init() {
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Mask sensitive words in place in every file a scan flags",
		Args:  cobra.NoArgs,
		RunE:  runFix,
	}
	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "path to fix")
	cmd.Flags().BoolVar(&flagFixCheck, "check", false, "only list the files that would change; exit 1 if any")
	rootCmd.AddCommand(cmd)
}

func runFix(cmd *cobra.Command, _ []string) error {
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
	cfg.DryRun = false
	cfg.NoCache = true
	res, err := g.ScanFiles(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	var paths []string
	for _, f := range res.Findings {
		if !seen[f.Path] {
			seen[f.Path] = true
			paths = append(paths, f.Path)
		}
	}
	sort.Strings(paths)

	out := cmd.OutOrStdout()
	n := 0
	for _, p := range paths {
		full := filepath.Join(abs, filepath.FromSlash(p))
		var changed bool
		if flagFixCheck {
			changed, err = redact.WouldChange(full, g.Replace)
		} else {
			changed, err = redact.Apply(full, g.Replace)
		}
		if err != nil {
			return err
		}
		if changed {
			n++
			fmt.Fprintln(out, p)
		}
	}
	if flagFixCheck {
		if n > 0 {
			return exitError{code: 1}
		}
		return nil
	}
	fmt.Fprintf(out, "Masked %d file(s).\n", n)
	return nil
}
