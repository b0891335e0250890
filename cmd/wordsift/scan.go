package wordsift

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/artifacts"
	"github.com/wordsift/wordsift/internal/audit"
	"github.com/wordsift/wordsift/internal/cache"
	"github.com/wordsift/wordsift/internal/engine"
	"github.com/wordsift/wordsift/internal/git"
	"github.com/wordsift/wordsift/internal/report"
	"github.com/wordsift/wordsift/internal/types"
	"github.com/wordsift/wordsift/pkg/core"
)

const defaultMaxBytes = 1 << 20

var (
	flagPath     string
	flagInclude  string
	flagExclude  string
	flagMaxBytes int64
	flagText     bool
	flagMask     bool
	flagNoAudit  bool
	flagStaged   bool
	flagBase     string
	flagHistory  int

	flagUploadURL    string
	flagUploadToken  string
	flagNoUploadMeta bool

	flagArchives        bool
	flagMaxArchiveBytes int64
	flagMaxEntries      int
	flagMaxDepth        int
	flagScanTimeBudget  time.Duration
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan files for sensitive words",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "path to scan")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip files larger than this (default 1MiB)")
	cmd.Flags().BoolVar(&flagText, "text", false, "output in plain text columnar format")
	cmd.Flags().BoolVar(&flagMask, "mask", false, "mask matched text in the report")
	cmd.Flags().BoolVar(&flagNoAudit, "no-audit", false, "do not append a record to the audit log")
	cmd.Flags().BoolVar(&flagStaged, "staged", false, "scan staged changes")
	cmd.Flags().StringVar(&flagBase, "base", "", "scan lines added since this ref (e.g. main)")
	cmd.Flags().IntVar(&flagHistory, "history", 0, "scan files touched by the last N commits (0=off)")

	cmd.Flags().StringVar(&flagUploadURL, "upload", "", "POST new findings (JSON) to this URL after the scan")
	cmd.Flags().StringVar(&flagUploadToken, "upload-token", "", "bearer token for --upload")
	cmd.Flags().BoolVar(&flagNoUploadMeta, "no-upload-metadata", false, "leave repo, commit and branch out of the upload")

	lim := artifacts.DefaultLimits()
	cmd.Flags().BoolVar(&flagArchives, "archives", false, "also scan text entries inside zip/tar/tgz/gz archives")
	cmd.Flags().Int64Var(&flagMaxArchiveBytes, "max-archive-bytes", lim.MaxArchiveBytes, "bytes read per archive")
	cmd.Flags().IntVar(&flagMaxEntries, "max-entries", lim.MaxEntries, "entries read per archive")
	cmd.Flags().IntVar(&flagMaxDepth, "max-depth", lim.MaxDepth, "nested archive depth")
	cmd.Flags().DurationVar(&flagScanTimeBudget, "scan-time-budget", lim.TimeBudget, "time spent per archive")
}

// fileScan resolves the file-scanning setup for root: CLI > local > global.
func fileScan(cmd *cobra.Command, s settings) core.FileScan {
	maxBytes := pickInt64(flagMaxBytes, s.local.MaxBytes, s.global.MaxBytes)
	if maxBytes == 0 {
		maxBytes = defaultMaxBytes
	}
	return core.FileScan{
		Root:            s.root,
		IncludeGlobs:    pickString(flagInclude, s.local.Include, s.global.Include),
		ExcludeGlobs:    pickString(flagExclude, s.local.Exclude, s.global.Exclude),
		MaxBytes:        maxBytes,
		Threads:         pickInt(flagThreads, s.local.Threads, s.global.Threads),
		DryRun:          flagDryRun,
		NoCache:         flagNoCache,
		DefaultExcludes: pickFlagBool(cmd, "default-excludes", flagDefaultExcludes, s.local.DefaultExcludes, s.global.DefaultExcludes),
		Logger:          slog.Default(),
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
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
	machine := flagJSON || flagSARIF
	stderr := cmd.ErrOrStderr()
	if !machine {
		_, _ = fmt.Fprintf(stderr, "Scanning %s with %d checkers...\n", abs, len(g.CheckerIDs()))
	}

	var (
		blobs  []types.Blob
		source = "worktree"
	)
	switch {
	case flagStaged:
		source = "staged"
		blobs, err = git.Staged(cmd.Context(), abs)
	case flagBase != "":
		source = "diff:" + flagBase
		blobs, err = git.AddedSince(cmd.Context(), abs, flagBase)
	case flagHistory > 0:
		source = fmt.Sprintf("history:%d", flagHistory)
		blobs, err = git.History(cmd.Context(), abs, flagHistory)
	}
	if err != nil {
		return err
	}

	total := len(blobs)
	if source == "worktree" {
		total, _ = engine.CountTargets(cfg)
	}
	if total > 0 && !machine {
		var progressed atomic.Int64
		cfg.Progress = func() {
			n := int(progressed.Add(1))
			if n%10 == 0 || n == total {
				pct := float64(n) / float64(total) * 100
				_, _ = fmt.Fprintf(stderr, "\r[%d/%d] %.0f%%", n, total, pct)
			}
		}
	}
	var res core.FileResult
	if source == "worktree" {
		res, err = g.ScanFiles(cmd.Context(), cfg)
	} else {
		res, err = g.ScanBlobs(cmd.Context(), cfg, blobs)
	}
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	if flagArchives && source == "worktree" {
		ar, err := scanArchives(cmd, g, cfg)
		if err != nil {
			return fmt.Errorf("archive scan error: %w", err)
		}
		res = res.Merge(ar)
	}
	if total > 0 && !machine {
		_, _ = fmt.Fprintln(stderr)
	}
	for _, fe := range res.FileErrors {
		slog.Warn("file not scanned", "error", fe)
	}

	baselinePath := filepath.Join(abs, report.DefaultBaselineFile)
	baseline, err := report.LoadBaseline(baselinePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	newFindings := report.FilterNewFindings(res.Findings, baseline)
	if newFindings == nil {
		newFindings = []types.Finding{}
	}

	out := cmd.OutOrStdout()
	po := report.PrintOptions{
		NoColor:      !colorOut(cmd, s),
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
		FilesCached:  res.FilesCached,
		Mask:         flagMask,
	}
	switch {
	case flagSARIF:
		stats := map[string]int{
			"filesScanned":  res.FilesScanned,
			"filesCached":   res.FilesCached,
			"totalFindings": len(res.Findings),
			"newFindings":   len(newFindings),
		}
		if err := report.WriteSARIFWithStats(out, newFindings, stats); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagJSON:
		if err := report.WriteJSON(out, newFindings); err != nil {
			return err
		}
	case flagText:
		report.PrintText(out, newFindings, po)
	default:
		report.PrintTable(out, newFindings, po)
	}

	if !cfg.DryRun {
		if err := cache.SaveResults(abs, res.Findings); err != nil {
			slog.Warn("could not save scan results", "error", err)
		}
		if !flagNoAudit {
			rec := audit.NewRecord(abs, res.Findings, newFindings)
			md := git.RepoMetadata(cmd.Context(), abs)
			rec.Repo, rec.Commit, rec.Branch, rec.Source = md.Repo, md.Commit, md.Branch, source
			rec.Dictionary = fmt.Sprintf("%016x", g.Fingerprint())
			rec.Checkers = g.CheckerIDs()
			rec.Files = res.FilesScanned
			rec.Duration = res.Duration.Round(time.Millisecond).String()
			if err := audit.Open(abs).Append(rec); err != nil {
				slog.Warn("could not write audit log", "error", err)
			}
		}
	}

	if flagUploadURL != "" {
		u := upload{url: flagUploadURL, token: flagUploadToken, meta: !flagNoUploadMeta, mask: flagMask}
		if err := u.send(cmd.Context(), abs, source, fmt.Sprintf("%016x", g.Fingerprint()), newFindings); err != nil {
			slog.Warn("upload failed", "url", flagUploadURL, "error", err)
		}
	}

	if report.ShouldFail(newFindings, pickString(flagFailOn, s.local.FailOn, s.global.FailOn)) {
		return exitError{code: 1}
	}
	return nil
}

func colorOut(cmd *cobra.Command, s settings) bool {
	noColor := pickFlagBool(cmd, "no-color", flagNoColor, s.local.NoColor, s.global.NoColor)
	return report.ColorEnabled(stdoutFile(cmd), noColor)
}

func scanArchives(cmd *cobra.Command, g *core.Guard, cfg core.FileScan) (core.FileResult, error) {
	limits := artifacts.Limits{
		MaxArchiveBytes: flagMaxArchiveBytes,
		MaxEntries:      flagMaxEntries,
		MaxDepth:        flagMaxDepth,
		TimeBudget:      flagScanTimeBudget,
	}
	blobs, err := artifacts.Collect(cmd.Context(), cfg.Root, limits, nil)
	if err != nil {
		return core.FileResult{}, err
	}
	slog.Debug("archive entries collected", "count", len(blobs))
	cfg.Progress = nil
	cfg.MaxBytes = 0
	return g.ScanBlobs(cmd.Context(), cfg, blobs)
}
