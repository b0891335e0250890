package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/wordsift/wordsift/internal/ignore"
	"github.com/wordsift/wordsift/internal/types"
	"golang.org/x/sync/errgroup"
)

// ScanBlobs scans in-memory contents with cfg's detection setup and filters.
// Root is only used to find the ignore file. Nothing is cached.
func ScanBlobs(ctx context.Context, cfg Config, blobs []types.Blob) (Result, error) {
	var result Result
	if cfg.Registry == nil {
		return result, fmt.Errorf("no checker registry configured")
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	var ign ignore.Matcher
	if cfg.Root != "" {
		ign, _ = ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	}
	reg := cfg.Registry.Bind()

	started := time.Now()
	var (
		mu  sync.Mutex
		out []types.Finding
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Threads)
	for _, b := range blobs {
		if gctx.Err() != nil {
			break
		}
		if !blobEligible(b, cfg, ign) {
			continue
		}
		job := fileJob{path: b.Name(), data: b.Data}
		g.Go(func() error {
			fs, err := scanFile(job, reg, cfg)
			mu.Lock()
			defer mu.Unlock()
			result.FilesScanned++
			if cfg.Progress != nil {
				cfg.Progress()
			}
			if err != nil {
				log.Warn("blob scan failed", "path", job.path, "error", err)
				result.FileErrors = append(result.FileErrors, &FileError{Path: job.path, Err: err})
				return nil
			}
			out = append(out, fs...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	sortFindings(out)
	result.Findings = out
	result.Duration = time.Since(started)
	return result, nil
}

func blobEligible(b types.Blob, cfg Config, ign ignore.Matcher) bool {
	if len(b.Data) == 0 || isStateFile(path.Base(b.Path)) {
		return false
	}
	if !allowedByGlobs(b.Path, cfg) || ign.Match(b.Path) {
		return false
	}
	if cfg.MaxBytes > 0 && int64(len(b.Data)) > cfg.MaxBytes {
		return false
	}
	if cfg.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(b.Path)) {
		return false
	}
	if strings.Contains(string(b.Data), IgnoreFileDirective) {
		return false
	}
	return !looksBinary(b.Data) && !looksNonTextMIME(b.Path, b.Data) && utf8.Valid(b.Data)
}

// Merge folds o into r and keeps the findings sorted.
func (r Result) Merge(o Result) Result {
	r.Findings = append(r.Findings, o.Findings...)
	sortFindings(r.Findings)
	r.FilesScanned += o.FilesScanned
	r.FilesCached += o.FilesCached
	r.Duration += o.Duration
	r.FileErrors = append(r.FileErrors, o.FileErrors...)
	return r
}
