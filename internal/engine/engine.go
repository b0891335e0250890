package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/wordsift/wordsift/internal/cache"
	"github.com/wordsift/wordsift/internal/checkers"
	"github.com/wordsift/wordsift/internal/ignore"
	"github.com/wordsift/wordsift/internal/normalize"
	"github.com/wordsift/wordsift/internal/types"
	"golang.org/x/sync/errgroup"
)

// Config controls file scanning: scope, performance, filters and the
// detection setup applied to every file.
type Config struct {
	Root            string
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	Threads         int
	DryRun          bool
	DefaultExcludes bool
	NoCache         bool
	Progress        func()

	Registry  *checkers.Registry
	Normalize normalize.Options
	// Fingerprint identifies the dictionary content; a change invalidates
	// cached clean files.
	Fingerprint uint64
	// Tags, if set, labels dictionary findings.
	Tags   func(word string) []string
	Logger *slog.Logger
}

// Result contains findings and basic scan statistics.
type Result struct {
	Findings     []types.Finding
	FilesScanned int
	FilesCached  int
	Duration     time.Duration
	// FileErrors holds per-file failures; the scan continues past them.
	FileErrors []error
}

// FileError ties a scan failure to the file it happened in.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// ScanFiles runs a file scan and returns only findings (without stats).
func ScanFiles(cfg Config) ([]types.Finding, error) {
	res, err := ScanWithStats(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

type fileJob struct {
	path     string
	data     []byte
	cacheVal string
}

// ScanWithStats scans every eligible file under cfg.Root and returns findings
// sorted by path, line and column along with timing and counts. Files that
// scanned clean are remembered in the incremental cache and skipped next time
// while their content and the detection setup stay the same.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
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

	db := cache.New()
	if !cfg.NoCache {
		var err error
		if db, err = cache.Load(cfg.Root); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Debug("cache reset", "error", err)
		}
	}
	ign, _ := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	salt := configKey(cfg)
	// One snapshot for the whole tree.
	reg := cfg.Registry.Bind()

	started := time.Now()
	var (
		mu      sync.Mutex
		out     []types.Finding
		updated = map[string]string{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Threads)

	walkErr := Walk(gctx, cfg, ign, func(p string, data []byte) {
		h := fastHash(data, salt)
		if !cfg.NoCache && db.Clean(p, h) {
			mu.Lock()
			result.FilesCached++
			mu.Unlock()
			return
		}
		job := fileJob{path: p, data: data, cacheVal: h}
		g.Go(func() error {
			fs, err := scanFile(job, reg, cfg)
			mu.Lock()
			defer mu.Unlock()
			result.FilesScanned++
			if cfg.Progress != nil {
				cfg.Progress()
			}
			if err != nil {
				log.Warn("file scan failed", "path", job.path, "error", err)
				result.FileErrors = append(result.FileErrors, &FileError{Path: job.path, Err: err})
				return nil
			}
			out = append(out, fs...)
			if len(fs) == 0 && !cfg.DryRun {
				updated[job.path] = job.cacheVal
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return result, err
	}
	if walkErr != nil {
		return result, walkErr
	}

	sortFindings(out)
	result.Findings = out
	result.Duration = time.Since(started)
	if !cfg.NoCache && !cfg.DryRun && len(updated) > 0 {
		for k, v := range updated {
			db.Entries[k] = v
		}
		if err := cache.Save(cfg.Root, db); err != nil {
			log.Debug("cache not saved", "error", err)
		}
	}
	log.Debug("scan finished",
		"root", cfg.Root,
		"files", result.FilesScanned,
		"cached", result.FilesCached,
		"findings", len(out),
		"duration", result.Duration)
	return result, nil
}

func scanFile(job fileJob, reg *checkers.Registry, cfg Config) ([]types.Finding, error) {
	if cfg.DryRun {
		return nil, nil
	}
	text := string(job.data)
	ms, err := ScanContext(normalize.New(text, cfg.Normalize), types.CollectAll, reg)
	if err != nil {
		return nil, err
	}
	return locate(job.path, text, ms, cfg.Tags), nil
}

// locate converts rune-indexed matches to 1-based line and column positions.
// ms must be ordered by Start.
func locate(path, text string, ms []types.Match, tags func(string) []string) []types.Finding {
	if len(ms) == 0 {
		return nil
	}
	out := make([]types.Finding, 0, len(ms))
	line, col, idx := 1, 1, 0
	k := 0
	for _, r := range text {
		for k < len(ms) && ms[k].Start == idx {
			f := types.Finding{
				Path:     path,
				Line:     line,
				Column:   col,
				Match:    ms[k].Text,
				Type:     ms[k].Type,
				Severity: types.SeverityOf(ms[k].Type),
			}
			if tags != nil && ms[k].Type == types.TypeWord {
				f.Tags = tags(ms[k].Text)
			}
			out = append(out, f)
			k++
		}
		if k == len(ms) {
			break
		}
		idx++
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return out
}

func sortFindings(fs []types.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Path != fs[j].Path {
			return fs[i].Path < fs[j].Path
		}
		if fs[i].Line != fs[j].Line {
			return fs[i].Line < fs[j].Line
		}
		return fs[i].Column < fs[j].Column
	})
}

// configKey folds everything that changes detection results into the cache
// key salt.
func configKey(cfg Config) string {
	return fmt.Sprintf("%016x|%s|%+v", cfg.Fingerprint, strings.Join(cfg.Registry.IDs(), ","), cfg.Normalize)
}

func fastHash(b []byte, salt string) string {
	d := xxhash.New()
	_, _ = d.Write(b)
	_, _ = d.WriteString(salt)
	sum := d.Sum64()
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}

// allowedByGlobs returns true if the given path is allowed by the include/exclude
// glob configuration. Include globs are comma-separated and, if provided, act as
// a positive filter. Exclude globs are subtracted last.
func allowedByGlobs(relPath string, cfg Config) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
