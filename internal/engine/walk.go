package engine

import (
	"context"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/wordsift/wordsift/internal/ignore"
)

// IgnoreFileDirective excludes a whole file when it appears anywhere in it.
const IgnoreFileDirective = "wordsift:ignore-file"

// Walk traverses the tree under cfg.Root and invokes handle for each eligible
// text file with its path relative to the root.
func Walk(ctx context.Context, cfg Config, ign ignore.Matcher, handle func(path string, data []byte)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != cfg.Root && cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, ok := eligible(p, d, cfg, ign)
		if !ok {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		if strings.Contains(string(b), IgnoreFileDirective) {
			return nil
		}
		if looksBinary(b) || looksNonTextMIME(rel, b) || !utf8.Valid(b) {
			return nil
		}
		handle(rel, b)
		return nil
	})
}

// eligible applies the cheap, metadata-only filters.
func eligible(p string, d fs.DirEntry, cfg Config, ign ignore.Matcher) (string, bool) {
	rel, _ := filepath.Rel(cfg.Root, p)
	rel = filepath.ToSlash(rel)
	if isStateFile(d.Name()) {
		return rel, false
	}
	if !allowedByGlobs(rel, cfg) || ign.Match(rel) {
		return rel, false
	}
	if cfg.MaxBytes > 0 {
		if info, _ := d.Info(); info != nil && info.Size() > cfg.MaxBytes {
			return rel, false
		}
	}
	if cfg.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(rel)) {
		return rel, false
	}
	return rel, true
}

func looksBinary(b []byte) bool {
	const sniff = 800
	n := sniff
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

// looksNonTextMIME uses the file extension and a tiny content sniff to skip
// clearly non-text content (e.g., images) in addition to NUL-byte detection.
func looksNonTextMIME(path string, b []byte) bool {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") {
			return true
		}
		if strings.Contains(ct, "zip") || strings.Contains(ct, "tar") || strings.Contains(ct, "gzip") {
			return true
		}
	}
	if len(b) >= 8 && string(b[:8]) == "\x89PNG\r\n\x1a\n" {
		return true
	}
	if len(b) >= 4 && b[0] == 'P' && b[1] == 'K' {
		return true
	}
	return false
}

// CountTargets estimates the number of files a scan with cfg would read. It
// mirrors the walk's selection logic but avoids reading file contents.
func CountTargets(cfg Config) (int, error) {
	ign, _ := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	count := 0
	err := filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != cfg.Root && cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := eligible(p, d, cfg, ign); ok {
			count++
		}
		return nil
	})
	return count, err
}
