// Package artifacts extracts the entries of zip, tar, tar.gz and gz archives
// under a tree so they can be scanned like files. Entries are read in memory
// within per-archive Limits.
package artifacts

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/wordsift/wordsift/internal/types"
)

// Sep joins an archive path and the name of an entry inside it.
const Sep = "::"

// Limits bound the work spent on one top-level archive.
type Limits struct {
	MaxArchiveBytes int64
	MaxEntries      int
	MaxDepth        int
	TimeBudget      time.Duration
}

// DefaultLimits are used by the CLI unless overridden.
func DefaultLimits() Limits {
	return Limits{MaxArchiveBytes: 32 << 20, MaxEntries: 1000, MaxDepth: 2, TimeBudget: 10 * time.Second}
}

var errBudget = errors.New("archive budget exceeded")

// Collect walks root for archives and returns their entries as blobs named
// "archive::entry", or "outer::inner::entry" for nested archives. allow, when
// set, filters archives by slash-separated path relative to root. Broken or
// oversized archives are skipped silently.
func Collect(ctx context.Context, root string, limits Limits, allow func(rel string) bool) ([]types.Blob, error) {
	var out []types.Blob
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)
		if !IsArchive(rel) || (allow != nil && !allow(rel)) {
			return nil
		}
		f, err := os.Open(p)
		if err != nil {
			return nil
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil
		}
		x := newExtractor(ctx, limits)
		x.archive(rel, f, info.Size(), 0)
		out = append(out, x.out...)
		return nil
	})
	return out, err
}

// IsArchive reports whether name has an extension Collect understands.
func IsArchive(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".zip", ".tar", ".tgz", ".gz"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

type extractor struct {
	ctx      context.Context
	limits   Limits
	deadline time.Time
	bytes    int64
	entries  int
	out      []types.Blob
}

func newExtractor(ctx context.Context, l Limits) *extractor {
	x := &extractor{ctx: ctx, limits: l}
	if l.TimeBudget > 0 {
		x.deadline = time.Now().Add(l.TimeBudget)
	}
	return x
}

func (x *extractor) exhausted() bool {
	switch {
	case x.ctx.Err() != nil:
		return true
	case x.limits.MaxEntries > 0 && x.entries >= x.limits.MaxEntries:
		return true
	case x.limits.MaxArchiveBytes > 0 && x.bytes >= x.limits.MaxArchiveBytes:
		return true
	case !x.deadline.IsZero() && time.Now().After(x.deadline):
		return true
	}
	return false
}

// read copies r in chunks, charging the byte budget and checking the
// deadline between chunks.
func (x *extractor) read(r io.Reader) ([]byte, error) {
	remain := int64(1 << 62)
	if x.limits.MaxArchiveBytes > 0 {
		remain = x.limits.MaxArchiveBytes - x.bytes
	}
	var buf bytes.Buffer
	for {
		if remain <= 0 || x.exhausted() {
			return nil, errBudget
		}
		n, err := io.CopyN(&buf, r, min(remain, 32<<10))
		x.bytes += n
		remain -= n
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// archive extracts the archive at chain, whose last element names its format.
func (x *extractor) archive(chain string, ra io.ReaderAt, size int64, depth int) {
	lower := strings.ToLower(chain)
	sr := io.NewSectionReader(ra, 0, size)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		zr, err := zip.NewReader(ra, size)
		if err != nil {
			return
		}
		for _, f := range zr.File {
			if x.exhausted() {
				return
			}
			if f.FileInfo().IsDir() {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				continue
			}
			b, err := x.read(rc)
			_ = rc.Close()
			if err != nil {
				continue
			}
			x.entry(chain, f.Name, b, depth)
		}
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		gz, err := gzip.NewReader(sr)
		if err != nil {
			return
		}
		defer gz.Close()
		x.tar(chain, gz, depth)
	case strings.HasSuffix(lower, ".tar"):
		x.tar(chain, sr, depth)
	case strings.HasSuffix(lower, ".gz"):
		gz, err := gzip.NewReader(sr)
		if err != nil {
			return
		}
		defer gz.Close()
		name := gz.Name
		if name == "" {
			base := path.Base(strings.ReplaceAll(chain, Sep, "/"))
			name = base[:len(base)-len(".gz")]
		}
		if b, err := x.read(gz); err == nil {
			x.entry(chain, name, b, depth)
		}
	}
}

func (x *extractor) tar(chain string, r io.Reader, depth int) {
	tr := tar.NewReader(r)
	for !x.exhausted() {
		hdr, err := tr.Next()
		if err != nil {
			return
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		b, err := x.read(tr)
		if err != nil {
			continue
		}
		x.entry(chain, hdr.Name, b, depth)
	}
}

func (x *extractor) entry(chain, name string, b []byte, depth int) {
	vp := chain + Sep + name
	if IsArchive(name) {
		if depth < x.limits.MaxDepth {
			x.archive(vp, bytes.NewReader(b), int64(len(b)), depth+1)
		}
		return
	}
	x.entries++
	x.out = append(x.out, types.Blob{Path: vp, Data: b})
}
