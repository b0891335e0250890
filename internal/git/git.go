// Package git reads text worth scanning out of a git repository: staged
// files, lines added since a base ref, and files touched by recent commits.
// It shells out to the git binary.
package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wordsift/wordsift/internal/types"
)

// Metadata identifies the checked-out state of a repository.
type Metadata struct {
	Repo   string `json:"repo,omitempty"`
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// validateRoot returns the cleaned absolute form of root, which must be a
// directory.
func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return abs, nil
}

func run(ctx context.Context, root string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", root}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func lines(b []byte) []string {
	var out []string
	for _, l := range strings.Split(string(b), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// RepoMetadata returns what it can find out about root. Fields stay empty on
// failure.
func RepoMetadata(ctx context.Context, root string) Metadata {
	var md Metadata
	root, err := validateRoot(root)
	if err != nil {
		return md
	}
	if out, err := run(ctx, root, "config", "--get", "remote.origin.url"); err == nil {
		s := strings.TrimSuffix(strings.TrimSpace(string(out)), ".git")
		if i := strings.LastIndex(s, ":"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.Index(s, "github.com/"); i >= 0 {
			s = s[i+len("github.com/"):]
		}
		md.Repo = strings.TrimPrefix(s, "//")
	}
	if out, err := run(ctx, root, "rev-parse", "HEAD"); err == nil {
		md.Commit = strings.TrimSpace(string(out))
	}
	if out, err := run(ctx, root, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		md.Branch = strings.TrimSpace(string(out))
	}
	return md
}

// Staged returns the index version of every staged, non-deleted file under
// root.
func Staged(ctx context.Context, root string) ([]types.Blob, error) {
	root, err := validateRoot(root)
	if err != nil {
		return nil, err
	}
	out, err := run(ctx, root, "diff", "--cached", "--name-only", "--relative", "--diff-filter=d")
	if err != nil {
		return nil, err
	}
	var blobs []types.Blob
	for _, p := range lines(out) {
		b, err := run(ctx, root, "show", ":./"+p)
		if err != nil {
			continue
		}
		blobs = append(blobs, types.Blob{Path: p, Data: b})
	}
	return blobs, nil
}

// AddedSince returns, per file changed since base, only the lines the working
// tree adds. Line numbers in findings therefore count added lines.
func AddedSince(ctx context.Context, root, base string) ([]types.Blob, error) {
	root, err := validateRoot(root)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(base, "-") {
		return nil, fmt.Errorf("invalid base ref %q", base)
	}
	out, err := run(ctx, root, "diff", "--name-only", "--relative", "--diff-filter=d", base)
	if err != nil {
		return nil, err
	}
	var blobs []types.Blob
	for _, p := range lines(out) {
		diff, err := run(ctx, root, "diff", "--unified=0", "--relative", base, "--", p)
		if err != nil {
			continue
		}
		blobs = append(blobs, types.Blob{Path: p, Data: addedLines(diff)})
	}
	return blobs, nil
}

// addedLines keeps the '+' lines of a unified diff, without headers.
func addedLines(diff []byte) []byte {
	var buf bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(diff))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "+++") || !strings.HasPrefix(line, "+") {
			continue
		}
		buf.WriteString(line[1:])
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// History returns the files touched by each of the last n commits, as they
// were in that commit. Rev holds the abbreviated commit hash.
func History(ctx context.Context, root string, n int) ([]types.Blob, error) {
	if n <= 0 {
		return nil, nil
	}
	root, err := validateRoot(root)
	if err != nil {
		return nil, err
	}
	out, err := run(ctx, root, "rev-list", "--max-count", strconv.Itoa(n), "HEAD")
	if err != nil {
		return nil, err
	}
	var blobs []types.Blob
	for _, h := range lines(out) {
		files, err := run(ctx, root, "show", "--name-only", "--relative", "--diff-filter=d", "--pretty=", h)
		if err != nil {
			continue
		}
		short := h
		if len(short) > 12 {
			short = short[:12]
		}
		for _, p := range lines(files) {
			b, err := run(ctx, root, "show", h+":./"+p)
			if err != nil {
				continue
			}
			blobs = append(blobs, types.Blob{Path: p, Rev: short, Data: b})
		}
	}
	return blobs, nil
}
