// Package redact rewrites files in place with sensitive text masked.
package redact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Rewriter returns the masked form of a file's text.
type Rewriter func(text string) (string, error)

func rewrite(path string, rw Rewriter) (string, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	out, err := rw(string(b))
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", path, err)
	}
	return string(b), out, nil
}

// WouldChange reports whether Apply would modify the file.
func WouldChange(path string, rw Rewriter) (bool, error) {
	in, out, err := rewrite(path, rw)
	if err != nil {
		return false, err
	}
	return in != out, nil
}

// Apply rewrites the file when rw changes it and reports whether it did. The
// file mode is kept and the replacement is atomic.
func Apply(path string, rw Rewriter) (bool, error) {
	in, out, err := rewrite(path, rw)
	if err != nil || in == out {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".wordsift-redact-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(out); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, err
	}
	return true, nil
}
