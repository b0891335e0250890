// Package ignore reads .wordsiftignore files.
//
// Each line is a doublestar glob matched against slash-separated paths
// relative to the scan root. Blank lines and '#' comments are skipped. A
// leading '/' anchors the pattern at the root, a trailing '/' selects a
// directory and everything below it, and a leading '!' re-includes paths an
// earlier pattern ignored. The last matching pattern decides.
package ignore

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is the ignore file looked up at the scan root.
const FileName = ".wordsiftignore"

// archiveSep separates an archive path from the entry inside it.
const archiveSep = "::"

type rule struct {
	globs  []string
	negate bool
}

// Matcher holds compiled ignore rules. The zero value matches nothing.
type Matcher struct {
	rules []rule
}

// Load reads path. A missing file yields an empty matcher and the read error.
func Load(path string) (Matcher, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Matcher{}, err
	}
	return Parse(b), nil
}

// Parse compiles ignore rules from file content. Invalid globs are dropped.
func Parse(b []byte) Matcher {
	var m Matcher
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var r rule
		if strings.HasPrefix(line, "!") {
			r.negate = true
			line = line[1:]
		}
		line = strings.TrimPrefix(line, "./")
		if strings.HasSuffix(line, "/") {
			line += "**"
		}
		anchored := strings.HasPrefix(line, "/")
		line = strings.TrimPrefix(line, "/")
		if !doublestar.ValidatePattern(line) {
			continue
		}
		r.globs = append(r.globs, line)
		if !anchored && !strings.HasPrefix(line, "**/") {
			r.globs = append(r.globs, "**/"+line)
		}
		m.rules = append(m.rules, r)
	}
	return m
}

// Match reports whether rel is ignored. For an archive entry such as
// "docs.zip::a/b.txt" both the entry path and the archive path are tried,
// so ignoring an archive ignores everything in it.
func (m Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if outer, inner, ok := strings.Cut(rel, archiveSep); ok {
		if m.match(outer) {
			return true
		}
		rel = inner
		if i := strings.LastIndex(rel, archiveSep); i >= 0 {
			rel = rel[i+len(archiveSep):]
		}
	}
	return m.match(rel)
}

func (m Matcher) match(rel string) bool {
	ignored := false
	for _, r := range m.rules {
		if r.negate != ignored {
			continue
		}
		for _, g := range r.globs {
			if ok, _ := doublestar.Match(g, rel); ok {
				ignored = !r.negate
				break
			}
		}
	}
	return ignored
}

// Append adds pattern to the ignore file at root unless an identical line
// already exists, creating the file if needed.
func Append(root, pattern string) error {
	path := filepath.Join(root, FileName)
	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(b), "\n") {
		if strings.TrimSpace(line) == pattern {
			return nil
		}
	}
	if len(b) > 0 && b[len(b)-1] != '\n' {
		pattern = "\n" + pattern
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(pattern + "\n")
	return err
}
