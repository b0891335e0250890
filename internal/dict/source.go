package dict

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/wordsift/wordsift/internal/checkers"
	"gopkg.in/yaml.v3"
)

// SupportedVersions is the range of dictionary document versions this build
// understands. Documents without a version are accepted.
var SupportedVersions = semver.MustParseRange(">=1.0.0 <2.0.0")

// TermSource yields deny and allow terms. Terms may be in any form; the
// dictionary canonicalizes them.
type TermSource interface {
	Terms(ctx context.Context) (deny, allow []string, err error)
}

// TagSource is implemented by sources that also carry word tags.
type TagSource interface {
	Tags(ctx context.Context) (map[string][]string, error)
}

// WordList reads one term per line. Blank lines and lines starting with '#'
// are skipped.
type WordList struct {
	Path      string
	Partition checkers.Partition
}

func (w WordList) Terms(ctx context.Context) ([]string, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	b, err := os.ReadFile(w.Path)
	if err != nil {
		return nil, nil, err
	}
	terms := parseLines(b)
	if w.Partition == checkers.Allow {
		return nil, terms, nil
	}
	return terms, nil, nil
}

func parseLines(b []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Document is the YAML dictionary format.
//
//	version: 1.0.0
//	deny: [二货, 干死]
//	allow: [二货车]
//	tags:
//	  二货: [insult]
type Document struct {
	Version string              `yaml:"version"`
	Deny    []string            `yaml:"deny"`
	Allow   []string            `yaml:"allow"`
	Tags    map[string][]string `yaml:"tags"`
}

// ParseDocument decodes and validates a YAML dictionary document.
func ParseDocument(b []byte) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		return doc, fmt.Errorf("decode dictionary: %w", err)
	}
	if doc.Version != "" {
		v, err := semver.ParseTolerant(doc.Version)
		if err != nil {
			return doc, fmt.Errorf("dictionary version %q: %w", doc.Version, err)
		}
		if !SupportedVersions(v) {
			return doc, fmt.Errorf("dictionary version %s is not supported", v)
		}
	}
	return doc, nil
}

// YAMLFile is a TermSource and TagSource backed by a Document on disk.
type YAMLFile struct {
	Path string
}

func (y YAMLFile) load(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	b, err := os.ReadFile(y.Path)
	if err != nil {
		return Document{}, err
	}
	doc, err := ParseDocument(b)
	if err != nil {
		return doc, fmt.Errorf("%s: %w", y.Path, err)
	}
	return doc, nil
}

func (y YAMLFile) Terms(ctx context.Context) ([]string, []string, error) {
	doc, err := y.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return doc.Deny, doc.Allow, nil
}

func (y YAMLFile) Tags(ctx context.Context) (map[string][]string, error) {
	doc, err := y.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Tags, nil
}

// Base64List carries comma separated term lists encoded as standard base64,
// which keeps them out of plain sight in config files and environment
// variables.
type Base64List struct {
	Deny  string
	Allow string
}

func (l Base64List) Terms(context.Context) ([]string, []string, error) {
	deny, err := decodeList(l.Deny)
	if err != nil {
		return nil, nil, fmt.Errorf("deny list: %w", err)
	}
	allow, err := decodeList(l.Allow)
	if err != nil {
		return nil, nil, fmt.Errorf("allow list: %w", err)
	}
	return deny, allow, nil
}

// EncodeList is the inverse of the Base64List decoding.
func EncodeList(terms []string) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(terms, ",")))
}

func decodeList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range strings.Split(string(b), ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// Static is an in-memory source.
type Static struct {
	Deny  []string
	Allow []string
	Tag   map[string][]string
}

func (s Static) Terms(context.Context) ([]string, []string, error) {
	return s.Deny, s.Allow, nil
}

func (s Static) Tags(context.Context) (map[string][]string, error) {
	return s.Tag, nil
}

// SourceForPath picks a file source by extension: .yml/.yaml files are
// documents, anything else a deny word list.
func SourceForPath(path string) TermSource {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml") {
		return YAMLFile{Path: path}
	}
	return WordList{Path: path}
}
