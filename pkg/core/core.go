package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wordsift/wordsift/internal/checkers"
	"github.com/wordsift/wordsift/internal/config"
	"github.com/wordsift/wordsift/internal/dict"
	"github.com/wordsift/wordsift/internal/engine"
	"github.com/wordsift/wordsift/internal/types"
)

// Re-export selected internal types as a stable public API surface.
type (
	Match      = types.Match
	Finding    = types.Finding
	Mode       = types.Mode
	WordType   = types.WordType
	Options    = config.Options
	Partition  = checkers.Partition
	Checker    = checkers.Checker
	Result     = checkers.Result
	TermSource = dict.TermSource
	ScanError  = engine.ScanError
	// FileScan configures Guard.ScanFiles; detection fields are filled in
	// by the guard.
	FileScan   = engine.Config
	FileResult = engine.Result
	Watcher    = dict.Watcher
	Blob       = types.Blob
)

const (
	CollectAll  = types.CollectAll
	StopAtFirst = types.StopAtFirst
	Deny        = checkers.Deny
	Allow       = checkers.Allow
)

var (
	ErrInvalidInput   = engine.ErrInvalidInput
	ErrUnknownChecker = checkers.ErrUnknownChecker
	ErrUnknownOption  = config.ErrUnknownOption
)

// ParseMode maps "all" or "first" (and their aliases) to a Mode.
func ParseMode(s string) (Mode, bool) { return types.ParseMode(s) }

// DefaultOptions returns the detection defaults.
func DefaultOptions() Options { return config.DefaultOptions() }

// Config describes a Guard. The zero value is usable: default options and an
// empty dictionary.
type Config struct {
	// Options is used as is unless it is the zero value, in which case
	// defaults apply. An empty Checkers list yields a guard that never matches.
	Options Options
	Deny    []string
	Allow   []string
	Tags    map[string][]string
	// Sources are loaded after Deny, Allow and Tags, in order.
	Sources []TermSource
	// Extra checkers are consulted after the built-in ones.
	Extra  []Checker
	Logger *slog.Logger
}

// Replacer returns the replacement for one match.
type Replacer func(m Match) string

// MaskWith returns a Replacer that repeats r once per matched rune.
func MaskWith(r rune) Replacer {
	mask := string(r)
	return func(m Match) string { return strings.Repeat(mask, m.Len()) }
}

// Guard is a ready-to-use detector. All methods are safe for concurrent use.
type Guard struct {
	opts   Options
	dict   *checkers.Dictionary
	tags   *dict.TagIndex
	reg    *checkers.Registry
	loader *dict.Loader
}

// New validates cfg, loads every term source and builds the checker registry.
func New(cfg Config) (*Guard, error) {
	return NewContext(context.Background(), cfg)
}

// NewContext is New with a context for loading sources.
func NewContext(ctx context.Context, cfg Config) (*Guard, error) {
	opts := cfg.Options
	if opts.IsZero() {
		opts = config.DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	co := opts.CheckerOptions()
	d := checkers.NewDictionary(checkers.DictionaryOptions{Normalize: co.Normalize, SkipRepeats: co.SkipRepeats})
	reg, err := checkers.Build(opts.Checkers, d, co)
	if err != nil {
		return nil, err
	}
	reg = reg.With(cfg.Extra...)
	g := &Guard{
		opts: opts,
		dict: d,
		tags: dict.NewTagIndex(co.Normalize),
		reg:  reg,
		loader: &dict.Loader{
			Sources: append([]dict.TermSource{dict.Static{Deny: cfg.Deny, Allow: cfg.Allow, Tag: cfg.Tags}}, cfg.Sources...),
			Logger:  cfg.Logger,
		},
	}
	if err := g.loader.Apply(ctx, d, g.tags); err != nil {
		return nil, fmt.Errorf("load terms: %w", err)
	}
	return g, nil
}

// Options returns the resolved options.
func (g *Guard) Options() Options { return g.opts }

// CheckerIDs lists the active checkers in consultation order.
func (g *Guard) CheckerIDs() []string { return g.reg.IDs() }

// Scan returns the matches in text under mode.
func (g *Guard) Scan(text string, mode Mode) ([]Match, error) {
	return engine.Scan(text, mode, g.reg, g.opts.Normalize)
}

// Contains reports whether text holds at least one match.
func (g *Guard) Contains(text string) (bool, error) {
	ms, err := g.Scan(text, StopAtFirst)
	return len(ms) > 0, err
}

// FindFirst returns the first match, if any.
func (g *Guard) FindFirst(text string) (Match, bool, error) {
	ms, err := g.Scan(text, StopAtFirst)
	if err != nil || len(ms) == 0 {
		return Match{}, false, err
	}
	return ms[0], true, nil
}

// FindAll returns every non-overlapping match, left to right.
func (g *Guard) FindAll(text string) ([]Match, error) {
	return g.Scan(text, CollectAll)
}

// FindAllWithTags is FindAll with dictionary matches labelled from the tag
// index.
func (g *Guard) FindAllWithTags(text string) ([]Match, error) {
	ms, err := g.FindAll(text)
	if err != nil {
		return nil, err
	}
	for i := range ms {
		if ms[i].Type == types.TypeWord {
			ms[i].Tags = g.tags.TagsOf(ms[i].Text)
		}
	}
	return ms, nil
}

// Replace masks every match with the configured replace character, one per
// rune, so the result has the same rune length as text.
func (g *Guard) Replace(text string) (string, error) {
	return g.ReplaceFunc(text, MaskWith(g.opts.ReplaceChar))
}

// ReplaceFunc substitutes every match with repl(m).
func (g *Guard) ReplaceFunc(text string, repl Replacer) (string, error) {
	ms, err := g.FindAll(text)
	if err != nil || len(ms) == 0 {
		return text, err
	}
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range ms {
		b.WriteString(string(runes[last:m.Start]))
		b.WriteString(repl(m))
		last = m.End
	}
	b.WriteString(string(runes[last:]))
	return b.String(), nil
}

// Tags returns the tags of word, or nil.
func (g *Guard) Tags(word string) []string { return g.tags.TagsOf(word) }

// SetTags replaces the tags of word.
func (g *Guard) SetTags(word string, tags []string) { g.tags.Set(word, tags) }

// AddTerm inserts word into partition p and reports whether it was new.
func (g *Guard) AddTerm(word string, p Partition) bool { return g.dict.AddTerm(word, p) }

// RemoveTerm deletes word from partition p and reports whether it existed.
func (g *Guard) RemoveTerm(word string, p Partition) bool { return g.dict.RemoveTerm(word, p) }

// LoadTerms replaces the whole dictionary.
func (g *Guard) LoadTerms(deny, allow []string) { g.dict.LoadTerms(deny, allow) }

// Terms lists the canonical terms of partition p.
func (g *Guard) Terms(p Partition) []string { return g.dict.Terms(p) }

// Reload reapplies the configured sources, discarding runtime additions. On
// error the current terms stay in place.
func (g *Guard) Reload(ctx context.Context) error {
	return g.loader.Apply(ctx, g.dict, g.tags)
}

// Fingerprint is a content hash of the current dictionary.
func (g *Guard) Fingerprint() uint64 { return g.dict.Fingerprint() }

// Generation increases with every dictionary change.
func (g *Guard) Generation() uint64 { return g.dict.Generation() }

// ScanFiles scans a file tree with the guard's detection setup.
func (g *Guard) ScanFiles(ctx context.Context, fs FileScan) (FileResult, error) {
	fs.Registry = g.reg
	fs.Normalize = g.opts.Normalize
	fs.Fingerprint = g.dict.Fingerprint()
	fs.Tags = g.tags.TagsOf
	return engine.ScanWithStats(ctx, fs)
}

// ScanBlobs scans in-memory contents, such as git objects, with the guard's
// detection setup and fs's filters.
func (g *Guard) ScanBlobs(ctx context.Context, fs FileScan, blobs []Blob) (FileResult, error) {
	fs.Registry = g.reg
	fs.Normalize = g.opts.Normalize
	fs.Tags = g.tags.TagsOf
	return engine.ScanBlobs(ctx, fs, blobs)
}

// Watch reloads the guard whenever one of paths changes on disk. Stop the
// returned watcher, or cancel ctx, to end watching.
func (g *Guard) Watch(ctx context.Context, paths []string) (*Watcher, error) {
	w := &dict.Watcher{Loader: g.loader, Dict: g.dict, Tags: g.tags, Paths: paths}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
