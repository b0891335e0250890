package dict

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wordsift/wordsift/internal/checkers"
)

// Loader merges several sources into one dictionary generation.
type Loader struct {
	Sources []TermSource
	Logger  *slog.Logger
}

// Set is the merged content of all sources.
type Set struct {
	Deny  []string
	Allow []string
	Tags  map[string][]string
}

// Load reads every source in order. The first failing source aborts the load.
func (l *Loader) Load(ctx context.Context) (Set, error) {
	var set Set
	for i, src := range l.Sources {
		deny, allow, err := src.Terms(ctx)
		if err != nil {
			return Set{}, fmt.Errorf("source %d: %w", i, err)
		}
		set.Deny = append(set.Deny, deny...)
		set.Allow = append(set.Allow, allow...)
		ts, ok := src.(TagSource)
		if !ok {
			continue
		}
		tags, err := ts.Tags(ctx)
		if err != nil {
			return Set{}, fmt.Errorf("source %d tags: %w", i, err)
		}
		for word, t := range tags {
			if set.Tags == nil {
				set.Tags = map[string][]string{}
			}
			set.Tags[word] = append(set.Tags[word], t...)
		}
	}
	return set, nil
}

// Apply loads all sources and publishes them as a new dictionary generation.
// When idx is non-nil its content is replaced with the merged tags. On error
// the dictionary and index are left untouched.
func (l *Loader) Apply(ctx context.Context, d *checkers.Dictionary, idx *TagIndex) error {
	set, err := l.Load(ctx)
	if err != nil {
		return err
	}
	d.LoadTerms(set.Deny, set.Allow)
	if idx != nil {
		idx.Replace(set.Tags)
	}
	l.logger().Debug("dictionary loaded",
		"deny", d.Len(checkers.Deny),
		"allow", d.Len(checkers.Allow),
		"generation", d.Generation())
	return nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
