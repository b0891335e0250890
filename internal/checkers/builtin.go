package checkers

import (
	"fmt"
	"strings"

	"github.com/wordsift/wordsift/internal/normalize"
)

// Options configures the built-in catalogue.
type Options struct {
	Normalize   normalize.Options
	SkipRepeats bool
	URLMinLen   int
	URLMaxLen   int
	NumMinLen   int
}

// DefaultOptions mirrors the defaults shipped in config files.
func DefaultOptions() Options {
	return Options{
		Normalize: normalize.DefaultOptions(),
		URLMinLen: 5,
		URLMaxLen: 70,
		NumMinLen: 8,
	}
}

// IDs returns every built-in checker ID.
func IDs() []string {
	return []string{"word", "url", "email", "num", "ipv4"}
}

// DefaultIDs returns the checkers active when nothing is configured.
func DefaultIDs() []string {
	return []string{"word", "url"}
}

// New instantiates the built-in checker id. The word checker is the shared
// dictionary itself.
func New(id string, dict *Dictionary, opts Options) (Checker, error) {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "word":
		if dict == nil {
			return nil, fmt.Errorf("word checker needs a dictionary")
		}
		return dict, nil
	case "url":
		return NewURL(opts.URLMinLen, opts.URLMaxLen), nil
	case "email":
		return NewEmail(), nil
	case "num":
		return NewNum(opts.NumMinLen), nil
	case "ipv4":
		return NewIPv4(), nil
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownChecker, id, strings.Join(IDs(), ", "))
}

// Build assembles a registry from ids in order. Duplicate IDs are kept once.
func Build(ids []string, dict *Dictionary, opts Options) (*Registry, error) {
	seen := map[string]bool{}
	var cs []Checker
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		c, err := New(id, dict, opts)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return NewRegistry(cs...), nil
}
