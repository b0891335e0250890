package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wordsift/wordsift/internal/checkers"
	"github.com/wordsift/wordsift/internal/normalize"
)

// ErrUnknownOption is returned by Options.Set for names it does not know.
var ErrUnknownOption = errors.New("unknown option")

// Options holds the resolved detection options.
type Options struct {
	Checkers    []string
	Normalize   normalize.Options
	SkipRepeats bool
	URLMinLen   int
	URLMaxLen   int
	NumMinLen   int
	ReplaceChar rune
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	co := checkers.DefaultOptions()
	return Options{
		Checkers:    checkers.DefaultIDs(),
		Normalize:   co.Normalize,
		SkipRepeats: co.SkipRepeats,
		URLMinLen:   co.URLMinLen,
		URLMaxLen:   co.URLMaxLen,
		NumMinLen:   co.NumMinLen,
		ReplaceChar: '*',
	}
}

type setter func(o *Options, v string) error

func boolSetter(field func(o *Options) *bool) setter {
	return func(o *Options, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(o) = b
		return nil
	}
}

func lenSetter(field func(o *Options) *int) setter {
	return func(o *Options, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("must be positive, got %d", n)
		}
		*field(o) = n
		return nil
	}
}

var setters = map[string]setter{
	"checkers": func(o *Options, v string) error {
		ids := splitList(v)
		known := map[string]bool{}
		for _, id := range checkers.IDs() {
			known[id] = true
		}
		for _, id := range ids {
			if !known[id] {
				return fmt.Errorf("%w: %q", checkers.ErrUnknownChecker, id)
			}
		}
		o.Checkers = ids
		return nil
	},
	"ignore_case":          boolSetter(func(o *Options) *bool { return &o.Normalize.IgnoreCase }),
	"ignore_width":         boolSetter(func(o *Options) *bool { return &o.Normalize.IgnoreWidth }),
	"ignore_num_style":     boolSetter(func(o *Options) *bool { return &o.Normalize.IgnoreNumStyle }),
	"ignore_english_style": boolSetter(func(o *Options) *bool { return &o.Normalize.IgnoreEnglishStyle }),
	"fold_noise":           boolSetter(func(o *Options) *bool { return &o.Normalize.FoldNoise }),
	"skip_repeats":         boolSetter(func(o *Options) *bool { return &o.SkipRepeats }),
	"url_min_len":          lenSetter(func(o *Options) *int { return &o.URLMinLen }),
	"url_max_len":          lenSetter(func(o *Options) *int { return &o.URLMaxLen }),
	"num_min_len":          lenSetter(func(o *Options) *int { return &o.NumMinLen }),
	"replace_char": func(o *Options, v string) error {
		if utf8.RuneCountInString(v) != 1 {
			return fmt.Errorf("want a single character, got %q", v)
		}
		r, _ := utf8.DecodeRuneInString(v)
		o.ReplaceChar = r
		return nil
	},
}

// OptionNames lists every name accepted by Set, sorted.
func OptionNames() []string {
	out := make([]string, 0, len(setters))
	for k := range setters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Set assigns the option name from its string form.
func (o *Options) Set(name, value string) error {
	s, ok := setters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	if err := s(o, value); err != nil {
		return fmt.Errorf("option %s: %w", name, err)
	}
	return nil
}

// IsZero reports whether o is the zero value. A nil Checkers list on an
// otherwise configured Options means no checkers, not the defaults.
func (o Options) IsZero() bool {
	return o.Checkers == nil &&
		o.Normalize == (normalize.Options{}) &&
		!o.SkipRepeats &&
		o.URLMinLen == 0 && o.URLMaxLen == 0 && o.NumMinLen == 0 &&
		o.ReplaceChar == 0
}

// Validate checks cross-field constraints.
func (o Options) Validate() error {
	if o.URLMinLen > o.URLMaxLen {
		return fmt.Errorf("url_min_len (%d) exceeds url_max_len (%d)", o.URLMinLen, o.URLMaxLen)
	}
	return nil
}

// Apply overlays every detection option set in fc.
func (o *Options) Apply(fc FileConfig) error {
	pairs := []struct {
		name string
		set  bool
		val  string
	}{
		{"checkers", fc.Checkers != nil, deref(fc.Checkers)},
		{"ignore_case", fc.IgnoreCase != nil, fmtBool(fc.IgnoreCase)},
		{"ignore_width", fc.IgnoreWidth != nil, fmtBool(fc.IgnoreWidth)},
		{"ignore_num_style", fc.IgnoreNumStyle != nil, fmtBool(fc.IgnoreNumStyle)},
		{"ignore_english_style", fc.IgnoreEnglishStyle != nil, fmtBool(fc.IgnoreEnglishStyle)},
		{"fold_noise", fc.FoldNoise != nil, fmtBool(fc.FoldNoise)},
		{"skip_repeats", fc.SkipRepeats != nil, fmtBool(fc.SkipRepeats)},
		{"url_min_len", fc.URLMinLen != nil, fmtInt(fc.URLMinLen)},
		{"url_max_len", fc.URLMaxLen != nil, fmtInt(fc.URLMaxLen)},
		{"num_min_len", fc.NumMinLen != nil, fmtInt(fc.NumMinLen)},
		{"replace_char", fc.ReplaceChar != nil, deref(fc.ReplaceChar)},
	}
	for _, p := range pairs {
		if !p.set {
			continue
		}
		if err := o.Set(p.name, p.val); err != nil {
			return err
		}
	}
	return nil
}

// CheckerOptions converts o for checkers.Build.
func (o Options) CheckerOptions() checkers.Options {
	return checkers.Options{
		Normalize:   o.Normalize,
		SkipRepeats: o.SkipRepeats,
		URLMinLen:   o.URLMinLen,
		URLMaxLen:   o.URLMaxLen,
		NumMinLen:   o.NumMinLen,
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fmtBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func fmtInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
