package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Options toggles the folding steps applied to every rune.
type Options struct {
	IgnoreCase         bool // simple lower-case folding
	IgnoreWidth        bool // fullwidth forms to their halfwidth equivalents
	IgnoreNumStyle     bool // circled, superscript and other styled digits to ASCII
	IgnoreEnglishStyle bool // styled latin letters (ⓐ, 𝐚, ...) to ASCII
	FoldNoise          bool // mark separator runes that dictionary walks may skip
}

// DefaultOptions enables every folding step. Noise folding stays off: with
// it, separators between words are skipped too ("this book" reads as "thisbook").
func DefaultOptions() Options {
	return Options{
		IgnoreCase:         true,
		IgnoreWidth:        true,
		IgnoreNumStyle:     true,
		IgnoreEnglishStyle: true,
	}
}

// noiseRunes are the separators people insert between the characters of a
// word to dodge filters ("敏*感词", "b.a.d"). Applied after width folding, so
// only halfwidth forms plus CJK punctuation without a halfwidth twin are listed.
var noiseRunes = map[rune]bool{
	' ': true, '\t': true, '&': true, '%': true, '$': true, '@': true, '*': true,
	'!': true, '#': true, '^': true, '~': true, '_': true, '-': true, '—': true,
	'|': true, '\'': true, '"': true, ';': true, '.': true, ',': true, '?': true,
	'<': true, '>': true, ':': true, '+': true, '=': true, '/': true, '\\': true,
	'、': true, '。': true, '《': true, '》': true, '·': true, '…': true,
	'“': true, '”': true, '‘': true, '’': true, '「': true, '」': true,
}

// IsNoiseRune reports whether r belongs to the noise table. r must already be
// folded.
func IsNoiseRune(r rune) bool { return noiseRunes[r] }

// Fold maps a single rune to its canonical form under opts.
func (o Options) Fold(r rune) rune {
	if r >= utf8.RuneSelf {
		if o.IgnoreNumStyle || o.IgnoreEnglishStyle {
			r = o.compat(r)
		}
		if o.IgnoreWidth {
			r = narrow(r)
		}
	}
	if o.IgnoreCase {
		r = unicode.ToLower(r)
	}
	return r
}

// compat applies the compatibility decomposition of a single rune when it
// collapses to exactly one ASCII letter or digit.
func (o Options) compat(r rune) rune {
	s := norm.NFKC.String(string(r))
	c, size := utf8.DecodeRuneInString(s)
	if size != len(s) || c >= utf8.RuneSelf {
		return r
	}
	switch {
	case o.IgnoreNumStyle && c >= '0' && c <= '9':
		return c
	case o.IgnoreEnglishStyle && (c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'):
		return c
	}
	return r
}

func narrow(r rune) rune {
	p := width.LookupRune(r)
	if p.Kind() != width.EastAsianFullwidth {
		return r
	}
	if n := p.Narrow(); n != 0 {
		return n
	}
	return r
}

// Context is the per-scan normalization mapping. It is immutable once built
// and safe to share between goroutines.
type Context struct {
	original  []rune
	canonical []rune
	noise     []bool
}

// New folds text under opts.
func New(text string, opts Options) *Context {
	orig := []rune(text)
	c := &Context{
		original:  orig,
		canonical: make([]rune, len(orig)),
	}
	if opts.FoldNoise {
		c.noise = make([]bool, len(orig))
	}
	for i, r := range orig {
		f := opts.Fold(r)
		c.canonical[i] = f
		if c.noise != nil {
			c.noise[i] = noiseRunes[f]
		}
	}
	return c
}

// Len returns the number of runes in the text.
func (c *Context) Len() int { return len(c.original) }

// At returns the canonical rune at i.
func (c *Context) At(i int) rune { return c.canonical[i] }

// IsNoise reports whether the rune at i is a foldable separator.
func (c *Context) IsNoise(i int) bool {
	return c.noise != nil && c.noise[i]
}

// Original returns the original runes [i, j) as a string.
func (c *Context) Original(i, j int) string { return string(c.original[i:j]) }

// CanonicalSlice returns the canonical runes [i, j) as a string.
func (c *Context) CanonicalSlice(i, j int) string { return string(c.canonical[i:j]) }

// CanonicalString returns the whole canonical view.
func (c *Context) CanonicalString() string { return string(c.canonical) }

// Canonical folds a dictionary term or tag key with the same table used for
// scanning. Noise runes are dropped because the dictionary walk skips them.
func Canonical(word string, opts Options) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range strings.TrimSpace(word) {
		f := opts.Fold(r)
		if opts.FoldNoise && noiseRunes[f] {
			continue
		}
		b.WriteRune(f)
	}
	return b.String()
}
