package checkers

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/wordsift/wordsift/internal/normalize"
	"github.com/wordsift/wordsift/internal/types"
)

// runChecker is a structural recognizer. Starting at the queried position it
// collects the maximal run of constituent runes, then validates that run once
// as a whole. Runs longer than maxLen are rejected outright.
type runChecker struct {
	id       string
	typ      types.WordType
	minLen   int
	maxLen   int
	isChar   func(r rune) bool
	trailing string // runes trimmed from the end of a run before validation
	valid    func(s string) bool
}

func (c *runChecker) ID() string           { return c.id }
func (c *runChecker) Type() types.WordType { return c.typ }

func (c *runChecker) Classify(nc *normalize.Context, pos int) (Result, error) {
	if !c.isChar(nc.At(pos)) {
		return Result{}, nil
	}
	end := pos
	for end < nc.Len() && c.isChar(nc.At(end)) {
		end++
		if c.maxLen > 0 && end-pos > c.maxLen {
			return Result{}, nil
		}
	}
	for end > pos && c.trailing != "" && strings.ContainsRune(c.trailing, nc.At(end-1)) {
		end--
	}
	n := end - pos
	if n == 0 || n < c.minLen {
		return Result{}, nil
	}
	if c.valid != nil && !c.valid(nc.CanonicalSlice(pos, end)) {
		return Result{}, nil
	}
	return Result{Deny: n, Type: c.typ}, nil
}

func isASCIIAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

var (
	// the host always ends in an alphabetic top-level label
	reURL   = regexp.MustCompile(`(?i)^(?:(?:https?|ftp)://[a-z0-9-]+(?:\.[a-z0-9-]+)*|www(?:\.[a-z0-9-]+)+)\.[a-z]{2,}(?::\d{1,5})?(?:[/?#][a-z0-9._~:/?#=&%+-]*)?$`)
	reEmail = regexp.MustCompile(`(?i)^[a-z0-9._%+-]+@[a-z0-9-]+(?:\.[a-z0-9-]+)*\.[a-z]{2,}$`)
)

// NewURL returns the URL checker. Runs shorter than minLen or longer than
// maxLen never match.
func NewURL(minLen, maxLen int) Checker {
	return &runChecker{
		id:     "url",
		typ:    types.TypeURL,
		minLen: minLen,
		maxLen: maxLen,
		isChar: func(r rune) bool {
			return isASCIIAlnum(r) || strings.ContainsRune(".-_:/?=&%#~+", r)
		},
		trailing: ".:?",
		valid:    reURL.MatchString,
	}
}

// NewEmail returns the e-mail address checker.
func NewEmail() Checker {
	return &runChecker{
		id:     "email",
		typ:    types.TypeEmail,
		minLen: 6,
		maxLen: 254,
		isChar: func(r rune) bool {
			return isASCIIAlnum(r) || strings.ContainsRune("._%+-@", r)
		},
		trailing: ".",
		valid:    reEmail.MatchString,
	}
}

// NewNum returns the digit-run checker; runs of at least minLen ASCII digits
// (after folding) match.
func NewNum(minLen int) Checker {
	if minLen < 1 {
		minLen = 1
	}
	return &runChecker{
		id:     "num",
		typ:    types.TypeNum,
		minLen: minLen,
		isChar: isDigit,
	}
}

// NewIPv4 returns the dotted-quad checker.
func NewIPv4() Checker {
	return &runChecker{
		id:     "ipv4",
		typ:    types.TypeIPv4,
		minLen: 7,
		maxLen: 15,
		isChar: func(r rune) bool {
			return isDigit(r) || r == '.'
		},
		trailing: ".",
		valid: func(s string) bool {
			a, err := netip.ParseAddr(s)
			return err == nil && a.Is4()
		},
	}
}
