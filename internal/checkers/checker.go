package checkers

import (
	"errors"
	"fmt"

	"github.com/wordsift/wordsift/internal/normalize"
	"github.com/wordsift/wordsift/internal/types"
)

// ErrUnknownChecker is returned when a checker ID is not in the catalogue.
var ErrUnknownChecker = errors.New("unknown checker")

// Result is the answer of a checker for one position. Deny and Allow are
// lengths in runes; zero means no match of that kind starts at the position.
type Result struct {
	Deny  int
	Allow int
	Type  types.WordType
}

// Checker detects one family of patterns anchored at a position.
// Classify must be deterministic and must not mutate shared state.
type Checker interface {
	ID() string
	Type() types.WordType
	Classify(nc *normalize.Context, pos int) (Result, error)
}

// Binder is implemented by checkers backed by mutable state. Bind returns a
// checker pinned to the state current at the time of the call, so a whole
// scan observes one consistent view.
type Binder interface {
	Bind() Checker
}

// Prefilter is implemented by checkers that can cheaply prove a text holds
// none of their patterns. MayMatch must never return false for a text on
// which Classify would report a deny match.
type Prefilter interface {
	MayMatch(nc *normalize.Context) bool
}

// Fault wraps an error (or recovered panic) raised by a checker.
type Fault struct {
	Checker string
	Err     error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("checker %s: %v", f.Checker, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

func classifyOne(c Checker, nc *normalize.Context, pos int) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &Fault{Checker: c.ID(), Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	res, err = c.Classify(nc, pos)
	if err != nil {
		return Result{}, &Fault{Checker: c.ID(), Err: err}
	}
	if res.Deny < 0 || res.Allow < 0 {
		return Result{}, &Fault{Checker: c.ID(), Err: fmt.Errorf("negative length (deny=%d allow=%d)", res.Deny, res.Allow)}
	}
	if res.Deny > 0 && res.Type == "" {
		res.Type = c.Type()
	}
	return res, nil
}
