package engine

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/wordsift/wordsift/internal/checkers"
	"github.com/wordsift/wordsift/internal/normalize"
	"github.com/wordsift/wordsift/internal/types"
)

// ErrInvalidInput is returned before scanning when the text cannot be
// normalized (it is not valid UTF-8).
var ErrInvalidInput = errors.New("invalid input: text is not valid UTF-8")

// ScanError reports a checker failure. Results gathered before the failure
// are discarded.
type ScanError struct {
	Pos int
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed at rune %d: %v", e.Pos, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Scan walks text once and returns the matches reported under mode, ordered
// by start position. The registry is bound once, so the whole scan sees a
// single dictionary snapshot.
func Scan(text string, mode types.Mode, reg *checkers.Registry, opts normalize.Options) ([]types.Match, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidInput
	}
	if text == "" || reg.Len() == 0 {
		return nil, nil
	}
	nc := normalize.New(text, opts)
	return ScanContext(nc, mode, reg.Bind())
}

// ScanContext runs the scan loop over an already built normalization
// context. reg should already be bound.
func ScanContext(nc *normalize.Context, mode types.Mode, reg *checkers.Registry) ([]types.Match, error) {
	if nc.Len() == 0 || !reg.MayMatch(nc) {
		return nil, nil
	}
	var out []types.Match
	for i := 0; i < nc.Len(); {
		res, err := reg.Classify(nc, i)
		if err != nil {
			return nil, &ScanError{Pos: i, Err: err}
		}
		if i+res.Deny > nc.Len() || i+res.Allow > nc.Len() {
			return nil, &ScanError{Pos: i, Err: fmt.Errorf("match length out of range (deny=%d allow=%d, %d runes left)", res.Deny, res.Allow, nc.Len()-i)}
		}
		// An equal or longer exemption wins; skip the exempt span entirely.
		if res.Allow >= res.Deny {
			i += max(res.Allow, 1)
			continue
		}
		out = append(out, types.Match{
			Start: i,
			End:   i + res.Deny,
			Type:  res.Type,
			Text:  nc.Original(i, i+res.Deny),
		})
		if mode == types.StopAtFirst {
			break
		}
		i += res.Deny
	}
	return out, nil
}
