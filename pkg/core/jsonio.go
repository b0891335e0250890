package core

import (
	"encoding/json"
	"fmt"
	"io"
)

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// MarshalMatches writes matches as an indented JSON array; nil becomes [].
func MarshalMatches(w io.Writer, ms []Match) error {
	if ms == nil {
		ms = []Match{}
	}
	return writeIndented(w, ms)
}

// MarshalFindings writes findings as an indented JSON array; nil becomes [].
func MarshalFindings(w io.Writer, fs []Finding) error {
	if fs == nil {
		fs = []Finding{}
	}
	return writeIndented(w, fs)
}

// UnmarshalFindings reads the array written by MarshalFindings or
// `wordsift scan --json`. Unknown fields are an error.
func UnmarshalFindings(r io.Reader) ([]Finding, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var fs []Finding
	if err := dec.Decode(&fs); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	return fs, nil
}
