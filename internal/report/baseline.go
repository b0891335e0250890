package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/wordsift/wordsift/internal/types"
)

// DefaultBaselineFile is the baseline location relative to the scan root.
const DefaultBaselineFile = "wordsift.baseline.json"

// Baseline records accepted findings as occurrence counts keyed by
// path, type and matched text. Line and column are not part of the key.
type Baseline struct {
	Created time.Time      `json:"created"`
	Counts  map[string]int `json:"counts"`
}

// NewBaseline accepts every finding in findings.
func NewBaseline(findings []types.Finding) Baseline {
	b := Baseline{Created: time.Now().UTC(), Counts: map[string]int{}}
	for _, f := range findings {
		b.Counts[key(f)]++
	}
	return b
}

// Len is the number of accepted occurrences.
func (b Baseline) Len() int {
	n := 0
	for _, c := range b.Counts {
		n += c
	}
	return n
}

// Keys returns the accepted keys in sorted order.
func (b Baseline) Keys() []string {
	out := make([]string, 0, len(b.Counts))
	for k := range b.Counts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LoadBaseline reads a baseline file. A missing file yields an empty
// baseline and the read error.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Counts: map[string]int{}}
	data, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return Baseline{Counts: map[string]int{}}, fmt.Errorf("%s: %w", path, err)
	}
	if b.Counts == nil {
		b.Counts = map[string]int{}
	}
	return b, nil
}

// SaveBaseline writes a baseline accepting findings to path.
func SaveBaseline(path string, findings []types.Finding) error {
	buf, err := json.MarshalIndent(NewBaseline(findings), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(buf, '\n'), 0o644)
}

// FilterNewFindings drops findings covered by base. Each accepted
// occurrence covers one finding, so a repeated word beyond the recorded
// count is reported.
func FilterNewFindings(findings []types.Finding, base Baseline) []types.Finding {
	left := make(map[string]int, len(base.Counts))
	for k, c := range base.Counts {
		left[k] = c
	}
	var out []types.Finding
	for _, f := range findings {
		k := key(f)
		if left[k] > 0 {
			left[k]--
			continue
		}
		out = append(out, f)
	}
	return out
}

func key(f types.Finding) string {
	return f.Path + "|" + string(f.Type) + "|" + f.Match
}

var severityRank = map[types.Severity]int{types.SevLow: 1, types.SevMed: 2, types.SevHigh: 3}

// ShouldFail reports whether any finding reaches the failOn severity
// ("low", "medium", "high"; default medium).
func ShouldFail(findings []types.Finding, failOn string) bool {
	th := severityRank[types.Severity(failOn)]
	if th == 0 {
		th = severityRank[types.SevMed]
	}
	for _, f := range findings {
		if severityRank[f.Severity] >= th {
			return true
		}
	}
	return false
}
