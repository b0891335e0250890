// Package audit appends one JSON line per scan to a log kept next to the
// scan state. Records describe where and how much was found, never the
// matched words themselves.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/wordsift/wordsift/internal/types"
)

// MaxEntries caps the per-finding entries kept in one record.
const MaxEntries = 50

// Record is one scan.
type Record struct {
	ID         string         `json:"id"`
	Time       time.Time      `json:"time"`
	Root       string         `json:"root"`
	Repo       string         `json:"repo,omitempty"`
	Commit     string         `json:"commit,omitempty"`
	Branch     string         `json:"branch,omitempty"`
	Source     string         `json:"source,omitempty"`
	Dictionary string         `json:"dictionary,omitempty"`
	Checkers   []string       `json:"checkers,omitempty"`
	Files      int            `json:"files"`
	Duration   string         `json:"duration"`
	Total      int            `json:"total"`
	New        int            `json:"new"`
	Baselined  int            `json:"baselined"`
	BySeverity map[string]int `json:"by_severity"`
	ByType     map[string]int `json:"by_type"`
	Entries    []Entry        `json:"entries,omitempty"`
}

// Entry locates one new finding. Runes is the length of the matched text.
type Entry struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Runes    int    `json:"runes"`
}

// NewRecord summarises a scan of root that found all, of which fresh are
// not covered by the baseline.
func NewRecord(root string, all, fresh []types.Finding) Record {
	now := time.Now().UTC()
	r := Record{
		ID:         fmt.Sprintf("%x", now.UnixNano()),
		Time:       now,
		Root:       root,
		Total:      len(all),
		New:        len(fresh),
		Baselined:  len(all) - len(fresh),
		BySeverity: map[string]int{},
		ByType:     map[string]int{},
	}
	for _, f := range all {
		r.BySeverity[string(f.Severity)]++
		r.ByType[string(f.Type)]++
	}
	for i, f := range fresh {
		if i == MaxEntries {
			break
		}
		r.Entries = append(r.Entries, Entry{
			Path:     f.Path,
			Line:     f.Line,
			Column:   f.Column,
			Type:     string(f.Type),
			Severity: string(f.Severity),
			Runes:    utf8.RuneCountInString(f.Match),
		})
	}
	return r
}

// Log is the audit log of one scan root.
type Log struct {
	path string
}

// Open returns the log for root, kept inside .git when present.
func Open(root string) *Log {
	if st, err := os.Stat(filepath.Join(root, ".git")); err == nil && st.IsDir() {
		return &Log{path: filepath.Join(root, ".git", "wordsift_audit.jsonl")}
	}
	return &Log{path: filepath.Join(root, ".wordsift_audit.jsonl")}
}

// Append adds r to the end of the log. The file is created owner-only.
func (l *Log) Append(r Record) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(r); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// Records returns every record, newest first. Corrupt lines are skipped.
func (l *Log) Records() ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64<<10), 16<<20)
	for sc.Scan() {
		var r Record
		if json.Unmarshal(sc.Bytes(), &r) == nil {
			out = append(out, r)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Delete removes the record at index i as numbered by Records.
func (l *Log) Delete(i int) error {
	recs, err := l.Records()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(recs) {
		return fmt.Errorf("no audit record %d (have %d)", i, len(recs))
	}
	recs = append(recs[:i], recs[i+1:]...)

	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	enc := json.NewEncoder(tmp)
	for k := len(recs) - 1; k >= 0; k-- {
		if err := enc.Encode(recs[k]); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}
