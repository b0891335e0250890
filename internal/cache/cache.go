// Package cache keeps per-root scan state: content hashes of files that
// scanned clean and the findings of the last scan. State lives under .git
// when the root is a repository so it is never committed.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/wordsift/wordsift/internal/types"
)

const (
	dbName      = "wordsiftcache.json"
	resultsName = "wordsift_last_scan.json"
	dbVersion   = 1
)

// ErrStale is returned by Load when the cache was written by an
// incompatible version. The returned DB is empty and usable.
var ErrStale = errors.New("cache format changed")

// DB maps root-relative paths to the hash they last scanned clean with.
type DB struct {
	Version int               `json:"version"`
	Entries map[string]string `json:"entries"`
}

// New returns an empty DB.
func New() DB { return DB{Version: dbVersion, Entries: map[string]string{}} }

// Clean reports whether path last scanned clean with the same hash.
func (db DB) Clean(path, hash string) bool {
	h, ok := db.Entries[path]
	return ok && h == hash
}

// ScanResults are the findings of the most recent scan of Root.
type ScanResults struct {
	Root      string          `json:"root"`
	Timestamp time.Time       `json:"timestamp"`
	Count     int             `json:"count"`
	Findings  []types.Finding `json:"findings"`
}

func statePath(root, name string) string {
	git := filepath.Join(root, ".git")
	if st, err := os.Stat(git); err == nil && st.IsDir() {
		return filepath.Join(git, name)
	}
	return filepath.Join(root, "."+name)
}

// Path returns the cache file location for root.
func Path(root string) string { return statePath(root, dbName) }

// Load reads the cache for root. On any error an empty, usable DB is
// returned alongside the error.
func Load(root string) (DB, error) {
	var db DB
	if err := readJSON(Path(root), &db); err != nil {
		return New(), err
	}
	if db.Version != dbVersion {
		return New(), ErrStale
	}
	if db.Entries == nil {
		db.Entries = map[string]string{}
	}
	return db, nil
}

// Save writes db for root.
func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("cache: nil entries")
	}
	db.Version = dbVersion
	return writeJSON(Path(root), db)
}

// SaveResults records findings as the last scan of root.
func SaveResults(root string, findings []types.Finding) error {
	if findings == nil {
		findings = []types.Finding{}
	}
	return writeJSON(statePath(root, resultsName), ScanResults{
		Root:      root,
		Timestamp: time.Now().UTC(),
		Count:     len(findings),
		Findings:  findings,
	})
}

// LoadResults returns the last scan of root saved by SaveResults.
func LoadResults(root string) (ScanResults, error) {
	var r ScanResults
	err := readJSON(statePath(root, resultsName), &r)
	return r, err
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
