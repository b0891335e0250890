package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordsift/wordsift/internal/types"
)

func TestNewRecord(t *testing.T) {
	all := []types.Finding{
		{Path: "a.txt", Line: 1, Column: 4, Match: "二货", Type: types.TypeWord, Severity: types.SevHigh},
		{Path: "b.txt", Line: 2, Match: "12345678", Type: types.TypeNum, Severity: types.SevLow},
	}
	r := NewRecord("/repo", all, all[:1])
	assert.Equal(t, 2, r.Total)
	assert.Equal(t, 1, r.New)
	assert.Equal(t, 1, r.Baselined)
	assert.Equal(t, map[string]int{"high": 1, "low": 1}, r.BySeverity)
	assert.Equal(t, map[string]int{"word": 1, "num": 1}, r.ByType)
	require.Len(t, r.Entries, 1)
	assert.Equal(t, Entry{Path: "a.txt", Line: 1, Column: 4, Type: "word", Severity: "high", Runes: 2}, r.Entries[0])
	assert.NotEmpty(t, r.ID)
}

func TestNewRecord_CapsEntries(t *testing.T) {
	fs := make([]types.Finding, MaxEntries+5)
	for i := range fs {
		fs[i] = types.Finding{Path: "a.txt", Line: i + 1, Match: "x", Type: types.TypeWord, Severity: types.SevHigh}
	}
	r := NewRecord("/repo", fs, fs)
	assert.Len(t, r.Entries, MaxEntries)
	assert.Equal(t, MaxEntries+5, r.New)
}

func TestLog_AppendRecordsDelete(t *testing.T) {
	dir := t.TempDir()
	l := Open(dir)
	_, err := l.Records()
	assert.Error(t, err)

	all := []types.Finding{{Path: "a.txt", Line: 1, Match: "二货", Type: types.TypeWord, Severity: types.SevHigh}}
	first := NewRecord(dir, all, all)
	require.NoError(t, l.Append(first))
	second := NewRecord("second", nil, nil)
	require.NoError(t, l.Append(second))

	raw, err := os.ReadFile(filepath.Join(dir, ".wordsift_audit.jsonl"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "二货")
	assert.Equal(t, 2, strings.Count(string(raw), "\n"))

	recs, err := l.Records()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "second", recs[0].Root, "newest first")

	require.NoError(t, l.Delete(0))
	recs, err = l.Records()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, dir, recs[0].Root)
	assert.Error(t, l.Delete(5))
}

func TestLog_SkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	l := Open(dir)
	require.NoError(t, l.Append(NewRecord(dir, nil, nil)))
	f, err := os.OpenFile(filepath.Join(dir, ".git", "wordsift_audit.jsonl"), os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, _ = f.WriteString("{not json\n")
	require.NoError(t, f.Close())

	recs, err := l.Records()
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
