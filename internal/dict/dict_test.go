package dict

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordsift/wordsift/internal/checkers"
	"github.com/wordsift/wordsift/internal/normalize"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func newDictionary() *checkers.Dictionary {
	return checkers.NewDictionary(checkers.DictionaryOptions{Normalize: normalize.DefaultOptions()})
}

func TestWordList(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "deny.txt", "# comment\n二货\n\n  干死  \n")
	deny, allow, err := WordList{Path: p}.Terms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"二货", "干死"}, deny)
	assert.Nil(t, allow)

	deny, allow, err = WordList{Path: p, Partition: checkers.Allow}.Terms(context.Background())
	require.NoError(t, err)
	assert.Nil(t, deny)
	assert.Len(t, allow, 2)

	_, _, err = WordList{Path: filepath.Join(dir, "missing.txt")}.Terms(context.Background())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte("version: 1.2.0\ndeny: [a, b]\nallow: [ab]\ntags:\n  a: [x]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, doc.Deny)
	assert.Equal(t, []string{"ab"}, doc.Allow)
	assert.Equal(t, []string{"x"}, doc.Tags["a"])

	_, err = ParseDocument([]byte("version: 2.0.0\ndeny: [a]\n"))
	assert.ErrorContains(t, err, "not supported")

	_, err = ParseDocument([]byte("version: banana\n"))
	assert.Error(t, err)

	_, err = ParseDocument([]byte("deny: [a]\nblock: [b]\n"))
	assert.Error(t, err, "unknown keys are rejected")

	doc, err = ParseDocument(nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Deny)
}

func TestBase64List(t *testing.T) {
	src := Base64List{Deny: EncodeList([]string{"二货", " 干死 "}), Allow: EncodeList(nil)}
	deny, allow, err := src.Terms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"二货", "干死"}, deny)
	assert.Empty(t, allow)

	_, _, err = Base64List{Deny: "***"}.Terms(context.Background())
	assert.Error(t, err)
}

func TestSourceForPath(t *testing.T) {
	assert.IsType(t, YAMLFile{}, SourceForPath("words.YAML"))
	assert.IsType(t, WordList{}, SourceForPath("words.txt"))
}

func TestLoaderApply(t *testing.T) {
	dir := t.TempDir()
	list := writeFile(t, dir, "deny.txt", "二货\n")
	doc := writeFile(t, dir, "dict.yml", "deny: [干死]\nallow: [二货车]\ntags:\n  干死: [violence]\n  ＧＡＭＥ: [misc]\n")

	d := newDictionary()
	idx := NewTagIndex(normalize.DefaultOptions())
	l := &Loader{Sources: []TermSource{WordList{Path: list}, YAMLFile{Path: doc}}}
	require.NoError(t, l.Apply(context.Background(), d, idx))

	assert.Equal(t, []string{"二货", "干死"}, d.Terms(checkers.Deny))
	assert.Equal(t, []string{"二货车"}, d.Terms(checkers.Allow))
	assert.Equal(t, []string{"violence"}, idx.TagsOf("干死"))
	assert.Equal(t, []string{"misc"}, idx.TagsOf("game"))
	assert.Nil(t, idx.TagsOf("二货"))

	gen := d.Generation()
	bad := &Loader{Sources: []TermSource{WordList{Path: filepath.Join(dir, "nope")}}}
	assert.Error(t, bad.Apply(context.Background(), d, idx))
	assert.Equal(t, gen, d.Generation(), "failed loads leave the dictionary alone")
	assert.Equal(t, []string{"violence"}, idx.TagsOf("干死"))
}

func TestTagIndex(t *testing.T) {
	idx := NewTagIndex(normalize.DefaultOptions())
	idx.Set("Bad", []string{"b", "a", "b", " "})
	assert.Equal(t, []string{"a", "b"}, idx.TagsOf("BAD"))
	assert.Equal(t, 1, idx.Len())

	got := idx.TagsOf("bad")
	got[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, idx.TagsOf("bad"))

	idx.Set("bad", nil)
	assert.Nil(t, idx.TagsOf("bad"))
	assert.Equal(t, 0, idx.Len())

	var nilIdx *TagIndex
	assert.Nil(t, nilIdx.TagsOf("x"))
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "deny.txt", "alpha\n")

	d := newDictionary()
	l := &Loader{Sources: []TermSource{WordList{Path: p}}}
	require.NoError(t, l.Apply(context.Background(), d, nil))

	reloaded := make(chan error, 8)
	w := &Watcher{
		Loader:   l,
		Dict:     d,
		Paths:    []string{p},
		Debounce: 50 * time.Millisecond,
		OnReload: func(err error) { reloaded <- err },
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeFile(t, dir, "deny.txt", "alpha\nbeta\n")
	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	assert.True(t, d.Contains("beta", checkers.Deny))
	assert.NoError(t, w.Stop())
}
