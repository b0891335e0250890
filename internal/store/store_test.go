package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordsift/wordsift/internal/checkers"
	"github.com/wordsift/wordsift/internal/dict"
	"github.com/wordsift/wordsift/internal/normalize"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "terms.db")
	s, err := Open(p, normalize.DefaultOptions())
	require.NoError(t, err)
	return s, p
}

func TestStore_AddRemoveList(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	added, err := s.AddTerm("ＢＡＤ", checkers.Deny)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.AddTerm("bad", checkers.Deny)
	require.NoError(t, err)
	assert.False(t, added)
	_, err = s.AddTerm("badge", checkers.Allow)
	require.NoError(t, err)

	deny, err := s.List(checkers.Deny)
	require.NoError(t, err)
	assert.Equal(t, []string{"bad"}, deny)

	removed, err := s.RemoveTerm("Bad", checkers.Deny)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.RemoveTerm("bad", checkers.Deny)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = s.AddTerm("  ", checkers.Deny)
	assert.Error(t, err)
}

func TestStore_Tags(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	require.NoError(t, s.SetTags("干死", []string{"violence"}))
	tags, err := s.TagsOf("干死")
	require.NoError(t, err)
	assert.Equal(t, []string{"violence"}, tags)

	all, err := s.Tags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"干死": {"violence"}}, all)

	require.NoError(t, s.SetTags("干死", nil))
	tags, err = s.TagsOf("干死")
	require.NoError(t, err)
	assert.Nil(t, tags)
}

func TestStore_PersistsAndFeedsLoader(t *testing.T) {
	s, p := openTemp(t)
	_, err := s.AddTerm("二货", checkers.Deny)
	require.NoError(t, err)
	_, err = s.AddTerm("二货车", checkers.Allow)
	require.NoError(t, err)
	require.NoError(t, s.SetTags("二货", []string{"insult"}))
	require.NoError(t, s.Close())

	s, err = Open(p, normalize.DefaultOptions())
	require.NoError(t, err)
	defer s.Close()

	d := checkers.NewDictionary(checkers.DictionaryOptions{Normalize: normalize.DefaultOptions()})
	idx := dict.NewTagIndex(normalize.DefaultOptions())
	l := &dict.Loader{Sources: []dict.TermSource{s}}
	require.NoError(t, l.Apply(context.Background(), d, idx))
	assert.True(t, d.Contains("二货", checkers.Deny))
	assert.True(t, d.Contains("二货车", checkers.Allow))
	assert.Equal(t, []string{"insult"}, idx.TagsOf("二货"))
}
