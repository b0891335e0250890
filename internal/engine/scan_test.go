package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordsift/wordsift/internal/checkers"
	"github.com/wordsift/wordsift/internal/normalize"
	"github.com/wordsift/wordsift/internal/types"
)

func newRegistry(t *testing.T, deny, allow []string, ids ...string) *checkers.Registry {
	t.Helper()
	opts := checkers.DefaultOptions()
	dict := checkers.NewDictionary(checkers.DictionaryOptions{Normalize: opts.Normalize})
	dict.LoadTerms(deny, allow)
	if len(ids) == 0 {
		ids = []string{"word"}
	}
	reg, err := checkers.Build(ids, dict, opts)
	require.NoError(t, err)
	return reg
}

func texts(ms []types.Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Text
	}
	return out
}

func TestScan_EndToEnd(t *testing.T) {
	reg := newRegistry(t, []string{"二货", "干死"}, nil)
	text := "你这个大二货,我真想干死你这个大二货。"

	all, err := Scan(text, types.CollectAll, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"二货", "干死", "二货"}, texts(all))

	first, err := Scan(text, types.StopAtFirst, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, all[0], first[0])
}

func TestScan_CursorAdvancesPastMatch(t *testing.T) {
	reg := newRegistry(t, []string{"二货", "货"}, nil)
	ms, err := Scan("大二货", types.CollectAll, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ms, 1, "the nested 货 inside a reported span is not reported again")
	assert.Equal(t, types.Match{Start: 1, End: 3, Type: types.TypeWord, Text: "二货"}, ms[0])
}

func TestScan_AllowPrecedence(t *testing.T) {
	reg := newRegistry(t, []string{"ab", "d"}, []string{"abc"})
	ms, err := Scan("abcd", types.CollectAll, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	// abc is exempt and skipped as a whole, the scan resumes at index 3
	require.Len(t, ms, 1)
	assert.Equal(t, 3, ms[0].Start)
	assert.Equal(t, "d", ms[0].Text)

	reg = newRegistry(t, []string{"ab"}, []string{"abc"})
	ms, err = Scan("abcd", types.CollectAll, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestScan_EqualLengthAllowWins(t *testing.T) {
	reg := newRegistry(t, []string{"bad"}, []string{"bad"})
	ms, err := Scan("so bad", types.CollectAll, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestScan_LongerDenyBeatsShorterAllow(t *testing.T) {
	reg := newRegistry(t, []string{"abcd"}, []string{"ab"})
	ms, err := Scan("xabcdx", types.CollectAll, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "abcd", ms[0].Text)
}

func TestScan_LongestDenyWins(t *testing.T) {
	reg := newRegistry(t, []string{"ab", "abcde"}, nil)
	ms, err := Scan("abcdef", types.CollectAll, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "abcde", ms[0].Text)
}

func TestScan_ReportsOriginalText(t *testing.T) {
	reg := newRegistry(t, []string{"fuck"}, nil)
	ms, err := Scan("what the ＦＵＣＫ and F*u*C*k", types.CollectAll, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"ＦＵＣＫ", "F*u*C*k"}, texts(ms))
	assert.Equal(t, 9, ms[0].Start)
	assert.Equal(t, 13, ms[0].End)
}

func TestScan_URL(t *testing.T) {
	reg := newRegistry(t, nil, nil, "word", "url")
	ms, err := Scan("visit http://a.cn now", types.CollectAll, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, types.TypeURL, ms[0].Type)
	assert.Equal(t, "http://a.cn", ms[0].Text)
	assert.Equal(t, 6, ms[0].Start)

	ms, err = Scan("visit a.cn now", types.CollectAll, reg, normalize.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestScan_NoDenyTermsPresent(t *testing.T) {
	reg := newRegistry(t, []string{"二货", "干死"}, nil)
	for _, text := range []string{"", "hello world", "二 three 货", "你好，世界", strings.Repeat("二", 50)} {
		ms, err := Scan(text, types.CollectAll, reg, normalize.DefaultOptions())
		require.NoError(t, err)
		assert.Empty(t, ms, text)
	}
}

func TestScan_ModesConsistentAndIdempotent(t *testing.T) {
	reg := newRegistry(t, []string{"foo", "bar", "ba"}, []string{"barn"}, "word", "url", "num")
	inputs := []string{
		"foo bar barn",
		"see https://example.com/foo then 1234567890",
		"nothing here",
		"barnbar foofoo",
	}
	for _, text := range inputs {
		all, err := Scan(text, types.CollectAll, reg, normalize.DefaultOptions())
		require.NoError(t, err)
		again, err := Scan(text, types.CollectAll, reg, normalize.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, all, again, "idempotent for %q", text)

		first, err := Scan(text, types.StopAtFirst, reg, normalize.DefaultOptions())
		require.NoError(t, err)
		if len(all) == 0 {
			assert.Empty(t, first)
			continue
		}
		require.Len(t, first, 1)
		assert.Equal(t, all[0], first[0])

		for i := 1; i < len(all); i++ {
			assert.LessOrEqual(t, all[i-1].End, all[i].Start, "matches never overlap")
		}
	}
}

func TestScan_InvalidInput(t *testing.T) {
	reg := newRegistry(t, []string{"x"}, nil)
	_, err := Scan("bad \xff bytes", types.CollectAll, reg, normalize.DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScan_EmptyRegistry(t *testing.T) {
	ms, err := Scan("anything at all", types.CollectAll, checkers.NewRegistry(), normalize.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, ms)
}

type faultyChecker struct {
	at    int
	panic bool
}

func (f faultyChecker) ID() string           { return "faulty" }
func (f faultyChecker) Type() types.WordType { return "faulty" }
func (f faultyChecker) Classify(_ *normalize.Context, pos int) (checkers.Result, error) {
	if pos == f.at {
		if f.panic {
			panic("boom")
		}
		return checkers.Result{}, errors.New("dictionary unavailable")
	}
	return checkers.Result{}, nil
}

func TestScan_CheckerFaultDiscardsPartialResults(t *testing.T) {
	dict := checkers.NewDictionary(checkers.DictionaryOptions{Normalize: normalize.DefaultOptions()})
	dict.LoadTerms([]string{"a"}, nil)
	for _, panics := range []bool{false, true} {
		reg := checkers.NewRegistry(dict, faultyChecker{at: 4, panic: panics})
		ms, err := Scan("a a a a", types.CollectAll, reg, normalize.DefaultOptions())
		require.Error(t, err)
		assert.Nil(t, ms)

		var se *ScanError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 4, se.Pos)
		var fault *checkers.Fault
		require.ErrorAs(t, err, &fault)
		assert.Equal(t, "faulty", fault.Checker)
	}
}

func TestScan_SnapshotIsolation(t *testing.T) {
	dict := checkers.NewDictionary(checkers.DictionaryOptions{Normalize: normalize.DefaultOptions()})
	dict.LoadTerms([]string{"alpha"}, nil)
	reg := checkers.NewRegistry(dict).Bind()

	dict.AddTerm("beta", checkers.Deny)
	ms, err := ScanContext(normalize.New("alpha beta", normalize.DefaultOptions()), types.CollectAll, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, texts(ms), "a bound registry keeps reading its snapshot")

	ms, err = Scan("alpha beta", types.CollectAll, checkers.NewRegistry(dict), normalize.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, texts(ms))
}
