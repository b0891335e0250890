package checkers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordsift/wordsift/internal/normalize"
	"github.com/wordsift/wordsift/internal/types"
)

type fixed struct {
	id  string
	res Result
	err error
}

func (f fixed) ID() string           { return f.id }
func (f fixed) Type() types.WordType { return types.WordType(f.id) }
func (f fixed) Classify(*normalize.Context, int) (Result, error) {
	return f.res, f.err
}

func TestRegistry_Aggregation(t *testing.T) {
	nc := normalize.New("abcdef", normalize.DefaultOptions())
	reg := NewRegistry(
		fixed{id: "a", res: Result{Deny: 3, Allow: 1, Type: "a"}},
		fixed{id: "b", res: Result{Deny: 3, Allow: 4, Type: "b"}},
		fixed{id: "c", res: Result{Deny: 2}},
	)
	res, err := reg.Classify(nc, 0)
	require.NoError(t, err)
	assert.Equal(t, Result{Deny: 3, Allow: 4, Type: "a"}, res, "ties go to the first registered checker")
	assert.Equal(t, []string{"a", "b", "c"}, reg.IDs())
}

func TestRegistry_FillsMissingType(t *testing.T) {
	nc := normalize.New("abc", normalize.DefaultOptions())
	res, err := NewRegistry(fixed{id: "custom", res: Result{Deny: 2}}).Classify(nc, 0)
	require.NoError(t, err)
	assert.Equal(t, types.WordType("custom"), res.Type)
}

func TestRegistry_Fault(t *testing.T) {
	nc := normalize.New("abc", normalize.DefaultOptions())
	cause := errors.New("broken")
	_, err := NewRegistry(fixed{id: "ok"}, fixed{id: "bad", err: cause}).Classify(nc, 0)
	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "bad", fault.Checker)
	assert.ErrorIs(t, err, cause)

	_, err = NewRegistry(fixed{id: "neg", res: Result{Deny: -1}}).Classify(nc, 0)
	assert.Error(t, err)
}

func TestRegistry_Empty(t *testing.T) {
	var nilReg *Registry
	assert.Equal(t, 0, nilReg.Len())
	res, err := NewRegistry().Classify(normalize.New("x", normalize.DefaultOptions()), 0)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.False(t, NewRegistry().MayMatch(normalize.New("x", normalize.DefaultOptions())))
}

func TestBuild(t *testing.T) {
	d := newDict([]string{"x"}, nil)
	reg, err := Build([]string{"word", "URL", "word", " num "}, d, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"word", "url", "num"}, reg.IDs())

	_, err = Build([]string{"word", "phone"}, d, DefaultOptions())
	assert.ErrorIs(t, err, ErrUnknownChecker)

	_, err = New("word", nil, DefaultOptions())
	assert.Error(t, err)
}

func TestRegistry_MayMatch(t *testing.T) {
	d := newDict([]string{"zzz"}, nil)
	nc := normalize.New("hello", normalize.DefaultOptions())
	assert.False(t, NewRegistry(d).MayMatch(nc))
	assert.True(t, NewRegistry(d, NewURL(5, 70)).MayMatch(nc), "checkers without a prefilter always may match")
}

func TestRegistry_With(t *testing.T) {
	base := NewRegistry(fixed{id: "a"})
	ext := base.With(fixed{id: "b"}, nil)
	assert.Equal(t, []string{"a"}, base.IDs())
	assert.Equal(t, []string{"a", "b"}, ext.IDs())
	assert.Same(t, base, base.With())
}
