package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordsift/wordsift/internal/checkers"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "wordsift.yaml", `threads: 4
max_bytes: 123
skip_repeats: true
checkers: word,url,num
dictionaries: [words.txt, extra.txt]
log:
  level: debug
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	require.NotNil(t, cfg.Threads)
	assert.Equal(t, 4, *cfg.Threads)
	require.NotNil(t, cfg.MaxBytes)
	assert.EqualValues(t, 123, *cfg.MaxBytes)
	require.NotNil(t, cfg.SkipRepeats)
	assert.True(t, *cfg.SkipRepeats)
	assert.Equal(t, []string{"words.txt", "extra.txt"}, cfg.Dictionaries)
	require.NotNil(t, cfg.Log)
	require.NotNil(t, cfg.Log.Level)
	assert.Equal(t, "debug", *cfg.Log.Level)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"unknown key": "thread: 4\n",
		"bad type":    "threads: many\n",
		"bad yaml":    "threads: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeTemp(t, dir, "c.yaml", body))
			assert.Error(t, err)
		})
	}
	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFile_Empty(t *testing.T) {
	cfg, err := LoadFile(writeTemp(t, t.TempDir(), "wordsift.yaml", ""))
	require.NoError(t, err)
	assert.Nil(t, cfg.Threads)
}

func TestLoadLocal_SearchOrder(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "wordsift.yaml", "threads: 1\n")
	writeTemp(t, dir, ".wordsift.yaml", "threads: 7\n")
	cfg, err := LoadLocal(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, *cfg.Threads)

	writeTemp(t, dir, ".wordsift.yml", "threads: 3\n")
	cfg, err = LoadLocal(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, *cfg.Threads)
}

func TestLoad_NoConfig(t *testing.T) {
	_, err := LoadLocal(t.TempDir())
	assert.ErrorIs(t, err, ErrNoConfig)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, err = LoadGlobal()
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestLoadGlobal_XDG(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "wordsift")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	writeTemp(t, cfgDir, "config.yml", "threads: 9\n")
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(cfgDir, "config.yml"), GlobalPath())
	cfg, err := LoadGlobal()
	require.NoError(t, err)
	assert.Equal(t, 9, *cfg.Threads)
}

func TestMerge_LocalWins(t *testing.T) {
	one, seven := 1, 7
	yes := true
	global := FileConfig{Threads: &one, FoldNoise: &yes, Dictionaries: []string{"g.txt"}}
	local := FileConfig{Threads: &seven}
	got := Merge(global, local)
	assert.Equal(t, 7, *got.Threads)
	assert.True(t, *got.FoldNoise)
	assert.Equal(t, []string{"g.txt"}, got.Dictionaries)
}

func TestOptions_Set(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, []string{"word", "url"}, o.Checkers)

	require.NoError(t, o.Set("checkers", "word, EMAIL ,ipv4"))
	assert.Equal(t, []string{"word", "email", "ipv4"}, o.Checkers)
	require.NoError(t, o.Set("ignore_case", "false"))
	assert.False(t, o.Normalize.IgnoreCase)
	require.NoError(t, o.Set("URL_MAX_LEN", "120"))
	assert.Equal(t, 120, o.URLMaxLen)
	require.NoError(t, o.Set("replace_char", "＃"))
	assert.Equal(t, '＃', o.ReplaceChar)

	assert.ErrorIs(t, o.Set("ignore_colour", "true"), ErrUnknownOption)
	assert.ErrorIs(t, o.Set("checkers", "word,phone"), checkers.ErrUnknownChecker)
	assert.Error(t, o.Set("num_min_len", "0"))
	assert.Error(t, o.Set("skip_repeats", "maybe"))
	assert.Error(t, o.Set("replace_char", "**"))
	assert.Contains(t, OptionNames(), "fold_noise")
}

func TestOptions_ApplyAndValidate(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "wordsift.yml", "url_min_len: 80\nfold_noise: true\n")
	fc, err := LoadFile(p)
	require.NoError(t, err)

	o := DefaultOptions()
	assert.False(t, o.Normalize.FoldNoise)
	require.NoError(t, o.Apply(fc))
	assert.True(t, o.Normalize.FoldNoise)
	assert.Error(t, o.Validate())

	co := o.CheckerOptions()
	assert.Equal(t, 80, co.URLMinLen)
	assert.True(t, co.Normalize.FoldNoise)
}

func TestOptions_EmptyCheckers(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "wordsift.yml", "checkers: \"\"\n")
	fc, err := LoadFile(p)
	require.NoError(t, err)
	require.NotNil(t, fc.Checkers)

	o := DefaultOptions()
	require.NoError(t, o.Apply(fc))
	assert.NotNil(t, o.Checkers)
	assert.Empty(t, o.Checkers)
	assert.False(t, o.IsZero())
	require.NoError(t, o.Validate())

	require.NoError(t, o.Set("checkers", " , "))
	assert.Equal(t, []string{}, o.Checkers)

	assert.True(t, Options{}.IsZero())
	assert.False(t, Options{Checkers: []string{}}.IsZero())
	assert.False(t, DefaultOptions().IsZero())
}
