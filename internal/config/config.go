package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for wordsift.
type FileConfig struct {
	// Detection options; names match Options.Set.
	Checkers           *string `yaml:"checkers,omitempty"`
	IgnoreCase         *bool   `yaml:"ignore_case,omitempty"`
	IgnoreWidth        *bool   `yaml:"ignore_width,omitempty"`
	IgnoreNumStyle     *bool   `yaml:"ignore_num_style,omitempty"`
	IgnoreEnglishStyle *bool   `yaml:"ignore_english_style,omitempty"`
	FoldNoise          *bool   `yaml:"fold_noise,omitempty"`
	SkipRepeats        *bool   `yaml:"skip_repeats,omitempty"`
	URLMinLen          *int    `yaml:"url_min_len,omitempty"`
	URLMaxLen          *int    `yaml:"url_max_len,omitempty"`
	NumMinLen          *int    `yaml:"num_min_len,omitempty"`
	ReplaceChar        *string `yaml:"replace_char,omitempty"`

	// Dictionary sources
	Dictionaries []string `yaml:"dictionaries,omitempty"`
	DenyBase64   *string  `yaml:"deny_b64,omitempty"`
	AllowBase64  *string  `yaml:"allow_b64,omitempty"`
	Store        *string  `yaml:"store,omitempty"`
	Watch        *bool    `yaml:"watch,omitempty"`

	// File scanning mirrors CLI flags
	Include         *string `yaml:"include,omitempty"`
	Exclude         *string `yaml:"exclude,omitempty"`
	MaxBytes        *int64  `yaml:"max_bytes,omitempty"`
	Threads         *int    `yaml:"threads,omitempty"`
	DefaultExcludes *bool   `yaml:"default_excludes,omitempty"`
	NoColor         *bool   `yaml:"no_color,omitempty"`
	FailOn          *string `yaml:"fail_on,omitempty"`

	Server *ServerConfig `yaml:"server,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
}

// ServerConfig configures `wordsift serve`.
type ServerConfig struct {
	Addr *string `yaml:"addr,omitempty"`
	// MaxBodyBytes bounds request bodies; zero keeps the default.
	MaxBodyBytes *int64 `yaml:"max_body_bytes,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level *string `yaml:"level,omitempty"`
	// File, when set, receives JSON records in addition to stderr.
	File *string `yaml:"file,omitempty"`
}

// LoadFile reads a YAML config file from the provided path. Unknown keys are
// an error.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ErrNoConfig reports that no config file was found.
var ErrNoConfig = errors.New("no config file")

// LocalNames lists the repo-local config file names in search order.
var LocalNames = []string{".wordsift.yml", ".wordsift.yaml", "wordsift.yml", "wordsift.yaml"}

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, ErrNoConfig
}

// GlobalPath returns the global config location, or "" when neither
// XDG_CONFIG_HOME nor a home directory is available.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "wordsift", "config.yml")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p := GlobalPath()
	if p == "" {
		return cfg, ErrNoConfig
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, ErrNoConfig
}

// Merge overlays hi on lo: every field set in hi wins.
func Merge(lo, hi FileConfig) FileConfig {
	out := lo
	setStr := func(dst **string, v *string) {
		if v != nil {
			*dst = v
		}
	}
	setBool := func(dst **bool, v *bool) {
		if v != nil {
			*dst = v
		}
	}
	setInt := func(dst **int, v *int) {
		if v != nil {
			*dst = v
		}
	}
	setStr(&out.Checkers, hi.Checkers)
	setBool(&out.IgnoreCase, hi.IgnoreCase)
	setBool(&out.IgnoreWidth, hi.IgnoreWidth)
	setBool(&out.IgnoreNumStyle, hi.IgnoreNumStyle)
	setBool(&out.IgnoreEnglishStyle, hi.IgnoreEnglishStyle)
	setBool(&out.FoldNoise, hi.FoldNoise)
	setBool(&out.SkipRepeats, hi.SkipRepeats)
	setInt(&out.URLMinLen, hi.URLMinLen)
	setInt(&out.URLMaxLen, hi.URLMaxLen)
	setInt(&out.NumMinLen, hi.NumMinLen)
	setStr(&out.ReplaceChar, hi.ReplaceChar)
	if len(hi.Dictionaries) > 0 {
		out.Dictionaries = hi.Dictionaries
	}
	setStr(&out.DenyBase64, hi.DenyBase64)
	setStr(&out.AllowBase64, hi.AllowBase64)
	setStr(&out.Store, hi.Store)
	setBool(&out.Watch, hi.Watch)
	setStr(&out.Include, hi.Include)
	setStr(&out.Exclude, hi.Exclude)
	if hi.MaxBytes != nil {
		out.MaxBytes = hi.MaxBytes
	}
	setInt(&out.Threads, hi.Threads)
	setBool(&out.DefaultExcludes, hi.DefaultExcludes)
	setBool(&out.NoColor, hi.NoColor)
	setStr(&out.FailOn, hi.FailOn)
	if hi.Server != nil {
		out.Server = hi.Server
	}
	if hi.Log != nil {
		out.Log = hi.Log
	}
	return out
}
