package wordsift

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/config"
	"github.com/wordsift/wordsift/internal/dict"
	"github.com/wordsift/wordsift/internal/store"
	"github.com/wordsift/wordsift/pkg/core"
)

// defaultStore is used by the dict commands when no store is configured, and
// loaded by every other command when it exists.
const defaultStore = ".wordsift.db"

// settings holds the config files that apply to one root.
type settings struct {
	root   string
	local  config.FileConfig
	global config.FileConfig
	// only, when set, replaces the active checker list.
	only string
}

func loadSettings(root string) (settings, error) {
	s := settings{root: root}
	g, err := config.LoadGlobal()
	switch {
	case err == nil:
		s.global = g
	case !errors.Is(err, config.ErrNoConfig):
		return s, err
	}
	l, err := config.LoadLocal(root)
	switch {
	case err == nil:
		s.local = l
	case !errors.Is(err, config.ErrNoConfig):
		return s, err
	}
	return s, nil
}

func (s settings) merged() config.FileConfig { return config.Merge(s.global, s.local) }

// options resolves detection options: defaults, then config files, then
// --checkers and --set.
func (s settings) options() (core.Options, error) {
	opts := core.DefaultOptions()
	if err := opts.Apply(s.merged()); err != nil {
		return opts, err
	}
	ids := flagCheckers
	if s.only != "" {
		ids = s.only
	}
	if ids != "" {
		if err := opts.Set("checkers", ids); err != nil {
			return opts, err
		}
	}
	for _, kv := range flagSet {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			return opts, fmt.Errorf("--set %q: want name=value", kv)
		}
		if err := opts.Set(name, val); err != nil {
			return opts, err
		}
	}
	return opts, opts.Validate()
}

func (s settings) storePath() string {
	if p := pickString(flagStore, s.local.Store, s.global.Store); p != "" {
		return p
	}
	return filepath.Join(s.root, defaultStore)
}

func (s settings) dictionaries() []string {
	if len(flagDicts) > 0 {
		return flagDicts
	}
	if len(s.local.Dictionaries) > 0 {
		return s.local.Dictionaries
	}
	return s.global.Dictionaries
}

// buildGuard assembles a guard from the resolved options and every
// configured term source. The returned func releases the term store.
func buildGuard(ctx context.Context, s settings) (*core.Guard, func() error, error) {
	opts, err := s.options()
	if err != nil {
		return nil, nil, err
	}
	var sources []core.TermSource
	for _, p := range s.dictionaries() {
		sources = append(sources, dict.SourceForPath(p))
	}
	m := s.merged()
	if m.DenyBase64 != nil || m.AllowBase64 != nil {
		sources = append(sources, dict.Base64List{Deny: deref(m.DenyBase64), Allow: deref(m.AllowBase64)})
	}
	release := func() error { return nil }
	sp := s.storePath()
	if _, err := os.Stat(sp); err == nil {
		st, err := store.Open(sp, opts.Normalize)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, st)
		release = st.Close
	}
	g, err := core.NewContext(ctx, core.Config{Options: opts, Sources: sources, Logger: slog.Default()})
	if err != nil {
		_ = release()
		return nil, nil, err
	}
	return g, release, nil
}

// readText joins args, or reads all of stdin when there are none.
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickInt64(cli int64, local, global *int64) int64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

// pickFlagBool prefers the flag when it was given explicitly, then the config
// files, then the flag default.
func pickFlagBool(cmd *cobra.Command, name string, cli bool, local, global *bool) bool {
	if cmd.Flags().Changed(name) {
		return cli
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return cli
}
