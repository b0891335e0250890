package dict

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wordsift/wordsift/internal/normalize"
)

// TagIndex maps canonical words to their tags. Lookups are lock-free;
// updates swap in a new map.
type TagIndex struct {
	opts normalize.Options
	mu   sync.Mutex
	m    atomic.Pointer[map[string][]string]
}

// NewTagIndex returns an empty index canonicalizing keys with opts.
func NewTagIndex(opts normalize.Options) *TagIndex {
	t := &TagIndex{opts: opts}
	empty := map[string][]string{}
	t.m.Store(&empty)
	return t
}

// Replace swaps the whole index.
func (t *TagIndex) Replace(tags map[string][]string) {
	next := make(map[string][]string, len(tags))
	for word, ts := range tags {
		mergeTags(next, normalize.Canonical(word, t.opts), ts)
	}
	t.mu.Lock()
	t.m.Store(&next)
	t.mu.Unlock()
}

// Set replaces the tags of a single word. An empty tag list removes it.
func (t *TagIndex) Set(word string, tags []string) {
	key := normalize.Canonical(word, t.opts)
	if key == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	cur := *t.m.Load()
	next := make(map[string][]string, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	delete(next, key)
	mergeTags(next, key, tags)
	t.m.Store(&next)
}

// TagsOf returns the sorted tags of word, or nil.
func (t *TagIndex) TagsOf(word string) []string {
	if t == nil {
		return nil
	}
	tags := (*t.m.Load())[normalize.Canonical(word, t.opts)]
	if len(tags) == 0 {
		return nil
	}
	return append([]string(nil), tags...)
}

// Len returns the number of tagged words.
func (t *TagIndex) Len() int { return len(*t.m.Load()) }

func mergeTags(m map[string][]string, key string, tags []string) {
	if key == "" {
		return
	}
	seen := map[string]bool{}
	for _, tg := range m[key] {
		seen[tg] = true
	}
	out := m[key]
	for _, tg := range tags {
		tg = strings.TrimSpace(tg)
		if tg == "" || seen[tg] {
			continue
		}
		seen[tg] = true
		out = append(out, tg)
	}
	if len(out) == 0 {
		return
	}
	sort.Strings(out)
	m[key] = out
}
