package checkers

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	xxhash "github.com/cespare/xxhash/v2"
	aho "github.com/petar-dambovaliev/aho-corasick"
	"github.com/wordsift/wordsift/internal/normalize"
	"github.com/wordsift/wordsift/internal/types"
)

// Partition selects the deny or the allow half of a dictionary.
type Partition int

const (
	Deny Partition = iota
	Allow
)

func (p Partition) String() string {
	if p == Allow {
		return "allow"
	}
	return "deny"
}

// ParsePartition maps "deny"/"allow" (and "black"/"white") to a Partition.
func ParsePartition(s string) (Partition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deny", "denylist", "black", "blacklist":
		return Deny, nil
	case "allow", "allowlist", "white", "whitelist":
		return Allow, nil
	}
	return Deny, fmt.Errorf("unknown partition %q (want deny|allow)", s)
}

// DictionaryOptions controls how terms are canonicalized and walked.
type DictionaryOptions struct {
	Normalize   normalize.Options
	SkipRepeats bool
}

// snapshot is an immutable generation of the dictionary. Scans read one
// snapshot from start to end; mutations publish a new one.
type snapshot struct {
	deny, allow         map[string]struct{}
	denyTrie, allowTrie *trie
	prefilter           *aho.AhoCorasick
	generation          uint64
	fingerprint         uint64
}

// Dictionary is the term checker. Reads are lock-free; writers are
// serialized and swap in a freshly built snapshot (copy-on-write).
type Dictionary struct {
	opts DictionaryOptions
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

// NewDictionary returns an empty dictionary.
func NewDictionary(opts DictionaryOptions) *Dictionary {
	d := &Dictionary{opts: opts}
	d.snap.Store(d.build(map[string]struct{}{}, map[string]struct{}{}, 0))
	return d
}

// Options returns the options the dictionary was built with.
func (d *Dictionary) Options() DictionaryOptions { return d.opts }

func (d *Dictionary) ID() string           { return "word" }
func (d *Dictionary) Type() types.WordType { return types.TypeWord }

// Canonical folds a term the way the dictionary stores it.
func (d *Dictionary) Canonical(term string) string {
	return normalize.Canonical(term, d.opts.Normalize)
}

// LoadTerms replaces both partitions at once.
func (d *Dictionary) LoadTerms(deny, allow []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur := d.snap.Load()
	d.snap.Store(d.build(d.canonicalSet(deny), d.canonicalSet(allow), cur.generation+1))
}

// AddTerm inserts term into partition p. It reports whether the dictionary
// changed.
func (d *Dictionary) AddTerm(term string, p Partition) bool {
	c := d.Canonical(term)
	if c == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cur := d.snap.Load()
	deny, allow := cur.deny, cur.allow
	target := deny
	if p == Allow {
		target = allow
	}
	if _, ok := target[c]; ok {
		return false
	}
	if p == Allow {
		allow = cloneSet(allow)
		allow[c] = struct{}{}
	} else {
		deny = cloneSet(deny)
		deny[c] = struct{}{}
	}
	d.snap.Store(d.build(deny, allow, cur.generation+1))
	return true
}

// RemoveTerm deletes term from partition p. It reports whether the
// dictionary changed.
func (d *Dictionary) RemoveTerm(term string, p Partition) bool {
	c := d.Canonical(term)
	d.mu.Lock()
	defer d.mu.Unlock()
	cur := d.snap.Load()
	deny, allow := cur.deny, cur.allow
	if p == Allow {
		if _, ok := allow[c]; !ok {
			return false
		}
		allow = cloneSet(allow)
		delete(allow, c)
	} else {
		if _, ok := deny[c]; !ok {
			return false
		}
		deny = cloneSet(deny)
		delete(deny, c)
	}
	d.snap.Store(d.build(deny, allow, cur.generation+1))
	return true
}

// Contains reports whether the canonical form of term is in partition p.
func (d *Dictionary) Contains(term string, p Partition) bool {
	s := d.snap.Load()
	set := s.deny
	if p == Allow {
		set = s.allow
	}
	_, ok := set[d.Canonical(term)]
	return ok
}

// Terms returns the canonical terms of partition p, sorted.
func (d *Dictionary) Terms(p Partition) []string {
	s := d.snap.Load()
	set := s.deny
	if p == Allow {
		set = s.allow
	}
	return sortedKeys(set)
}

// Len returns the number of terms in partition p.
func (d *Dictionary) Len(p Partition) int {
	s := d.snap.Load()
	if p == Allow {
		return len(s.allow)
	}
	return len(s.deny)
}

// Generation increases by one with every published change.
func (d *Dictionary) Generation() uint64 { return d.snap.Load().generation }

// Fingerprint is a content hash of both partitions. Equal term sets always
// yield equal fingerprints.
func (d *Dictionary) Fingerprint() uint64 { return d.snap.Load().fingerprint }

// Bind implements Binder.
func (d *Dictionary) Bind() Checker {
	return &dictionaryView{snap: d.snap.Load(), skip: d.skipRules()}
}

// Classify implements Checker against the current snapshot. Scans should go
// through Bind so every position sees the same snapshot.
func (d *Dictionary) Classify(nc *normalize.Context, pos int) (Result, error) {
	return d.Bind().Classify(nc, pos)
}

// MayMatch implements Prefilter against the current snapshot.
func (d *Dictionary) MayMatch(nc *normalize.Context) bool {
	return d.Bind().(Prefilter).MayMatch(nc)
}

func (d *Dictionary) skipRules() skipRules {
	return skipRules{noise: d.opts.Normalize.FoldNoise, repeats: d.opts.SkipRepeats}
}

type dictionaryView struct {
	snap *snapshot
	skip skipRules
}

func (v *dictionaryView) ID() string           { return "word" }
func (v *dictionaryView) Type() types.WordType { return types.TypeWord }

func (v *dictionaryView) Classify(nc *normalize.Context, pos int) (Result, error) {
	res := Result{
		Deny:  v.snap.denyTrie.longest(nc, pos, v.skip),
		Allow: v.snap.allowTrie.longest(nc, pos, v.skip),
	}
	if res.Deny > 0 {
		res.Type = types.TypeWord
	}
	return res, nil
}

// MayMatch runs the deny automaton over the canonical text with the runes the
// trie walk may skip removed, which is a superset of what the walk can match.
func (v *dictionaryView) MayMatch(nc *normalize.Context) bool {
	if len(v.snap.deny) == 0 {
		return false
	}
	if v.snap.prefilter == nil {
		return true
	}
	var b strings.Builder
	b.Grow(nc.Len())
	prev := rune(-1)
	for i := 0; i < nc.Len(); i++ {
		if v.skip.noise && nc.IsNoise(i) {
			continue
		}
		r := nc.At(i)
		if v.skip.repeats && r == prev {
			continue
		}
		prev = r
		b.WriteRune(r)
	}
	return len(v.snap.prefilter.FindAll(b.String())) > 0
}

func (d *Dictionary) canonicalSet(terms []string) map[string]struct{} {
	out := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if c := d.Canonical(t); c != "" {
			out[c] = struct{}{}
		}
	}
	return out
}

func (d *Dictionary) build(deny, allow map[string]struct{}, gen uint64) *snapshot {
	s := &snapshot{
		deny:       deny,
		allow:      allow,
		denyTrie:   buildTrie(deny),
		allowTrie:  buildTrie(allow),
		generation: gen,
	}
	if len(deny) > 0 {
		patterns := make([]string, 0, len(deny))
		for _, t := range sortedKeys(deny) {
			if d.opts.SkipRepeats {
				t = collapseRepeats(t)
			}
			patterns = append(patterns, t)
		}
		b := aho.NewAhoCorasickBuilder(aho.Opts{DFA: true})
		ac := b.Build(patterns)
		s.prefilter = &ac
	}
	s.fingerprint = fingerprint(deny, allow)
	return s
}

func fingerprint(deny, allow map[string]struct{}) uint64 {
	h := xxhash.New()
	for _, t := range sortedKeys(deny) {
		_, _ = h.WriteString("d\x00" + t + "\x00")
	}
	for _, t := range sortedKeys(allow) {
		_, _ = h.WriteString("a\x00" + t + "\x00")
	}
	return h.Sum64()
}

func collapseRepeats(s string) string {
	var b strings.Builder
	prev := rune(-1)
	for _, r := range s {
		if r == prev {
			continue
		}
		prev = r
		b.WriteRune(r)
	}
	return b.String()
}

func cloneSet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in)+1)
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
