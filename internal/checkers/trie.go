package checkers

import "github.com/wordsift/wordsift/internal/normalize"

// maxSkip bounds how many noise or repeated runes a walk may step over in a
// row before giving up on the candidate.
const maxSkip = 16

type trieNode struct {
	next map[rune]*trieNode
	end  bool
}

// trie is a rune prefix tree over canonical terms. It is never mutated after
// buildTrie returns.
type trie struct {
	root  *trieNode
	terms int
}

func buildTrie(terms map[string]struct{}) *trie {
	t := &trie{root: &trieNode{next: make(map[rune]*trieNode)}}
	for term := range terms {
		if term == "" {
			continue
		}
		cur := t.root
		for _, r := range term {
			nxt, ok := cur.next[r]
			if !ok {
				nxt = &trieNode{next: make(map[rune]*trieNode)}
				cur.next[r] = nxt
			}
			cur = nxt
		}
		if !cur.end {
			cur.end = true
			t.terms++
		}
	}
	return t
}

// skipRules says which runes a walk may consume without a trie edge. They
// come from the dictionary's own options so the walk agrees with how its
// terms were canonicalized.
type skipRules struct {
	noise   bool
	repeats bool
}

// longest returns the length, in original runes, of the longest complete
// term starting at pos. With skip.noise, runes the context marks as noise are
// consumed inside a candidate and a candidate never starts on one; with
// skip.repeats a rune equal to the previously matched one is consumed the
// same way. A reported length always ends on a matched rune.
func (t *trie) longest(nc *normalize.Context, pos int, skip skipRules) int {
	if t == nil || t.terms == 0 || (skip.noise && nc.IsNoise(pos)) {
		return 0
	}
	cur := t.root
	best := 0
	prev := rune(-1)
	skipped := 0
	for i := pos; i < nc.Len(); i++ {
		r := nc.At(i)
		if nxt, ok := cur.next[r]; ok {
			cur = nxt
			prev = r
			skipped = 0
			if cur.end {
				best = i - pos + 1
			}
			continue
		}
		if i == pos || skipped >= maxSkip {
			break
		}
		if (skip.noise && nc.IsNoise(i)) || (skip.repeats && r == prev) {
			skipped++
			continue
		}
		break
	}
	return best
}
