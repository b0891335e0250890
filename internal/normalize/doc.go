// Package normalize builds the canonical comparison view of a text. The view
// is aligned rune-for-rune with the original: folding only substitutes runes,
// it never inserts or deletes them, so a canonical span [i, j) always maps to
// the original runes [i, j).
package normalize
