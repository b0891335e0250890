// Package wordsift is the wordsift command tree: one-shot text checks,
// file and git scanning, dictionary management and the HTTP service.
// main only calls Execute.
package wordsift
