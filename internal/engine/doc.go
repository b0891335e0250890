// Package engine contains the core scanning logic for wordsift. Scan walks a
// single text with a checker registry and arbitrates deny against allow
// matches; ScanWithStats applies it to every eligible file under a root and
// returns located findings. This package is internal; external consumers
// should use the stable facade in pkg/core.
package engine
