// Package checkers implements the pattern checkers consulted by the scan
// engine. Each checker reports, for one start position, the longest denied and
// the longest allowed span beginning exactly there; the Registry folds the
// answers of all active checkers into a single result.
package checkers
