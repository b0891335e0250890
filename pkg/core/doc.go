// Package core provides a small, stable facade over wordsift's internal
// engine for programs that embed sensitive-word detection. A Guard owns a
// dictionary, a tag index and a checker registry and answers Contains,
// FindAll, FindFirst and Replace queries safely from many goroutines while
// terms are added or removed.
//
// Example:
//
//	g, err := core.New(core.Config{Deny: []string{"二货"}, Allow: []string{"二货车"}})
//	if err != nil { /* handle */ }
//	ms, err := g.FindAll("大二货")
//	_ = core.MarshalMatches(os.Stdout, ms)
package core
