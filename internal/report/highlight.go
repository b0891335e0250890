package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/wordsift/wordsift/internal/types"
)

var (
	wordStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))

	patternStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("3"))
)

// Highlight returns text with every match span marked. With color the spans
// are styled; without, they are wrapped in brackets. ms must be ordered and
// non-overlapping, as returned by a scan.
func Highlight(text string, ms []types.Match, color bool) string {
	if len(ms) == 0 {
		return text
	}
	runes := []rune(text)
	var b strings.Builder
	last := 0
	for _, m := range ms {
		if m.Start < last || m.End > len(runes) {
			continue
		}
		b.WriteString(string(runes[last:m.Start]))
		span := string(runes[m.Start:m.End])
		switch {
		case !color:
			b.WriteString("[" + span + "]")
		case m.Type == types.TypeWord:
			b.WriteString(wordStyle.Render(span))
		default:
			b.WriteString(patternStyle.Render(span))
		}
		last = m.End
	}
	b.WriteString(string(runes[last:]))
	return b.String()
}

// WriteJSON writes findings as an indented JSON array.
func WriteJSON(w io.Writer, findings []types.Finding) error {
	if findings == nil {
		findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}
