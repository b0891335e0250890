package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/wordsift/wordsift/internal/types"
	"golang.org/x/term"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	FilesCached  int
	// Mask hides the middle of each match.
	Mask bool
}

// ColorEnabled reports whether f should receive ANSI colour: it must be a
// terminal, NO_COLOR must be unset and noColor false.
func ColorEnabled(f *os.File, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func sortFindings(findings []types.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Column < findings[j].Column
	})
}

// PrintText writes one line per finding.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No sensitive words found ✅")
	} else {
		maxType := 4
		for _, f := range findings {
			if l := len(f.Type); l > maxType {
				maxType = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			sev := string(f.Severity)
			if !opts.NoColor {
				sev = colorSeverity(f.Severity)
			}
			fmt.Fprintf(w, "%-6s %-*s %s:%d:%d  %s%s\n", sev, maxType, f.Type, f.Path, f.Line, f.Column, display(f.Match, opts), tagSuffix(f.Tags))
		}
	}
	printFooter(w, findings, opts)
}

// PrintTable renders findings as a bordered table.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No sensitive words found ✅")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("SEVERITY", "TYPE", "FILE", "LINE", "MATCH", "TAGS")
		for _, f := range findings {
			sev := string(f.Severity)
			if !opts.NoColor {
				sev = colorSeverity(f.Severity)
			}
			_ = table.Append([]string{
				sev,
				string(f.Type),
				f.Path,
				strconv.Itoa(f.Line) + ":" + strconv.Itoa(f.Column),
				display(f.Match, opts),
				strings.Join(f.Tags, ","),
			})
		}
		_ = table.Render()
	}
	printFooter(w, findings, opts)
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	high, med, low := 0, 0, 0
	for _, f := range findings {
		switch f.Severity {
		case types.SevHigh:
			high++
		case types.SevMed:
			med++
		default:
			low++
		}
	}
	if opts.Duration > 0 || opts.FilesScanned > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Findings: %d (high: %d, medium: %d, low: %d)\n", len(findings), high, med, low)
		if opts.Duration > 0 {
			fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
		}
		if opts.FilesScanned > 0 {
			fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
		}
		if opts.FilesCached > 0 {
			fmt.Fprintf(w, "Files unchanged (cached): %d\n", opts.FilesCached)
		}
	}
}

func display(s string, opts PrintOptions) string {
	if opts.Mask {
		return maskValue(s)
	}
	return s
}

// maskValue keeps the first and last rune of longer matches.
func maskValue(s string) string {
	r := []rune(s)
	if len(r) <= 2 {
		return strings.Repeat("*", len(r))
	}
	return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
}

func tagSuffix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "  [" + strings.Join(tags, ",") + "]"
}

func colorSeverity(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "\x1b[31mhigh\x1b[0m" // red
	case types.SevMed:
		return "\x1b[33mmedium\x1b[0m" // yellow
	default:
		return "\x1b[36mlow\x1b[0m" // cyan
	}
}

// MaskFindings returns a copy of fs with every match masked like
// PrintOptions.Mask does.
func MaskFindings(fs []types.Finding) []types.Finding {
	out := make([]types.Finding, len(fs))
	for i, f := range fs {
		f.Match = maskValue(f.Match)
		out[i] = f
	}
	return out
}
