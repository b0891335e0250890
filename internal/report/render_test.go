package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/wordsift/wordsift/internal/types"
)

func TestPrintText_NoFindings_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, nil, PrintOptions{Duration: 1200 * time.Millisecond, FilesScanned: 10})
	out := buf.String()
	if !strings.Contains(out, "No sensitive words found") {
		t.Fatalf("expected friendly no-findings message; got: %q", out)
	}
	if !strings.Contains(out, "Files scanned: 10") {
		t.Fatalf("expected footer with files scanned; got: %q", out)
	}
}

func TestPrintText_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	fs := []types.Finding{{Path: "a.txt", Line: 1, Column: 4, Match: "二货", Type: types.TypeWord, Severity: types.SevHigh, Tags: []string{"insult"}}}
	PrintText(&buf, fs, PrintOptions{NoColor: true})
	out := buf.String()
	if !strings.Contains(out, "Findings: 1") {
		t.Fatalf("expected findings header; got: %q", out)
	}
	if !strings.Contains(out, "a.txt:1:4  二货  [insult]") {
		t.Fatalf("expected location, match and tags; got: %q", out)
	}
}

func TestPrintText_Mask(t *testing.T) {
	var buf bytes.Buffer
	fs := []types.Finding{{Path: "a.txt", Line: 1, Column: 1, Match: "badword", Type: types.TypeWord, Severity: types.SevHigh}}
	PrintText(&buf, fs, PrintOptions{NoColor: true, Mask: true})
	if out := buf.String(); !strings.Contains(out, "b*****d") || strings.Contains(out, "badword") {
		t.Fatalf("expected masked match; got: %q", out)
	}
}

func TestPrintTable_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	fs := []types.Finding{{Path: "a.txt", Line: 1, Column: 1, Match: "http://a.cn", Type: types.TypeURL, Severity: types.SevMed}}
	PrintTable(&buf, fs, PrintOptions{NoColor: true})
	out := buf.String()
	if !strings.Contains(out, "SEVERITY") {
		t.Fatalf("expected table header with SEVERITY; got: %q", out)
	}
	if !strings.Contains(out, "http://a.cn") {
		t.Fatalf("expected match in table; got: %q", out)
	}
	if !strings.Contains(out, "│") {
		t.Fatalf("expected table borders; got: %q", out)
	}
}

func TestPrintTable_NoFindings_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, nil, PrintOptions{Duration: 1200 * time.Millisecond, FilesScanned: 10, FilesCached: 3})
	out := buf.String()
	if !strings.Contains(out, "No sensitive words found") {
		t.Fatalf("expected friendly no-findings message; got: %q", out)
	}
	if !strings.Contains(out, "Files unchanged (cached): 3") {
		t.Fatalf("expected cached count in footer; got: %q", out)
	}
}

func TestHighlight_Plain(t *testing.T) {
	text := "大二货 see http://a.cn"
	ms := []types.Match{
		{Start: 1, End: 3, Type: types.TypeWord},
		{Start: 8, End: 19, Type: types.TypeURL},
	}
	if got, want := Highlight(text, ms, false), "大[二货] see [http://a.cn]"; got != want {
		t.Fatalf("Highlight=%q want %q", got, want)
	}
	if got := Highlight(text, nil, true); got != text {
		t.Fatalf("no matches must return text unchanged, got %q", got)
	}
}

func TestHighlight_ColorKeepsText(t *testing.T) {
	out := Highlight("x 二货 y", []types.Match{{Start: 2, End: 4, Type: types.TypeWord}}, true)
	if !strings.Contains(out, "二货") || !strings.HasPrefix(out, "x ") || !strings.HasSuffix(out, " y") {
		t.Fatalf("unexpected highlight output: %q", out)
	}
}

func TestWriteJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", buf.String())
	}
}
