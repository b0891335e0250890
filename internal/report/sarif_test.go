package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordsift/wordsift/internal/types"
)

func TestWriteSARIFWithStats_IncludesProperties(t *testing.T) {
	findings := []types.Finding{{Path: "a/b.txt", Line: 3, Column: 2, Match: "二货", Type: types.TypeWord, Severity: types.SevHigh, Tags: []string{"insult"}}}
	stats := map[string]int{"filesScanned": 2, "filesCached": 1}
	var buf bytes.Buffer
	if err := WriteSARIFWithStats(&buf, findings, stats); err != nil {
		t.Fatalf("WriteSARIFWithStats: %v", err)
	}
	var doc struct {
		Runs []struct {
			Properties map[string]any `json:"properties"`
			Tool       struct {
				Driver struct {
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID     string         `json:"ruleId"`
				RuleIndex  int            `json:"ruleIndex"`
				Properties map[string]any `json:"properties"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v; body=%s", err, buf.String())
	}
	if len(doc.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(doc.Runs))
	}
	ss, ok := doc.Runs[0].Properties["scanStats"].(map[string]any)
	if !ok {
		t.Fatalf("expected scanStats in properties, got: %#v", doc.Runs[0].Properties)
	}
	if ss["filesScanned"].(float64) != 2 || ss["filesCached"].(float64) != 1 {
		t.Fatalf("unexpected scanStats values: %#v", ss)
	}
	if len(doc.Runs[0].Tool.Driver.Rules) != 1 || doc.Runs[0].Tool.Driver.Rules[0].ID != "word" {
		t.Fatalf("expected a single word rule, got %#v", doc.Runs[0].Tool.Driver.Rules)
	}
	if r := doc.Runs[0].Results[0]; r.RuleID != "word" || r.RuleIndex != 0 || r.Properties["tags"] == nil {
		t.Fatalf("unexpected result: %#v", r)
	}
}

func TestWriteSARIF_Golden(t *testing.T) {
	fs := []types.Finding{
		{Path: "a.txt", Line: 10, Column: 1, Match: "http://a.cn", Type: types.TypeURL, Severity: types.SevMed},
		{Path: "b.txt", Line: 5, Column: 3, Match: "二货", Type: types.TypeWord, Severity: types.SevHigh},
	}
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, fs); err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["version"] != "2.1.0" {
		t.Fatalf("expected SARIF 2.1.0, got %v", doc["version"])
	}
	runs, ok := doc["runs"].([]any)
	if !ok || len(runs) != 1 {
		t.Fatalf("expected 1 run")
	}
	run := runs[0].(map[string]any)
	driver := run["tool"].(map[string]any)["driver"].(map[string]any)
	rules, ok := driver["rules"].([]any)
	if !ok || len(rules) != 2 {
		t.Fatalf("expected 2 rules under tool.driver.rules, got %v", driver["rules"])
	}
	// rules are sorted by id
	results := run["results"].([]any)
	first := results[0].(map[string]any)
	if first["ruleId"] != "url" || first["ruleIndex"].(float64) != 0 || first["level"] != "warning" {
		t.Fatalf("unexpected first result: %v", first)
	}
	phys := first["locations"].([]any)[0].(map[string]any)["physicalLocation"].(map[string]any)
	region := phys["region"].(map[string]any)
	if _, ok := region["snippet"]; !ok {
		t.Fatalf("expected snippet present")
	}
}

func TestBaseline_FilterAndFail(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, DefaultBaselineFile)
	old := []types.Finding{{Path: "a.txt", Line: 1, Match: "二货", Type: types.TypeWord, Severity: types.SevHigh}}
	require.NoError(t, SaveBaseline(p, old))
	base, err := LoadBaseline(p)
	require.NoError(t, err)
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, []string{"a.txt|word|二货"}, base.Keys())

	now := []types.Finding{
		{Path: "a.txt", Line: 7, Match: "二货", Type: types.TypeWord, Severity: types.SevHigh},
		{Path: "a.txt", Line: 9, Match: "12345678", Type: types.TypeNum, Severity: types.SevLow},
	}
	fresh := FilterNewFindings(now, base)
	require.Len(t, fresh, 1)
	assert.Equal(t, types.TypeNum, fresh[0].Type)
	assert.False(t, ShouldFail(fresh, ""), "low severity passes the default threshold")
	assert.True(t, ShouldFail(fresh, "low"))

	_, err = LoadBaseline(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestBaseline_CountsOccurrences(t *testing.T) {
	word := types.Finding{Path: "a.txt", Match: "二货", Type: types.TypeWord, Severity: types.SevHigh}
	base := NewBaseline([]types.Finding{word})
	second := word
	second.Line = 5
	fresh := FilterNewFindings([]types.Finding{word, second}, base)
	require.Len(t, fresh, 1)
	assert.Equal(t, 5, fresh[0].Line)
	assert.True(t, ShouldFail(fresh, "high"))
}
