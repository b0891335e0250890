package report

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/wordsift/wordsift/internal/types"
)

// ToolVersion is reported as the SARIF driver version.
var ToolVersion = "dev"

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID     string         `json:"ruleId"`
	RuleIndex  int            `json:"ruleIndex"`
	Level      string         `json:"level"`
	Message    sarifMessage   `json:"message"`
	Locations  []sarifLoc     `json:"locations"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int          `json:"startLine"`
	StartColumn int          `json:"startColumn,omitempty"`
	Snippet     sarifMessage `json:"snippet"`
}

var ruleText = map[types.WordType]string{
	types.TypeWord:  "Dictionary term",
	types.TypeURL:   "URL",
	types.TypeEmail: "E-mail address",
	types.TypeNum:   "Long digit run",
	types.TypeIPv4:  "IPv4 address",
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer.
func WriteSARIF(w io.Writer, findings []types.Finding) error {
	return WriteSARIFWithStats(w, findings, nil)
}

// WriteSARIFWithStats is WriteSARIF plus scan statistics under the run's
// properties.
func WriteSARIFWithStats(w io.Writer, findings []types.Finding, stats map[string]int) error {
	ruleIdx := map[types.WordType]int{}
	var ids []string
	for _, f := range findings {
		if _, ok := ruleIdx[f.Type]; !ok {
			ruleIdx[f.Type] = 0
			ids = append(ids, string(f.Type))
		}
	}
	sort.Strings(ids)
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "wordsift", Version: ToolVersion, Rules: []sarifRule{}}},
		Results: []sarifResult{},
	}
	for i, id := range ids {
		t := types.WordType(id)
		ruleIdx[t] = i
		desc := ruleText[t]
		if desc == "" {
			desc = id
		}
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{ID: id, ShortDescription: sarifMessage{Text: desc}})
	}
	for _, f := range findings {
		res := sarifResult{
			RuleID:    string(f.Type),
			RuleIndex: ruleIdx[f.Type],
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: string(f.Type) + " match: " + f.Match},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.Path},
					Region: sarifRegion{
						StartLine:   f.Line,
						StartColumn: f.Column,
						Snippet:     sarifMessage{Text: f.Match},
					},
				},
			}},
		}
		if len(f.Tags) > 0 {
			res.Properties = map[string]any{"tags": f.Tags}
		}
		run.Results = append(run.Results, res)
	}
	if len(stats) > 0 {
		run.Properties = map[string]any{"scanStats": stats}
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
