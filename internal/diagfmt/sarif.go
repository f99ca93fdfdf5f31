package diagfmt

import (
	"io"
	"path/filepath"
	"sort"

	"shadec/internal/diag"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations,omitempty"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation *sarifPhysical `json:"physicalLocation,omitempty"`
	Message          *sarifMessage  `json:"message,omitempty"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn,omitempty"`
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	}
	return "note"
}

func sarifPhysicalOf(loc diag.Location) *sarifPhysical {
	if loc.File == "" {
		return nil
	}
	p := &sarifPhysical{ArtifactLocation: sarifArtifact{URI: filepath.ToSlash(loc.File)}}
	if loc.Line != 0 {
		p.Region = &sarifRegion{StartLine: loc.Line, StartColumn: loc.Column}
	}
	return p
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0).
func Sarif(w io.Writer, diags []diag.Diagnostic, meta SarifRunMeta) error {
	rules := make(map[string]sarifRule)
	results := make([]sarifResult, 0, len(diags))
	failed := false
	for _, d := range diags {
		id := d.Code.ID()
		rules[id] = sarifRule{ID: id, ShortDescription: sarifMessage{Text: d.Code.Title()}}
		if d.Severity >= diag.SevError {
			failed = true
		}
		res := sarifResult{
			RuleID:  id,
			Level:   sarifLevel(d.Severity),
			Message: sarifMessage{Text: d.Message},
		}
		if p := sarifPhysicalOf(d.Primary); p != nil {
			res.Locations = []sarifLocation{{PhysicalLocation: p}}
		}
		for _, n := range d.Notes {
			loc := n.Loc
			if !loc.IsValid() {
				loc = d.Primary
			}
			res.RelatedLocations = append(res.RelatedLocations, sarifLocation{
				PhysicalLocation: sarifPhysicalOf(loc),
				Message:          &sarifMessage{Text: n.Msg},
			})
		}
		results = append(results, res)
	}

	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	driverRules := make([]sarifRule, 0, len(ids))
	for _, id := range ids {
		driverRules = append(driverRules, rules[id])
	}

	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: meta.ToolName, Version: meta.ToolVersion, Rules: driverRules}},
		Results: results,
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: !failed}}
	}
	return encodeJSON(w, sarifLog{Schema: sarifSchema, Version: "2.1.0", Runs: []sarifRun{run}})
}
