package report

import (
	"encoding/json"
	"io"

	"github.com/varalys/cmdguard/internal/types"
)

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
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	LogicalLocations []sarifLogical `json:"logicalLocations"`
}

type sarifLogical struct {
	Name               string `json:"name"`
	FullyQualifiedName string `json:"fullyQualifiedName,omitempty"`
	Kind               string `json:"kind"`
}

// SARIFOptions carries run metadata. Rules maps detector IDs to descriptions.
type SARIFOptions struct {
	Version     string
	CommandHash string
	Rules       []SARIFRule
}

type SARIFRule struct {
	ID          string
	Description string
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

// WriteSARIF writes findings as SARIF 2.1.0. Commands have no file location,
// so each result carries a logical location naming the command by its hash.
func WriteSARIF(w io.Writer, findings []types.Finding, opts SARIFOptions) error {
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           "cmdguard",
			Version:        version,
			InformationURI: "https://github.com/varalys/cmdguard",
		}},
		Results: []sarifResult{},
	}
	for _, r := range opts.Rules {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{ID: r.ID, ShortDescription: sarifMessage{Text: r.Description}})
	}
	loc := sarifLogical{Name: "command", Kind: "shellCommand"}
	if opts.CommandHash != "" {
		loc.FullyQualifiedName = "command/" + opts.CommandHash
		run.Properties = map[string]any{"commandSha256": opts.CommandHash}
	}
	for _, f := range findings {
		run.Results = append(run.Results, sarifResult{
			RuleID:    f.Detector,
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: f.Message},
			Locations: []sarifLoc{{LogicalLocations: []sarifLogical{loc}}},
		})
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
