// Package sarif renders candidate offsets as SARIF 2.1.0 output.
// The scan stage records where a signature may begin, not which
// signature matched, so every result shares one rule at note level.
package sarif

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/magus/pkg/types"
)

const (
	SchemaURI   = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version     = "2.1.0"
	ToolName    = "magus"
	ToolVersion = "0.1.0"

	// CandidateRuleID tags every reported offset.
	CandidateRuleID = "magus/candidate"
)

// The types below mirror the slice of the SARIF 2.1.0 schema this tool
// emits; field names follow the schema's property names.
type (
	Report struct {
		Schema  string `json:"$schema"`
		Version string `json:"version"`
		Runs    []Run  `json:"runs"`
	}

	Run struct {
		Tool    Tool     `json:"tool"`
		Results []Result `json:"results"`
	}

	Tool struct {
		Driver Driver `json:"driver"`
	}

	Driver struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Rules   []Rule `json:"rules,omitempty"`
	}

	Rule struct {
		ID               string    `json:"id"`
		Name             string    `json:"name"`
		ShortDescription TextBlock `json:"shortDescription"`
	}

	// TextBlock is SARIF's multiformatMessageString, reduced to the
	// plain-text form. It serves both rule descriptions and messages.
	TextBlock struct {
		Text string `json:"text"`
	}

	Result struct {
		RuleID    string     `json:"ruleId"`
		Level     string     `json:"level"`
		Message   TextBlock  `json:"message"`
		Locations []Location `json:"locations"`
	}

	Location struct {
		PhysicalLocation PhysicalLocation `json:"physicalLocation"`
	}

	PhysicalLocation struct {
		ArtifactLocation ArtifactLocation `json:"artifactLocation"`
		Region           Region           `json:"region"`
	}

	ArtifactLocation struct {
		URI string `json:"uri"`
	}

	// Region locates a result by byte extent; binary targets have no
	// meaningful line/column coordinates.
	Region struct {
		ByteOffset int64 `json:"byteOffset"`
		ByteLength int   `json:"byteLength,omitempty"`
	}
)

// NewReport creates an empty report with the candidate rule installed.
func NewReport() *Report {
	candidateRule := Rule{
		ID:               CandidateRuleID,
		Name:             "SignatureCandidate",
		ShortDescription: TextBlock{Text: "Offset where a known signature may begin"},
	}

	run := Run{
		Tool: Tool{Driver: Driver{
			Name:    ToolName,
			Version: ToolVersion,
			Rules:   []Rule{candidateRule},
		}},
		Results: []Result{},
	}

	return &Report{Schema: SchemaURI, Version: Version, Runs: []Run{run}}
}

// AddTarget appends one result per candidate offset recorded for a target.
func (r *Report) AddTarget(tgt types.Target, offsets []int64) {
	for _, off := range offsets {
		r.AddResult(tgt, off)
	}
}

// AddResult adds a single candidate offset to the report.
func (r *Report) AddResult(tgt types.Target, offset int64) {
	loc := Location{PhysicalLocation: PhysicalLocation{
		ArtifactLocation: ArtifactLocation{URI: artifactURI(tgt.Path)},
		Region:           Region{ByteOffset: offset},
	}}

	r.Runs[0].Results = append(r.Runs[0].Results, Result{
		RuleID:    CandidateRuleID,
		Level:     "note",
		Message:   TextBlock{Text: fmt.Sprintf("possible signature at offset %#x", offset)},
		Locations: []Location{loc},
	})
}

// ToJSON serializes the report with indentation.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// artifactURI maps a target path to the artifactLocation uri property.
// Absolute paths become file:// URIs; relative paths (including
// container::member paths) pass through with slashes normalized.
func artifactURI(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}

	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path
}
