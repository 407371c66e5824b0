package sarif

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultTargetVersion is the major.minor SARIF version the engine targets.
const DefaultTargetVersion = "2.1"

// Document is the validated shape of a SARIF log. Runs keep their raw
// payloads so that the normalizer can decode them element by element.
type Document struct {
	Version string
	Runs    []RawRun
	// Warnings lists optional fields that were malformed and degraded to
	// their defaults.
	Warnings []string
}

// RawRun is one validated run.
type RawRun struct {
	Index    int
	ToolName string
	Driver   map[string]json.RawMessage
	Results  []json.RawMessage
}

// ResultCount returns the total number of raw results across all runs.
func (d *Document) ResultCount() int {
	total := 0
	for _, run := range d.Runs {
		total += len(run.Results)
	}
	return total
}

// Validate decodes content and checks the minimal shape required before any
// aggregation: a string version, an array of runs and, for every run, an
// object tool.driver with a string name.
func Validate(content []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(content, &top); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, NewMalformedInput(err)
		}
		return nil, newInvalidSchema("top-level value is not an object")
	}
	if top == nil {
		return nil, newInvalidSchema("top-level value is not an object")
	}

	doc := &Document{}

	rawVersion, ok := top["version"]
	if !ok || kindOf(rawVersion) != '"' {
		return nil, newInvalidSchema("'version' is missing or not a string")
	}
	if err := json.Unmarshal(rawVersion, &doc.Version); err != nil {
		return nil, newInvalidSchema("'version' is not a string")
	}

	rawRuns, ok := top["runs"]
	if !ok || kindOf(rawRuns) != '[' {
		return nil, newInvalidSchema("'runs' is missing or not an array")
	}
	var runs []json.RawMessage
	if err := json.Unmarshal(rawRuns, &runs); err != nil {
		return nil, newInvalidSchema("'runs' is not an array")
	}

	doc.Runs = make([]RawRun, 0, len(runs))
	for i, raw := range runs {
		run, err := validateRun(i, raw, doc)
		if err != nil {
			return nil, err
		}
		doc.Runs = append(doc.Runs, run)
	}
	return doc, nil
}

func validateRun(index int, raw json.RawMessage, doc *Document) (RawRun, error) {
	run := RawRun{Index: index}

	fields, ok := decodeObject(raw)
	if !ok {
		return run, newInvalidSchema("runs[%d] is not an object", index)
	}
	tool, ok := decodeObject(fields["tool"])
	if !ok {
		return run, newInvalidSchema("runs[%d].tool is missing or not an object", index)
	}
	driver, ok := decodeObject(tool["driver"])
	if !ok {
		return run, newInvalidSchema("runs[%d].tool.driver is missing or not an object", index)
	}
	rawName, ok := driver["name"]
	if !ok || kindOf(rawName) != '"' {
		return run, newInvalidSchema("runs[%d].tool.driver.name is missing or not a string", index)
	}
	if err := json.Unmarshal(rawName, &run.ToolName); err != nil {
		return run, newInvalidSchema("runs[%d].tool.driver.name is not a string", index)
	}
	run.Driver = driver

	rawResults, ok := fields["results"]
	switch {
	case !ok || kindOf(rawResults) == 'n':
	case kindOf(rawResults) == '[':
		if err := json.Unmarshal(rawResults, &run.Results); err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("runs[%d].results could not be decoded, treated as empty", index))
			run.Results = nil
		}
	default:
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("runs[%d].results is not an array, treated as empty", index))
	}
	return run, nil
}

// CheckVersion compares the major.minor prefix of version with target.
func CheckVersion(version, target string) *VersionWarning {
	if target == "" {
		target = DefaultTargetVersion
	}
	if majorMinor(version) == majorMinor(target) {
		return nil
	}
	return &VersionWarning{Found: version, Expected: target}
}

func majorMinor(version string) string {
	parts := strings.SplitN(strings.TrimSpace(version), ".", 3)
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return parts[0]
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if kindOf(raw) != '{' {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// kindOf returns the first significant byte of a JSON value: '{', '[', '"',
// 'n' for null, 't'/'f' for booleans, or a digit/'-' for numbers. It returns
// 0 for an empty value.
func kindOf(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
