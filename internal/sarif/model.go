package sarif

import (
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

// Severity is the closed set of levels a finding can carry.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
	SeverityInfo    Severity = "info"
)

// UnknownRuleID is assigned to results that do not reference any rule.
const UnknownRuleID = "unknown"

// Severities lists every severity from the most to the least important.
var Severities = []Severity{SeverityError, SeverityWarning, SeverityNote, SeverityInfo}

// ParseSeverity maps a raw SARIF level onto the closed severity set.
// An empty or unrecognised level becomes SeverityWarning; the SARIF "none"
// level is reported as SeverityInfo.
func ParseSeverity(level string) Severity {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	case "note":
		return SeverityNote
	case "info", "none":
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// Valid reports whether s belongs to the closed severity set.
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityNote, SeverityInfo:
		return true
	}
	return false
}

// Region is the span of a location inside its artifact. Zero values mean the
// source did not provide the coordinate.
type Region struct {
	StartLine   int    `json:"startLine,omitempty"`
	StartColumn int    `json:"startColumn,omitempty"`
	EndLine     int    `json:"endLine,omitempty"`
	EndColumn   int    `json:"endColumn,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
}

// Location is a read-only projection of a SARIF location.
type Location struct {
	URI     string  `json:"uri"`
	Region  *Region `json:"region,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Rule is a canonical rule entry after merging driver catalogs with the rule
// ids observed on results.
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name,omitempty"`
	ShortDescription string           `json:"shortDescription,omitempty"`
	FullDescription  string           `json:"fullDescription,omitempty"`
	HelpText         string           `json:"helpText,omitempty"`
	HelpMarkdown     string           `json:"helpMarkdown,omitempty"`
	HelpURI          string           `json:"helpUri,omitempty"`
	Properties       sarif.Properties `json:"properties,omitempty"`
	ToolName         string           `json:"toolName"`
	RunIndex         int              `json:"runIndex"`
	// Placeholder is set for rules only referenced by results.
	Placeholder bool `json:"placeholder,omitempty"`
}

// DisplayName returns the short description, falling back to the rule id.
func (r *Rule) DisplayName() string {
	if r == nil {
		return ""
	}
	if s := strings.TrimSpace(r.ShortDescription); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Name); s != "" {
		return s
	}
	return r.ID
}

// Finding is one normalized SARIF result. Findings are never modified after
// the parse that produced them.
type Finding struct {
	ID               string               `json:"id"`
	RuleID           string               `json:"ruleId"`
	Severity         Severity             `json:"severity"`
	Message          string               `json:"message"`
	Markdown         string               `json:"markdown,omitempty"`
	Locations        []Location           `json:"locations"`
	RelatedLocations []Location           `json:"relatedLocations"`
	Fixes            []*sarif.Fix         `json:"fixes"`
	Suppressions     []*sarif.Suppression `json:"suppressions"`
	RunIndex         int                  `json:"runIndex"`
	ResultIndex      int                  `json:"resultIndex"`
	Rule             *Rule                `json:"rule,omitempty"`
}

// IsFixable reports whether the tool proposed at least one fix.
func (f *Finding) IsFixable() bool {
	return len(f.Fixes) > 0
}

// IsSuppressed reports whether the finding carries at least one suppression.
func (f *Finding) IsSuppressed() bool {
	return len(f.Suppressions) > 0
}

// Files returns the non-empty URIs of the primary locations in order.
func (f *Finding) Files() []string {
	uris := make([]string, 0, len(f.Locations))
	for _, loc := range f.Locations {
		if loc.URI != "" {
			uris = append(uris, loc.URI)
		}
	}
	return uris
}

// Tool describes the driver of one run.
type Tool struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	RunIndex  int    `json:"runIndex"`
	RuleCount int    `json:"ruleCount"`
}

// Run is one tool invocation of the parsed report.
type Run struct {
	Index       int  `json:"index"`
	Tool        Tool `json:"tool"`
	ResultCount int  `json:"resultCount"`
}

// Report is the validated document shape returned alongside the findings.
type Report struct {
	Version string  `json:"version"`
	Runs    []Run   `json:"runs"`
	Rules   []*Rule `json:"rules"`
}
