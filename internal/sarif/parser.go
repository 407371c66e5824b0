package sarif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"
)

// DefaultProgressInterval is the number of results between two progress
// checkpoints.
const DefaultProgressInterval = 1000

// ProgressFunc receives a percentage in [0, 100] and a short stage label.
type ProgressFunc func(percent int, stage string)

// Options tunes a Parser.
type Options struct {
	TargetVersion    string
	ProgressInterval int
}

// Parser runs validation, normalization, rule registration and aggregation.
// It keeps no state between calls.
type Parser struct {
	logger hclog.Logger
	opts   Options
}

// Result is the outcome of one successful parse.
type Result struct {
	Report   Report     `json:"report"`
	Summary  Summary    `json:"summary"`
	Findings []*Finding `json:"findings"`

	byID map[string]*Finding
}

// NewParser returns a parser. A nil logger discards output.
func NewParser(logger hclog.Logger, opts Options) *Parser {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.TargetVersion == "" {
		opts.TargetVersion = DefaultTargetVersion
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	return &Parser{logger: logger, opts: opts}
}

// Parse turns raw SARIF content into findings and a summary. progress may be
// nil. The returned error is a *ParseError, or ctx.Err() when cancelled.
func (p *Parser) Parse(ctx context.Context, content []byte, progress ProgressFunc) (*Result, error) {
	report := progressReporter(progress)

	report(10, "Parsing JSON...")
	doc, err := Validate(content)
	if err != nil {
		return nil, err
	}
	report(20, "Validating SARIF structure...")
	if w := CheckVersion(doc.Version, p.opts.TargetVersion); w != nil {
		p.logger.Warn(w.String(), "version", w.Found, "expected", w.Expected)
	}
	for _, w := range doc.Warnings {
		p.logger.Warn("degraded malformed field", "detail", w)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report(25, "Calculating statistics...")
	registry := NewRuleRegistry()
	agg := NewAggregator()
	runs := make([]Run, 0, len(doc.Runs))
	catalogs := make([][]string, 0, len(doc.Runs))

	report(30, "Analyzing tools...")
	for _, raw := range doc.Runs {
		run, ruleIDs := p.registerRun(raw, registry)
		agg.AddRun(run)
		runs = append(runs, run)
		catalogs = append(catalogs, ruleIDs)
	}

	total := doc.ResultCount()
	findings := make([]*Finding, 0, total)

	report(50, "Analyzing results...")
	processed := 0
	for runPos, raw := range doc.Runs {
		for resultIndex, rawResult := range raw.Results {
			if processed%p.opts.ProgressInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				report(50+processed*40/total, fmt.Sprintf("Processing result %d of %d...", processed+1, total))
			}
			f := p.normalize(raw, catalogs[runPos], resultIndex, rawResult, registry)
			agg.Add(f)
			findings = append(findings, f)
			processed++
		}
	}

	report(90, "Finalizing...")
	result := &Result{
		Report: Report{
			Version: doc.Version,
			Runs:    runs,
			Rules:   registry.Rules(),
		},
		Summary:  agg.Summary(),
		Findings: findings,
	}
	result.index()
	p.logger.Debug("parsed SARIF report",
		"runs", len(runs),
		"findings", len(findings),
		"rules", registry.Len(),
	)
	report(100, "Complete")
	return result, nil
}

// registerRun decodes the driver catalog of one run into the registry. The
// returned slice holds the trimmed id at every catalog position, empty where
// the entry has none, for ruleIndex lookups.
func (p *Parser) registerRun(raw RawRun, registry *RuleRegistry) (Run, []string) {
	tool := Tool{
		Name:     raw.ToolName,
		Version:  driverVersion(raw.Driver),
		RunIndex: raw.Index,
	}

	var rules []json.RawMessage
	if rawRules, ok := raw.Driver["rules"]; ok && kindOf(rawRules) == '[' {
		if err := json.Unmarshal(rawRules, &rules); err != nil {
			p.logger.Warn("driver rules could not be decoded", "run", raw.Index, "error", err)
		}
	}
	ruleIDs := make([]string, len(rules))
	for i, rawRule := range rules {
		var descriptor sarif.ReportingDescriptor
		if err := decodeTolerant(rawRule, &descriptor); err != nil {
			p.logger.Warn("skipping undecodable rule", "run", raw.Index, "rule_index", i, "error", err)
			continue
		}
		ruleIDs[i] = strings.TrimSpace(descriptor.ID)
		if ruleIDs[i] == "" {
			p.logger.Debug("skipping rule without id", "run", raw.Index, "rule_index", i)
			continue
		}
		if !registry.Register(ruleFromDescriptor(&descriptor, raw.ToolName, raw.Index)) {
			p.logger.Debug("duplicate rule id in run, keeping first", "run", raw.Index, "rule_id", descriptor.ID)
			continue
		}
		tool.RuleCount++
	}

	return Run{Index: raw.Index, Tool: tool, ResultCount: len(raw.Results)}, ruleIDs
}

// normalize converts one raw result. Malformed optional fields degrade to
// their defaults so that every array position yields exactly one finding.
func (p *Parser) normalize(run RawRun, ruleIDs []string, resultIndex int, raw json.RawMessage, registry *RuleRegistry) *Finding {
	var res sarif.Result
	if err := decodeTolerant(raw, &res); err != nil {
		p.logger.Warn("result could not be decoded, using defaults", "run", run.Index, "result_index", resultIndex, "error", err)
		res = sarif.Result{}
	}

	ruleID := resolveRuleID(&res, ruleIDs)
	level := ""
	if res.Level != nil {
		level = *res.Level
	}

	f := &Finding{
		ID:               fmt.Sprintf("%d-%d", run.Index, resultIndex),
		RuleID:           ruleID,
		Severity:         ParseSeverity(level),
		Locations:        projectLocations(res.Locations),
		RelatedLocations: projectLocations(res.RelatedLocations),
		Fixes:            nonNilFixes(res.Fixes),
		Suppressions:     nonNilSuppressions(res.Suppressions),
		RunIndex:         run.Index,
		ResultIndex:      resultIndex,
	}
	if res.Message.Text != nil {
		f.Message = *res.Message.Text
	}
	if res.Message.Markdown != nil {
		f.Markdown = *res.Message.Markdown
		if f.Message == "" {
			f.Message = f.Markdown
		}
	}
	f.Rule = registry.Ensure(run.Index, run.ToolName, ruleID)
	return f
}

// resolveRuleID reads ruleId, then rule.id, then rule.index/ruleIndex into the
// driver catalog, falling back to UnknownRuleID. ruleIDs is the catalog as
// returned by registerRun.
func resolveRuleID(res *sarif.Result, ruleIDs []string) string {
	if res.RuleID != nil && strings.TrimSpace(*res.RuleID) != "" {
		return strings.TrimSpace(*res.RuleID)
	}
	if res.Rule != nil && res.Rule.Id != nil && strings.TrimSpace(*res.Rule.Id) != "" {
		return strings.TrimSpace(*res.Rule.Id)
	}
	index := res.RuleIndex
	if index == nil && res.Rule != nil {
		index = res.Rule.Index
	}
	if index != nil && *index < uint(len(ruleIDs)) && ruleIDs[*index] != "" {
		return ruleIDs[*index]
	}
	return UnknownRuleID
}

func driverVersion(driver map[string]json.RawMessage) string {
	for _, key := range []string{"version", "semanticVersion"} {
		var v string
		if raw, ok := driver[key]; ok && kindOf(raw) == '"' && json.Unmarshal(raw, &v) == nil && v != "" {
			return v
		}
	}
	return "unknown"
}

// decodeTolerant unmarshals raw into v and ignores type mismatches on
// individual fields, which encoding/json skips while decoding the rest.
func decodeTolerant(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	err := json.Unmarshal(raw, v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

func projectLocations(locations []*sarif.Location) []Location {
	projected := make([]Location, 0, len(locations))
	for _, loc := range locations {
		if loc == nil {
			continue
		}
		projected = append(projected, projectLocation(loc))
	}
	return projected
}

func projectLocation(loc *sarif.Location) Location {
	var out Location
	if loc.Message != nil && loc.Message.Text != nil {
		out.Message = *loc.Message.Text
	}
	phys := loc.PhysicalLocation
	if phys == nil {
		return out
	}
	if phys.ArtifactLocation != nil && phys.ArtifactLocation.URI != nil {
		out.URI = *phys.ArtifactLocation.URI
	}
	if r := phys.Region; r != nil {
		region := &Region{
			StartLine:   derefInt(r.StartLine),
			StartColumn: derefInt(r.StartColumn),
			EndLine:     derefInt(r.EndLine),
			EndColumn:   derefInt(r.EndColumn),
		}
		if r.Snippet != nil && r.Snippet.Text != nil {
			region.Snippet = *r.Snippet.Text
		}
		out.Region = region
	}
	return out
}

func nonNilFixes(fixes []*sarif.Fix) []*sarif.Fix {
	out := make([]*sarif.Fix, 0, len(fixes))
	for _, fix := range fixes {
		if fix != nil {
			out = append(out, fix)
		}
	}
	return out
}

func nonNilSuppressions(suppressions []*sarif.Suppression) []*sarif.Suppression {
	out := make([]*sarif.Suppression, 0, len(suppressions))
	for _, s := range suppressions {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func progressReporter(fn ProgressFunc) ProgressFunc {
	last := 0
	return func(percent int, stage string) {
		if fn == nil {
			return
		}
		if percent < last {
			percent = last
		}
		if percent > 100 {
			percent = 100
		}
		last = percent
		fn(percent, stage)
	}
}

// FindingByID returns the finding with the given identity key.
func (r *Result) FindingByID(id string) (*Finding, bool) {
	if r.byID != nil {
		f, ok := r.byID[id]
		return f, ok
	}
	for _, f := range r.Findings {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// RulesList returns every registered rule with its finding count.
func (r *Result) RulesList() []RuleStat {
	return RuleStats(r.Report.Rules, r.Summary.RuleCounts)
}

// FilesList returns every referenced file with its location count.
func (r *Result) FilesList() []FileStat {
	return FileStats(r.Summary.FileCounts)
}

func (r *Result) index() {
	r.byID = make(map[string]*Finding, len(r.Findings))
	for _, f := range r.Findings {
		r.byID[f.ID] = f
	}
}
