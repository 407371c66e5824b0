package sarif

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoReport = `{
  "version": "2.1.0",
  "runs": [
    {
      "tool": {"driver": {"name": "Demo"}},
      "results": [
        {"level": "error", "ruleId": "R1", "message": {"text": "first"}},
        {"message": {"text": "second"}}
      ]
    }
  ]
}`

const multiRunReport = `{
  "version": "2.1.0",
  "runs": [
    {
      "tool": {
        "driver": {
          "name": "Semgrep",
          "semanticVersion": "1.50.0",
          "rules": [
            {
              "id": "go.sql-injection",
              "name": "SQLInjection",
              "shortDescription": {"text": "SQL injection"},
              "fullDescription": {"text": "User input flows into a SQL query"},
              "help": {"text": "Use parameters", "markdown": "Use **parameters**"},
              "helpUri": "https://cwe.mitre.org/data/definitions/89.html",
              "properties": {"tags": ["CWE-89"]}
            },
            {"id": "go.weak-hash", "shortDescription": {"text": "Weak hash"}}
          ]
        }
      },
      "results": [
        {
          "ruleId": "go.sql-injection",
          "level": "error",
          "message": {"text": "Tainted query"},
          "locations": [
            {"physicalLocation": {"artifactLocation": {"uri": "app/db.go"}, "region": {"startLine": 10, "startColumn": 2, "endLine": 12, "endColumn": 8, "snippet": {"text": "db.Query(q)"}}}},
            {"physicalLocation": {"artifactLocation": {"uri": "app/handler.go"}, "region": {"startLine": 3}}}
          ],
          "relatedLocations": [
            {"physicalLocation": {"artifactLocation": {"uri": "app/input.go"}}, "message": {"text": "source"}}
          ],
          "fixes": [{"description": {"text": "use placeholders"}, "artifactChanges": []}]
        },
        {
          "ruleIndex": 1,
          "level": "note",
          "message": {"markdown": "md5 is **weak**"},
          "locations": [{"physicalLocation": {"artifactLocation": {"uri": "app/db.go"}}}],
          "suppressions": [{"kind": "inSource", "justification": "legacy"}]
        }
      ]
    },
    {
      "tool": {"driver": {"name": "Gosec", "version": "2.18.0", "rules": [{"id": "go.sql-injection", "shortDescription": {"text": "Other meaning"}}]}},
      "results": [
        {"ruleId": "go.sql-injection", "level": "warning", "message": {"text": "again"}},
        {"ruleId": "G401", "level": "none", "message": {"text": "undeclared"}},
        {"ruleId": "G402", "level": 5, "message": {"text": "bad level"}},
        null
      ]
    },
    {
      "tool": {"driver": {"name": "Semgrep"}},
      "results": []
    }
  ]
}`

func parse(t *testing.T, content string) *Result {
	t.Helper()
	p := NewParser(nil, Options{})
	res, err := p.Parse(context.Background(), []byte(content), nil)
	require.NoError(t, err)
	return res
}

func sumSeverities(s Summary) int {
	total := 0
	for _, c := range s.SeverityCounts {
		total += c
	}
	return total
}

func sumRules(s Summary) int {
	total := 0
	for _, c := range s.RuleCounts {
		total += c
	}
	return total
}

func TestParseDemoReport(t *testing.T) {
	res := parse(t, demoReport)

	require.Len(t, res.Findings, 2)
	assert.Equal(t, "0-0", res.Findings[0].ID)
	assert.Equal(t, "0-1", res.Findings[1].ID)

	s := res.Summary
	assert.Equal(t, 2, s.TotalFindings)
	assert.Equal(t, 1, s.SeverityCounts[SeverityError])
	assert.Equal(t, 1, s.SeverityCounts[SeverityWarning])
	assert.Equal(t, 0, s.SeverityCounts[SeverityNote])
	assert.Equal(t, 0, s.SeverityCounts[SeverityInfo])
	assert.Len(t, s.SeverityCounts, 4)
	assert.Equal(t, 1, s.RuleCounts["R1"])
	assert.Equal(t, 1, s.RuleCounts[UnknownRuleID])
	assert.Equal(t, []string{"Demo"}, s.ToolNames)

	second := res.Findings[1]
	assert.Equal(t, UnknownRuleID, second.RuleID)
	assert.Equal(t, SeverityWarning, second.Severity)
	assert.NotNil(t, second.Locations)
	assert.NotNil(t, second.RelatedLocations)
	assert.NotNil(t, second.Fixes)
	assert.NotNil(t, second.Suppressions)

	// every referenced rule id has a registry entry
	for _, f := range res.Findings {
		require.NotNil(t, f.Rule, f.ID)
		assert.Equal(t, f.RuleID, f.Rule.ID)
		assert.True(t, f.Rule.Placeholder)
	}
}

func TestParseZeroRuns(t *testing.T) {
	res := parse(t, `{"version":"2.1.0","runs":[]}`)
	assert.Empty(t, res.Findings)
	assert.NotNil(t, res.Findings)
	assert.Equal(t, 0, res.Summary.TotalFindings)
	assert.Equal(t, 0, res.Summary.TotalRuns)
	assert.Len(t, res.Summary.SeverityCounts, 4)
}

func TestParseErrors(t *testing.T) {
	p := NewParser(nil, Options{})

	_, err := p.Parse(context.Background(), []byte(`{not json`), nil)
	assert.Equal(t, KindMalformedInput, KindOf(err))

	_, err = p.Parse(context.Background(), []byte(`{"version":"2.1.0"}`), nil)
	assert.Equal(t, KindInvalidSchema, KindOf(err))
}

func TestParseMultiRunReport(t *testing.T) {
	res := parse(t, multiRunReport)

	require.Len(t, res.Findings, 6)
	ids := make([]string, 0, len(res.Findings))
	for _, f := range res.Findings {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"0-0", "0-1", "1-0", "1-1", "1-2", "1-3"}, ids)

	s := res.Summary
	assert.Equal(t, len(res.Findings), s.TotalFindings)
	assert.Equal(t, s.TotalFindings, sumSeverities(s))
	assert.Equal(t, s.TotalFindings, sumRules(s))
	assert.Equal(t, 3, s.TotalRuns)
	assert.Equal(t, []string{"Semgrep", "Gosec"}, s.ToolNames)
	require.Len(t, s.Tools, 3)
	assert.Equal(t, "1.50.0", s.Tools[0].Version)
	assert.Equal(t, "2.18.0", s.Tools[1].Version)
	assert.Equal(t, "unknown", s.Tools[2].Version)
	assert.Equal(t, 1, s.Fixable)
	assert.Equal(t, 1, s.Suppressed)

	assert.Equal(t, 2, s.FileCounts["app/db.go"])
	assert.Equal(t, 1, s.FileCounts["app/handler.go"])
	_, related := s.FileCounts["app/input.go"]
	assert.False(t, related, "related locations are not counted")

	assert.Equal(t, 1, s.SeverityCounts[SeverityError])
	assert.Equal(t, 3, s.SeverityCounts[SeverityWarning], "explicit warning, bad level and null result")
	assert.Equal(t, 1, s.SeverityCounts[SeverityNote])
	assert.Equal(t, 1, s.SeverityCounts[SeverityInfo])
}

func TestParseNormalizesFields(t *testing.T) {
	res := parse(t, multiRunReport)

	first := res.Findings[0]
	assert.Equal(t, "go.sql-injection", first.RuleID)
	assert.Equal(t, "Tainted query", first.Message)
	require.Len(t, first.Locations, 2)
	assert.Equal(t, "app/db.go", first.Locations[0].URI)
	require.NotNil(t, first.Locations[0].Region)
	assert.Equal(t, Region{StartLine: 10, StartColumn: 2, EndLine: 12, EndColumn: 8, Snippet: "db.Query(q)"}, *first.Locations[0].Region)
	require.Len(t, first.RelatedLocations, 1)
	assert.Equal(t, "source", first.RelatedLocations[0].Message)
	assert.True(t, first.IsFixable())
	assert.False(t, first.IsSuppressed())
	assert.Equal(t, []string{"app/db.go", "app/handler.go"}, first.Files())

	require.NotNil(t, first.Rule)
	assert.Equal(t, "SQL injection", first.Rule.ShortDescription)
	assert.Equal(t, "Use **parameters**", first.Rule.HelpMarkdown)
	assert.Equal(t, "Semgrep", first.Rule.ToolName)

	byIndex := res.Findings[1]
	assert.Equal(t, "go.weak-hash", byIndex.RuleID, "ruleIndex resolves into the driver catalog")
	assert.Equal(t, "md5 is **weak**", byIndex.Message)
	assert.True(t, byIndex.IsSuppressed())

	// a later run keeps its own definition for a shared id
	gosec := res.Findings[2]
	require.NotNil(t, gosec.Rule)
	assert.Equal(t, "Other meaning", gosec.Rule.ShortDescription)
	assert.Equal(t, 1, gosec.Rule.RunIndex)

	// but the merged directory is first-wins
	merged, ok := func() (*Rule, bool) {
		for _, r := range res.Report.Rules {
			if r.ID == "go.sql-injection" {
				return r, true
			}
		}
		return nil, false
	}()
	require.True(t, ok)
	assert.Equal(t, "SQL injection", merged.ShortDescription)

	undeclared := res.Findings[3]
	assert.Equal(t, SeverityInfo, undeclared.Severity)
	require.NotNil(t, undeclared.Rule)
	assert.True(t, undeclared.Rule.Placeholder)
	assert.Equal(t, "Gosec", undeclared.Rule.ToolName)

	badLevel := res.Findings[4]
	assert.Equal(t, "G402", badLevel.RuleID)
	assert.Equal(t, SeverityWarning, badLevel.Severity)
	assert.Equal(t, "bad level", badLevel.Message)

	nullResult := res.Findings[5]
	assert.Equal(t, UnknownRuleID, nullResult.RuleID)
	assert.Empty(t, nullResult.Message)
}

func TestParseRuleClosure(t *testing.T) {
	res := parse(t, multiRunReport)

	ids := map[string]bool{}
	for _, r := range res.Report.Rules {
		ids[r.ID] = true
	}
	for id := range res.Summary.RuleCounts {
		assert.True(t, ids[id], "rule %q has no registry entry", id)
	}
	assert.Equal(t, []string{"go.sql-injection", "go.weak-hash", "G401", "G402", UnknownRuleID}, func() []string {
		out := []string{}
		for _, r := range res.Report.Rules {
			out = append(out, r.ID)
		}
		return out
	}())
}

func TestParseIsDeterministic(t *testing.T) {
	first := parse(t, multiRunReport)
	second := parse(t, multiRunReport)

	require.Equal(t, len(first.Findings), len(second.Findings))
	for i := range first.Findings {
		assert.Equal(t, first.Findings[i].ID, second.Findings[i].ID)
		assert.Equal(t, first.Findings[i].RuleID, second.Findings[i].RuleID)
	}
	assert.Equal(t, first.Summary, second.Summary)
}

func TestParseProgressIsMonotonic(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"version":"2.1.0","runs":[{"tool":{"driver":{"name":"Bulk"}},"results":[`)
	for i := 0; i < 2500; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"ruleId":"R%d","level":"note","message":{"text":"m"}}`, i%7)
	}
	b.WriteString(`]}]}`)

	var values []int
	var stages []string
	p := NewParser(nil, Options{ProgressInterval: 500})
	res, err := p.Parse(context.Background(), []byte(b.String()), func(percent int, stage string) {
		values = append(values, percent)
		stages = append(stages, stage)
	})
	require.NoError(t, err)
	assert.Len(t, res.Findings, 2500)

	require.NotEmpty(t, values)
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1])
	}
	assert.Equal(t, 100, values[len(values)-1])
	assert.Equal(t, "Complete", stages[len(stages)-1])
	assert.Contains(t, stages, "Processing result 2001 of 2500...")
}

func TestParseHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(nil, Options{}).Parse(ctx, []byte(demoReport), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultLookups(t *testing.T) {
	res := parse(t, multiRunReport)

	f, ok := res.FindingByID("1-1")
	require.True(t, ok)
	assert.Equal(t, "G401", f.RuleID)
	_, ok = res.FindingByID("9-9")
	assert.False(t, ok)

	rules := res.RulesList()
	require.NotEmpty(t, rules)
	assert.Equal(t, "go.sql-injection", rules[0].ID)
	assert.Equal(t, 2, rules[0].Count)
	assert.Equal(t, "SQL injection", rules[0].Name)
	assert.Equal(t, "https://cwe.mitre.org/data/definitions/89.html", rules[0].HelpURI)

	files := res.FilesList()
	require.Len(t, files, 2)
	assert.Equal(t, FileStat{Path: "app/db.go", Count: 2}, files[0])
	assert.Equal(t, FileStat{Path: "app/handler.go", Count: 1}, files[1])
}

func TestParseLargeRuleCatalogByIndex(t *testing.T) {
	const ruleCount, resultCount = 1000, 20000

	rules := make([]string, 0, ruleCount)
	for i := 0; i < ruleCount; i++ {
		rules = append(rules, fmt.Sprintf(`{"id": "rule-%d"}`, i))
	}
	results := make([]string, 0, resultCount+2)
	for i := 0; i < resultCount; i++ {
		results = append(results, fmt.Sprintf(`{"ruleIndex": %d, "message": {"text": "m"}}`, i%ruleCount))
	}
	results = append(results,
		fmt.Sprintf(`{"rule": {"index": %d}, "message": {"text": "by reference"}}`, ruleCount-1),
		fmt.Sprintf(`{"ruleIndex": %d, "message": {"text": "out of range"}}`, ruleCount),
	)
	content := fmt.Sprintf(`{"version": "2.1.0", "runs": [{"tool": {"driver": {"name": "Bulk", "rules": [%s]}}, "results": [%s]}]}`,
		strings.Join(rules, ","), strings.Join(results, ","))

	res := parse(t, content)
	require.Len(t, res.Findings, resultCount+2)
	for i := 0; i < resultCount; i++ {
		require.Equal(t, fmt.Sprintf("rule-%d", i%ruleCount), res.Findings[i].RuleID)
	}
	assert.Equal(t, fmt.Sprintf("rule-%d", ruleCount-1), res.Findings[resultCount].RuleID)
	assert.Equal(t, UnknownRuleID, res.Findings[resultCount+1].RuleID)
	assert.Equal(t, resultCount/ruleCount, res.Summary.RuleCounts["rule-0"])
}

func TestResolveRuleID(t *testing.T) {
	catalog := []string{"first", "", "third"}
	idx := func(i uint) *uint { return &i }

	tests := []struct {
		name string
		res  sarif.Result
		want string
	}{
		{name: "rule id wins", res: sarif.Result{RuleID: strPtr(" explicit "), RuleIndex: idx(0)}, want: "explicit"},
		{name: "reference id", res: sarif.Result{Rule: &sarif.ReportingDescriptorReference{Id: strPtr("ref")}}, want: "ref"},
		{name: "rule index", res: sarif.Result{RuleIndex: idx(2)}, want: "third"},
		{name: "reference index", res: sarif.Result{Rule: &sarif.ReportingDescriptorReference{Index: idx(0)}}, want: "first"},
		{name: "catalog entry without id", res: sarif.Result{RuleIndex: idx(1)}, want: UnknownRuleID},
		{name: "index past catalog", res: sarif.Result{RuleIndex: idx(3)}, want: UnknownRuleID},
		{name: "nothing", res: sarif.Result{}, want: UnknownRuleID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveRuleID(&tt.res, catalog))
		})
	}
	assert.Equal(t, UnknownRuleID, resolveRuleID(&sarif.Result{RuleIndex: idx(0)}, nil))
}
