package sarif

import "sort"

// Summary holds the counts derived from one parse.
type Summary struct {
	TotalRuns      int              `json:"totalRuns"`
	TotalFindings  int              `json:"totalFindings"`
	SeverityCounts map[Severity]int `json:"severityCounts"`
	RuleCounts     map[string]int   `json:"ruleCounts"`
	FileCounts     map[string]int   `json:"fileCounts"`
	ToolNames      []string         `json:"toolNames"`
	Tools          []Tool           `json:"tools"`
	Fixable        int              `json:"fixable"`
	Suppressed     int              `json:"suppressed"`
}

// Aggregator folds findings into a Summary in a single pass.
type Aggregator struct {
	summary   Summary
	seenTools map[string]struct{}
}

// NewAggregator returns an aggregator with every severity bucket present.
func NewAggregator() *Aggregator {
	counts := make(map[Severity]int, len(Severities))
	for _, s := range Severities {
		counts[s] = 0
	}
	return &Aggregator{
		summary: Summary{
			SeverityCounts: counts,
			RuleCounts:     make(map[string]int),
			FileCounts:     make(map[string]int),
			ToolNames:      []string{},
			Tools:          []Tool{},
		},
		seenTools: make(map[string]struct{}),
	}
}

// AddRun records the tool of one run.
func (a *Aggregator) AddRun(run Run) {
	a.summary.TotalRuns++
	a.summary.Tools = append(a.summary.Tools, run.Tool)
	name := run.Tool.Name
	if name == "" {
		return
	}
	if _, ok := a.seenTools[name]; ok {
		return
	}
	a.seenTools[name] = struct{}{}
	a.summary.ToolNames = append(a.summary.ToolNames, name)
}

// Add counts one finding. Every location increments its file bucket, so a
// finding spanning several files is counted once per file.
func (a *Aggregator) Add(f *Finding) {
	a.summary.TotalFindings++
	a.summary.SeverityCounts[f.Severity]++
	a.summary.RuleCounts[f.RuleID]++
	for _, loc := range f.Locations {
		if loc.URI == "" {
			continue
		}
		a.summary.FileCounts[loc.URI]++
	}
	if f.IsFixable() {
		a.summary.Fixable++
	}
	if f.IsSuppressed() {
		a.summary.Suppressed++
	}
}

// Summary returns the accumulated counts.
func (a *Aggregator) Summary() Summary {
	return a.summary
}

// Summarize aggregates an already materialised set of findings.
func Summarize(runs []Run, findings []*Finding) Summary {
	agg := NewAggregator()
	for _, run := range runs {
		agg.AddRun(run)
	}
	for _, f := range findings {
		agg.Add(f)
	}
	return agg.Summary()
}

// RuleStat is one row of the rules list.
type RuleStat struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
	HelpURI string `json:"helpUri,omitempty"`
}

// FileStat is one row of the files list.
type FileStat struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// RuleStats lists every rule with its finding count, most frequent first.
func RuleStats(rules []*Rule, counts map[string]int) []RuleStat {
	stats := make([]RuleStat, 0, len(rules))
	for _, rule := range rules {
		stats = append(stats, RuleStat{
			ID:      rule.ID,
			Name:    rule.DisplayName(),
			Count:   counts[rule.ID],
			HelpURI: rule.HelpURI,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].ID < stats[j].ID
	})
	return stats
}

// FileStats lists every file with its location count, most frequent first.
func FileStats(counts map[string]int) []FileStat {
	stats := make([]FileStat, 0, len(counts))
	for path, count := range counts {
		stats = append(stats, FileStat{Path: path, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Path < stats[j].Path
	})
	return stats
}
