package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scan-io-git/sariflens/internal/enrichment"
	"github.com/scan-io-git/sariflens/internal/sarif"
	"github.com/scan-io-git/sariflens/internal/worker"
)

var severityColors = map[sarif.Severity]*color.Color{
	sarif.SeverityError:   color.New(color.FgRed, color.Bold),
	sarif.SeverityWarning: color.New(color.FgYellow),
	sarif.SeverityNote:    color.New(color.FgCyan),
	sarif.SeverityInfo:    color.New(color.FgWhite),
}

// SeverityLabel returns the display form of a severity, e.g. "Warning".
func SeverityLabel(s sarif.Severity) string {
	return cases.Title(language.Und).String(string(s))
}

func coloredSeverity(s sarif.Severity) string {
	label := SeverityLabel(s)
	if c, ok := severityColors[s]; ok {
		return c.Sprint(label)
	}
	return label
}

// ProgressPrinter writes one line per checkpoint for the named file.
func ProgressPrinter(w io.Writer, name string) func(worker.ProgressPayload) {
	return func(p worker.ProgressPayload) {
		fmt.Fprintf(w, "%s: [%3d%%] %s\n", name, p.Progress, p.Stage)
	}
}

// RenderSummary prints the counts of one parse and the topN rules and files.
func RenderSummary(w io.Writer, name string, res *sarif.Result, topN int) {
	s := res.Summary
	fmt.Fprintf(w, "%s (SARIF %s)\n", name, res.Report.Version)
	fmt.Fprintf(w, "  Runs: %d  Findings: %d  Fixable: %d  Suppressed: %d\n",
		s.TotalRuns, s.TotalFindings, s.Fixable, s.Suppressed)

	if len(s.Tools) > 0 {
		tools := make([]string, 0, len(s.Tools))
		for _, t := range s.Tools {
			tools = append(tools, fmt.Sprintf("%s %s", t.Name, t.Version))
		}
		fmt.Fprintf(w, "  Tools: %s\n", strings.Join(tools, ", "))
	}

	fmt.Fprintln(w, "  Severity:")
	for _, sev := range sarif.Severities {
		fmt.Fprintf(w, "    %-8s %d\n", SeverityLabel(sev)+":", s.SeverityCounts[sev])
	}

	if rules := res.RulesList(); len(rules) > 0 {
		fmt.Fprintln(w, "  Top rules:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, r := range head(rules, topN) {
			fmt.Fprintf(tw, "    %s\t%d\t%s\n", r.ID, r.Count, r.Name)
		}
		tw.Flush()
	}

	if fileStats := res.FilesList(); len(fileStats) > 0 {
		fmt.Fprintln(w, "  Top files:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, f := range head(fileStats, topN) {
			fmt.Fprintf(tw, "    %s\t%d\n", f.Path, f.Count)
		}
		tw.Flush()
	}
}

// RenderFindings prints one block per finding.
func RenderFindings(w io.Writer, findings []*sarif.Finding) {
	for _, f := range findings {
		flags := ""
		if f.IsSuppressed() {
			flags += " [suppressed]"
		}
		if f.IsFixable() {
			flags += " [fixable]"
		}
		fmt.Fprintf(w, "%s  %s  %s%s\n", f.ID, coloredSeverity(f.Severity), f.RuleID, flags)
		if f.Message != "" {
			fmt.Fprintf(w, "    %s\n", f.Message)
		}
		for _, loc := range f.Locations {
			if loc.URI == "" {
				continue
			}
			fmt.Fprintf(w, "    at %s\n", formatLocation(loc))
		}
	}
	fmt.Fprintf(w, "%d finding(s)\n", len(findings))
}

// RenderRules prints the rules list, with enrichment when available.
func RenderRules(w io.Writer, rules []sarif.RuleStat, enrichments map[string]*enrichment.Enrichment) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tCOUNT\tNAME\tREFERENCES")
	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.ID, r.Count, r.Name, references(enrichments[r.ID]))
	}
	tw.Flush()
}

func references(e *enrichment.Enrichment) string {
	if e.Empty() {
		return "-"
	}
	var refs []string
	if e.CWE != nil {
		refs = append(refs, fmt.Sprintf("%s %s", e.CWE.ID, e.CWE.Name))
	}
	if e.CVE != nil {
		refs = append(refs, fmt.Sprintf("%s (%s)", e.CVE.ID, e.CVE.Severity))
	}
	return strings.Join(refs, "; ")
}

func formatLocation(loc sarif.Location) string {
	if loc.Region == nil || loc.Region.StartLine == 0 {
		return loc.URI
	}
	if loc.Region.StartColumn > 0 {
		return fmt.Sprintf("%s:%d:%d", loc.URI, loc.Region.StartLine, loc.Region.StartColumn)
	}
	return fmt.Sprintf("%s:%d", loc.URI, loc.Region.StartLine)
}

func head[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
