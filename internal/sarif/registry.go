package sarif

import (
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

// RuleRegistry merges the rule catalogs declared by tool drivers with the
// rule ids observed on results.
//
// Every run keeps its own scope so a finding resolves to the definition its
// own tool declared. The merged directory is first-wins: a definition from a
// later run never replaces an earlier one, except that a placeholder created
// for an undeclared id is upgraded by the first real declaration.
type RuleRegistry struct {
	merged map[string]*Rule
	order  []string
	byRun  map[int]map[string]*Rule
}

// NewRuleRegistry returns an empty registry.
func NewRuleRegistry() *RuleRegistry {
	return &RuleRegistry{
		merged: make(map[string]*Rule),
		byRun:  make(map[int]map[string]*Rule),
	}
}

// Register adds a declared rule. It reports false when the id was already
// declared in the same run, in which case the earlier declaration is kept.
func (r *RuleRegistry) Register(rule *Rule) bool {
	scope := r.scope(rule.RunIndex)
	if existing, ok := scope[rule.ID]; ok && !existing.Placeholder {
		return false
	}
	scope[rule.ID] = rule

	existing, ok := r.merged[rule.ID]
	switch {
	case !ok:
		r.merged[rule.ID] = rule
		r.order = append(r.order, rule.ID)
	case existing.Placeholder && !rule.Placeholder:
		r.merged[rule.ID] = rule
	}
	return true
}

// Resolve returns the rule for id as seen from runIndex: the run's own
// declaration first, then the merged directory.
func (r *RuleRegistry) Resolve(runIndex int, id string) (*Rule, bool) {
	if rule, ok := r.byRun[runIndex][id]; ok {
		return rule, true
	}
	rule, ok := r.merged[id]
	return rule, ok
}

// Ensure resolves id and, when nothing matches, inserts a placeholder owned
// by the given run so that every referenced id has an entry.
func (r *RuleRegistry) Ensure(runIndex int, toolName, id string) *Rule {
	if rule, ok := r.Resolve(runIndex, id); ok {
		return rule
	}
	placeholder := &Rule{
		ID:          id,
		ToolName:    toolName,
		RunIndex:    runIndex,
		Placeholder: true,
	}
	r.Register(placeholder)
	return placeholder
}

// Lookup returns the merged entry for id.
func (r *RuleRegistry) Lookup(id string) (*Rule, bool) {
	rule, ok := r.merged[id]
	return rule, ok
}

// Rules returns the merged entries in registration order.
func (r *RuleRegistry) Rules() []*Rule {
	rules := make([]*Rule, 0, len(r.order))
	for _, id := range r.order {
		rules = append(rules, r.merged[id])
	}
	return rules
}

// Len returns the number of distinct rule ids.
func (r *RuleRegistry) Len() int {
	return len(r.order)
}

func (r *RuleRegistry) scope(runIndex int) map[string]*Rule {
	scope, ok := r.byRun[runIndex]
	if !ok {
		scope = make(map[string]*Rule)
		r.byRun[runIndex] = scope
	}
	return scope
}

// ruleFromDescriptor converts a driver rule into a registry entry.
func ruleFromDescriptor(d *sarif.ReportingDescriptor, toolName string, runIndex int) *Rule {
	rule := &Rule{
		ID:         strings.TrimSpace(d.ID),
		Properties: d.Properties,
		ToolName:   toolName,
		RunIndex:   runIndex,
	}
	if d.Name != nil {
		rule.Name = *d.Name
	}
	rule.ShortDescription = multiformatText(d.ShortDescription)
	rule.FullDescription = multiformatText(d.FullDescription)
	if d.Help != nil {
		if d.Help.Text != nil {
			rule.HelpText = *d.Help.Text
		}
		if d.Help.Markdown != nil {
			rule.HelpMarkdown = *d.Help.Markdown
		}
	}
	if d.HelpURI != nil {
		rule.HelpURI = *d.HelpURI
	}
	return rule
}

func multiformatText(m *sarif.MultiformatMessageString) string {
	if m == nil {
		return ""
	}
	if m.Text != nil {
		return *m.Text
	}
	if m.Markdown != nil {
		return *m.Markdown
	}
	return ""
}
