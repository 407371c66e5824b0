package sarif

import "strings"

// FilterState is the caller-held set of restrictions applied to findings.
// Empty sets and an empty search term do not restrict anything.
type FilterState struct {
	Severities     []Severity `json:"severity"`
	RuleIDs        []string   `json:"ruleIds"`
	Files          []string   `json:"files"`
	Search         string     `json:"searchTerm"`
	ShowSuppressed bool       `json:"showSuppressed"`
	ShowFixed      bool       `json:"showFixed"`
}

// DefaultFilterState hides suppressed findings and shows everything else.
func DefaultFilterState() FilterState {
	return FilterState{ShowSuppressed: false, ShowFixed: true}
}

// Unrestricted returns a state under which every finding is visible.
func Unrestricted() FilterState {
	return FilterState{ShowSuppressed: true, ShowFixed: true}
}

// FilterPatch is a partial update of a FilterState. Nil fields are left
// untouched.
type FilterPatch struct {
	Severities     *[]Severity
	RuleIDs        *[]string
	Files          *[]string
	Search         *string
	ShowSuppressed *bool
	ShowFixed      *bool
}

// Merge returns a copy of s with the non-nil fields of patch applied.
func (s FilterState) Merge(patch FilterPatch) FilterState {
	if patch.Severities != nil {
		s.Severities = append([]Severity(nil), (*patch.Severities)...)
	}
	if patch.RuleIDs != nil {
		s.RuleIDs = append([]string(nil), (*patch.RuleIDs)...)
	}
	if patch.Files != nil {
		s.Files = append([]string(nil), (*patch.Files)...)
	}
	if patch.Search != nil {
		s.Search = *patch.Search
	}
	if patch.ShowSuppressed != nil {
		s.ShowSuppressed = *patch.ShowSuppressed
	}
	if patch.ShowFixed != nil {
		s.ShowFixed = *patch.ShowFixed
	}
	return s
}

// IsActive reports whether the state would hide at least one kind of finding.
func (s FilterState) IsActive() bool {
	return len(s.Severities) > 0 || len(s.RuleIDs) > 0 || len(s.Files) > 0 ||
		s.Search != "" || !s.ShowSuppressed || !s.ShowFixed
}

// Filter returns the findings visible under state, in their original order.
// The input slice is never modified.
func Filter(findings []*Finding, state FilterState) []*Finding {
	m := newMatcher(state)
	visible := make([]*Finding, 0, len(findings))
	for _, f := range findings {
		if m.match(f) {
			visible = append(visible, f)
		}
	}
	return visible
}

// Matches reports whether a single finding is visible under state.
func (s FilterState) Matches(f *Finding) bool {
	return newMatcher(s).match(f)
}

type matcher struct {
	severities     map[Severity]struct{}
	ruleIDs        map[string]struct{}
	files          []string
	search         string
	showSuppressed bool
	showFixed      bool
}

func newMatcher(state FilterState) *matcher {
	m := &matcher{
		search:         strings.ToLower(state.Search),
		showSuppressed: state.ShowSuppressed,
		showFixed:      state.ShowFixed,
	}
	if len(state.Severities) > 0 {
		m.severities = make(map[Severity]struct{}, len(state.Severities))
		for _, s := range state.Severities {
			m.severities[s] = struct{}{}
		}
	}
	if len(state.RuleIDs) > 0 {
		m.ruleIDs = make(map[string]struct{}, len(state.RuleIDs))
		for _, id := range state.RuleIDs {
			m.ruleIDs[id] = struct{}{}
		}
	}
	for _, file := range state.Files {
		if file != "" {
			m.files = append(m.files, file)
		}
	}
	return m
}

// match evaluates the predicates cheapest first and stops at the first
// rejection.
func (m *matcher) match(f *Finding) bool {
	if m.severities != nil {
		if _, ok := m.severities[f.Severity]; !ok {
			return false
		}
	}
	if m.ruleIDs != nil {
		if _, ok := m.ruleIDs[f.RuleID]; !ok {
			return false
		}
	}
	if !m.showSuppressed && f.IsSuppressed() {
		return false
	}
	if !m.showFixed && f.IsFixable() {
		return false
	}
	if len(m.files) > 0 && !m.matchFiles(f) {
		return false
	}
	if m.search != "" && !m.matchSearch(f) {
		return false
	}
	return true
}

func (m *matcher) matchFiles(f *Finding) bool {
	for _, loc := range f.Locations {
		if loc.URI == "" {
			continue
		}
		for _, pattern := range m.files {
			if strings.Contains(loc.URI, pattern) {
				return true
			}
		}
	}
	return false
}

func (m *matcher) matchSearch(f *Finding) bool {
	if strings.Contains(strings.ToLower(f.Message), m.search) ||
		strings.Contains(strings.ToLower(f.RuleID), m.search) {
		return true
	}
	if f.Markdown != "" && strings.Contains(strings.ToLower(f.Markdown), m.search) {
		return true
	}
	if f.Rule != nil && f.Rule.ShortDescription != "" &&
		strings.Contains(strings.ToLower(f.Rule.ShortDescription), m.search) {
		return true
	}
	return false
}
