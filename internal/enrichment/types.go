package enrichment

import "time"

// CVEInfo is a vulnerability record.
type CVEInfo struct {
	ID               string   `json:"id"`
	Description      string   `json:"description"`
	Severity         string   `json:"severity"`
	Score            *float64 `json:"score,omitempty"`
	References       []string `json:"references"`
	PublishedDate    string   `json:"publishedDate,omitempty"`
	LastModifiedDate string   `json:"lastModifiedDate,omitempty"`
}

// CWEInfo is a weakness record.
type CWEInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	WeaknessType string   `json:"weaknessType"`
	References   []string `json:"references"`
}

// Enrichment is attached to a rule. Either record may be absent.
type Enrichment struct {
	CVE        *CVEInfo  `json:"cve,omitempty"`
	CWE        *CWEInfo  `json:"cwe,omitempty"`
	EnrichedAt time.Time `json:"enrichmentDate"`
}

// Empty reports whether no record was found.
func (e *Enrichment) Empty() bool {
	return e == nil || (e.CVE == nil && e.CWE == nil)
}
