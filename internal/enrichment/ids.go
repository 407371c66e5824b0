package enrichment

import (
	"regexp"
	"strings"
)

var (
	cweRegex = regexp.MustCompile(`(?i)\bCWE-(\d+)\b`)
	cveRegex = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,}\b`)
)

// ExtractCWE returns the numeric CWE id referenced by a rule, looking at the
// "cwe" property, then the "tags" property, then the help URI. It returns ""
// when nothing matches.
func ExtractCWE(properties map[string]interface{}, helpURI string) string {
	for _, candidate := range candidates(properties, "cwe", "tags") {
		if m := cweRegex.FindStringSubmatch(candidate); len(m) == 2 {
			return m[1]
		}
	}
	if m := cweRegex.FindStringSubmatch(helpURI); len(m) == 2 {
		return m[1]
	}
	if id := cweFromMitreURI(helpURI); id != "" {
		return id
	}
	return ""
}

// ExtractCVE returns the upper-cased CVE id referenced by a rule, looking at
// the "cve" property, then the "tags" property, then the help URI.
func ExtractCVE(properties map[string]interface{}, helpURI string) string {
	for _, candidate := range candidates(properties, "cve", "tags") {
		if m := cveRegex.FindString(candidate); m != "" {
			return strings.ToUpper(m)
		}
	}
	if m := cveRegex.FindString(helpURI); m != "" {
		return strings.ToUpper(m)
	}
	return ""
}

var mitreDefinitionRegex = regexp.MustCompile(`cwe\.mitre\.org/data/definitions/(\d+)\.html`)

// cweFromMitreURI handles help URIs pointing at the MITRE definition page,
// which carry the number without the "CWE-" prefix.
func cweFromMitreURI(uri string) string {
	if m := mitreDefinitionRegex.FindStringSubmatch(uri); len(m) == 2 {
		return m[1]
	}
	return ""
}

// candidates collects the string values stored under keys, flattening
// string lists.
func candidates(properties map[string]interface{}, keys ...string) []string {
	var out []string
	for _, key := range keys {
		switch v := properties[key].(type) {
		case string:
			out = append(out, v)
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
		case []string:
			out = append(out, v...)
		}
	}
	return out
}
