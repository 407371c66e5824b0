package filter

import (
	"fmt"
	"strings"

	cmdutil "github.com/scan-io-git/sariflens/internal/cmd"
	"github.com/scan-io-git/sariflens/internal/sarif"
)

func normalizeSeverity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validateFilterArgs validates the arguments provided to the filter command.
func validateFilterArgs(o *RunOptions, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("exactly one SARIF file path must be specified, got %d", len(args))
	}
	o.SarifPath = args[0]

	for _, s := range o.Severities {
		if !sarif.Severity(normalizeSeverity(s)).Valid() {
			return fmt.Errorf("unknown severity %q, expected one of error, warning, note, info", s)
		}
	}
	if o.FindingID != "" && (len(o.Severities) > 0 || len(o.RuleIDs) > 0 || len(o.Files) > 0 || o.Search != "") {
		return fmt.Errorf("the 'id' flag cannot be combined with filter flags")
	}
	return cmdutil.ValidateOutput(o.Output)
}
