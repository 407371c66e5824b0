package rules

import (
	"fmt"

	cmdutil "github.com/scan-io-git/sariflens/internal/cmd"
)

// validateRulesArgs validates the arguments provided to the rules command.
func validateRulesArgs(o *RunOptions, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("exactly one SARIF file path must be specified, got %d", len(args))
	}
	o.SarifPath = args[0]
	return cmdutil.ValidateOutput(o.Output)
}
