package parse

import (
	"fmt"

	cmdutil "github.com/scan-io-git/sariflens/internal/cmd"
)

// validateParseArgs validates the arguments provided to the parse command.
func validateParseArgs(o *RunOptions) error {
	if len(o.SarifPaths) == 0 {
		return fmt.Errorf("at least one SARIF file path must be specified")
	}
	if err := cmdutil.ValidateOutput(o.Output); err != nil {
		return err
	}
	if o.Threads <= 0 {
		return fmt.Errorf("the 'threads' flag must be a positive integer")
	}
	if o.Top < 0 {
		return fmt.Errorf("the 'top' flag cannot be negative")
	}
	return nil
}
