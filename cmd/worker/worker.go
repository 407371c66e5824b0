package worker

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	cmdutil "github.com/scan-io-git/sariflens/internal/cmd"
	"github.com/scan-io-git/sariflens/internal/config"
	internalworker "github.com/scan-io-git/sariflens/internal/worker"
	"github.com/scan-io-git/sariflens/pkg/shared/errors"
)

var (
	AppConfig *config.Config
	logger    hclog.Logger

	exampleWorkerUsage = `  # Parse one request and stream progress and the result as JSON lines
  echo '{"id":"1","type":"PARSE_SARIF","payload":{"fileName":"r.sarif","fileContent":"..."}}' | sariflens worker`

	// WorkerCmd represents the worker command.
	WorkerCmd = &cobra.Command{
		Use:                   "worker",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Example:               exampleWorkerUsage,
		Short:                 "Serve one parse request from stdin and stream the messages to stdout",
		Long: `Reads a single PARSE_SARIF request as JSON from stdin, then writes one JSON
message per line to stdout: zero or more PARSE_PROGRESS messages followed by
exactly one PARSE_COMPLETE or PARSE_ERROR message.`,
		Args: cobra.NoArgs,
		RunE: runWorkerCommand,
	}
)

// Init wires config and logger into this command.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runWorkerCommand(cmd *cobra.Command, _ []string) error {
	w := internalworker.New(logger, cmdutil.ParserOptions(AppConfig))
	if err := w.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		logger.Error("worker failed", "error", err)
		return errors.NewCommandError(nil, nil, fmt.Errorf("worker failed: %w", err), cmdutil.ExitCode(err))
	}
	return nil
}

func init() {
	WorkerCmd.Flags().BoolP("help", "h", false, "Show help for the worker command.")
}
