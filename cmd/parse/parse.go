package parse

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cmdutil "github.com/scan-io-git/sariflens/internal/cmd"
	"github.com/scan-io-git/sariflens/internal/config"
	"github.com/scan-io-git/sariflens/internal/sarif"
	"github.com/scan-io-git/sariflens/internal/state"
	"github.com/scan-io-git/sariflens/internal/worker"
	"github.com/scan-io-git/sariflens/pkg/shared/errors"
	"github.com/scan-io-git/sariflens/pkg/shared/files"
)

const defaultOutputName = "sariflens-parse.json"

// RunOptions holds the arguments for the parse command.
type RunOptions struct {
	SarifPaths []string `json:"sarif_paths"`
	Output     string   `json:"output,omitempty"`
	OutputFile string   `json:"output_file,omitempty"`
	Quiet      bool     `json:"quiet,omitempty"`
	Top        int      `json:"top,omitempty"`
	Threads    int      `json:"threads,omitempty"`
	Findings   bool     `json:"findings,omitempty"`
}

var (
	AppConfig *config.Config
	logger    hclog.Logger
	opts      RunOptions

	exampleParseUsage = `  # Summarize a single report
  sariflens parse results.sarif

  # Summarize several reports in parallel and print JSON
  sariflens parse -j 4 --output json semgrep.sarif gosec.sarif

  # Save the full parse result, findings included, to a folder
  sariflens parse --findings --output-file ./reports/ results.sarif`

	// ParseCmd represents the parse command.
	ParseCmd = &cobra.Command{
		Use:                   "parse [--output/-o text|json] [--output-file PATH] [--findings] [--top N] [-j THREADS] PATH [PATH...]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Example:               exampleParseUsage,
		Short:                 "Parse SARIF reports and print a summary of their findings",
		RunE:                  runParseCommand,
	}
)

// Init wires config and logger into this command.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

// parseOutcome is the per-file result reported in the launches envelope.
type parseOutcome struct {
	File     string           `json:"file"`
	Report   sarif.Report     `json:"report"`
	Summary  sarif.Summary    `json:"summary"`
	Findings []*sarif.Finding `json:"findings,omitempty"`
}

func runParseCommand(cmd *cobra.Command, args []string) error {
	// 1. Check for help request
	if len(args) == 0 && !cmdutil.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	// 2. Validate arguments
	opts.SarifPaths = args
	if err := validateParseArgs(&opts); err != nil {
		logger.Error("invalid parse arguments", "error", err)
		return errors.NewCommandError(opts, nil, fmt.Errorf("invalid parse arguments: %w", err), errors.ExitFailure)
	}

	// 3. Parse every report, each through its own worker slot
	results, launches, failed := parseAll(cmd, &opts)

	// 4. Print the outcome
	out := cmd.OutOrStdout()
	if opts.Output == cmdutil.OutputJSON {
		data, err := json.MarshalIndent(launches, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling the result data: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		for i, res := range results {
			if res == nil {
				continue
			}
			cmdutil.RenderSummary(out, opts.SarifPaths[i], res, opts.Top)
			if opts.Findings {
				cmdutil.RenderFindings(out, res.Findings)
			}
		}
	}

	// 5. Save the result file
	if opts.OutputFile != "" {
		path, err := writeLaunches(opts.OutputFile, launches)
		if err != nil {
			logger.Error("failed to write result", "error", err)
			return errors.NewCommandErrorWithResult(launches, err, errors.ExitFailure)
		}
		logger.Info("results saved to file", "path", path)
	}

	if failed.err != nil {
		logger.Error("parse command failed", "failed", failed.count, "total", len(opts.SarifPaths))
		err := fmt.Errorf("%d of %d report(s) failed to parse: %w", failed.count, len(opts.SarifPaths), failed.err)
		return errors.NewCommandErrorWithResult(launches, err, failed.code)
	}

	logger.Info("parse command completed successfully", "reports", len(opts.SarifPaths))
	return nil
}

type failure struct {
	count int
	code  int
	err   error
}

// parseAll keeps results and launches in argument order. The first failure
// in that order decides the exit code.
func parseAll(cmd *cobra.Command, o *RunOptions) ([]*sarif.Result, errors.LaunchesResult, failure) {
	results := make([]*sarif.Result, len(o.SarifPaths))
	errs := make([]error, len(o.SarifPaths))

	var progressMu sync.Mutex
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(o.Threads)
	for i, path := range o.SarifPaths {
		i, path := i, path
		g.Go(func() error {
			var onProgress func(worker.ProgressPayload)
			if !o.Quiet {
				printProgress := cmdutil.ProgressPrinter(cmd.ErrOrStderr(), path)
				onProgress = func(p worker.ProgressPayload) {
					progressMu.Lock()
					defer progressMu.Unlock()
					printProgress(p)
				}
			}
			loader := cmdutil.NewLoader(AppConfig, logger)
			results[i], errs[i] = loader.Load(ctx, state.NewStore(), path, onProgress)
			if errs[i] != nil {
				logger.Error("failed to parse report", "file", path, "error", errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	var launches errors.LaunchesResult
	var failed failure
	for i, path := range o.SarifPaths {
		if errs[i] != nil {
			launches.Launches = append(launches.Launches, errors.LaunchResult{
				Args:    path,
				Status:  "FAILED",
				Message: errs[i].Error(),
			})
			if failed.err == nil {
				failed.err = errs[i]
				failed.code = cmdutil.ExitCode(errs[i])
			}
			failed.count++
			continue
		}
		launches.Launches = append(launches.Launches, errors.LaunchResult{
			Args:   path,
			Status: "OK",
			Result: outcome(path, results[i], o.Findings),
		})
	}
	return results, launches, failed
}

func outcome(path string, res *sarif.Result, withFindings bool) parseOutcome {
	o := parseOutcome{File: path, Report: res.Report, Summary: res.Summary}
	if withFindings {
		o.Findings = res.Findings
	}
	return o
}

func writeLaunches(target string, launches errors.LaunchesResult) (string, error) {
	path, folder, err := files.DetermineFileFullPath(target, defaultOutputName)
	if err != nil {
		return "", err
	}
	if err := files.CreateFolderIfNotExists(folder); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(launches, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshaling the result data: %w", err)
	}
	if err := files.WriteJsonFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func init() {
	ParseCmd.Flags().StringVarP(&opts.Output, "output", "o", cmdutil.OutputText, "Output format: text or json.")
	ParseCmd.Flags().StringVar(&opts.OutputFile, "output-file", "", "Path to a file or directory where the JSON result is saved.")
	ParseCmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Do not print progress to stderr.")
	ParseCmd.Flags().IntVar(&opts.Top, "top", 10, "Number of rules and files listed in the text summary, 0 lists all.")
	ParseCmd.Flags().IntVarP(&opts.Threads, "threads", "j", 1, "Number of reports parsed concurrently.")
	ParseCmd.Flags().BoolVar(&opts.Findings, "findings", false, "Include the findings in the output.")
	ParseCmd.Flags().BoolP("help", "h", false, "Show help for the parse command.")
}
