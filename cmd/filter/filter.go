package filter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cmdutil "github.com/scan-io-git/sariflens/internal/cmd"
	"github.com/scan-io-git/sariflens/internal/config"
	"github.com/scan-io-git/sariflens/internal/sarif"
	"github.com/scan-io-git/sariflens/internal/state"
	"github.com/scan-io-git/sariflens/pkg/shared/errors"
)

// RunOptions holds the arguments for the filter command.
type RunOptions struct {
	SarifPath      string   `json:"sarif_path"`
	Severities     []string `json:"severity,omitempty"`
	RuleIDs        []string `json:"rule,omitempty"`
	Files          []string `json:"file,omitempty"`
	Search         string   `json:"search,omitempty"`
	ShowSuppressed bool     `json:"show_suppressed,omitempty"`
	HideFixed      bool     `json:"hide_fixed,omitempty"`
	FindingID      string   `json:"id,omitempty"`
	Output         string   `json:"output,omitempty"`
}

var (
	AppConfig *config.Config
	logger    hclog.Logger
	opts      RunOptions

	exampleFilterUsage = `  # List the errors and warnings of a report
  sariflens filter --severity error,warning results.sarif

  # Findings of one rule in files under a folder, suppressed ones included
  sariflens filter --rule go.sql-injection --file internal/ --show-suppressed results.sarif

  # Search messages, rule ids and descriptions
  sariflens filter --search "tainted" --output json results.sarif

  # Show a single finding by its id
  sariflens filter --id 0-3 results.sarif`

	// FilterCmd represents the filter command.
	FilterCmd = &cobra.Command{
		Use:                   "filter [--severity LEVEL[,LEVEL...]] [--rule ID[,ID...]] [--file PATTERN[,PATTERN...]] [--search TERM] [--show-suppressed] [--hide-fixed] [--id FINDING_ID] [--output/-o text|json] PATH",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Example:               exampleFilterUsage,
		Short:                 "Filter the findings of a SARIF report",
		RunE:                  runFilterCommand,
	}
)

// Init wires config and logger into this command.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runFilterCommand(cmd *cobra.Command, args []string) error {
	return run(cmd, args, &opts)
}

func run(cmd *cobra.Command, args []string, o *RunOptions) error {
	// 1. Check for help request
	if len(args) == 0 && !cmdutil.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	// 2. Validate arguments
	if err := validateFilterArgs(o, args); err != nil {
		logger.Error("invalid filter arguments", "error", err)
		return errors.NewCommandError(o, nil, fmt.Errorf("invalid filter arguments: %w", err), errors.ExitFailure)
	}

	// 3. Load the report
	store := state.NewStore()
	loader := cmdutil.NewLoader(AppConfig, logger)
	if _, err := loader.Load(cmd.Context(), store, o.SarifPath, nil); err != nil {
		logger.Error("failed to load report", "file", o.SarifPath, "error", err)
		return errors.NewCommandError(o, nil, err, cmdutil.ExitCode(err))
	}

	// 4. Show a single finding when requested
	out := cmd.OutOrStdout()
	if o.FindingID != "" {
		if !store.Select(o.FindingID) {
			err := fmt.Errorf("finding %q not found", o.FindingID)
			return errors.NewCommandError(o, nil, err, errors.ExitFailure)
		}
		f, _ := store.Selected()
		return printFindings(out, o.Output, []*sarif.Finding{f})
	}

	// 5. Apply the filters
	filters := store.UpdateFilters(buildPatch(cmd, o))
	visible := store.Filtered()
	logger.Debug("filters applied", "active", filters.IsActive(), "visible", len(visible), "total", len(store.Result().Findings))

	return printFindings(out, o.Output, visible)
}

// buildPatch turns the flags set on the command line into a filter patch, so
// unset flags keep the store defaults.
func buildPatch(cmd *cobra.Command, o *RunOptions) sarif.FilterPatch {
	var patch sarif.FilterPatch
	flags := cmd.Flags()
	if flags.Changed("severity") {
		severities := make([]sarif.Severity, 0, len(o.Severities))
		for _, s := range o.Severities {
			severities = append(severities, sarif.Severity(normalizeSeverity(s)))
		}
		patch.Severities = &severities
	}
	if flags.Changed("rule") {
		patch.RuleIDs = &o.RuleIDs
	}
	if flags.Changed("file") {
		patch.Files = &o.Files
	}
	if flags.Changed("search") {
		patch.Search = &o.Search
	}
	if flags.Changed("show-suppressed") {
		patch.ShowSuppressed = &o.ShowSuppressed
	}
	if flags.Changed("hide-fixed") {
		showFixed := !o.HideFixed
		patch.ShowFixed = &showFixed
	}
	return patch
}

func printFindings(out io.Writer, format string, findings []*sarif.Finding) error {
	if format == cmdutil.OutputJSON {
		data, err := json.MarshalIndent(findings, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling the result data: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	cmdutil.RenderFindings(out, findings)
	return nil
}

func registerFlags(fs *pflag.FlagSet, o *RunOptions) {
	fs.StringSliceVar(&o.Severities, "severity", nil, "Severities to show: error, warning, note, info (repeat flag or use comma-separated values).")
	fs.StringSliceVar(&o.RuleIDs, "rule", nil, "Rule ids to show (repeat flag or use comma-separated values).")
	fs.StringSliceVar(&o.Files, "file", nil, "Substrings matched against location URIs (repeat flag or use comma-separated values).")
	fs.StringVar(&o.Search, "search", "", "Case-insensitive term matched against messages, rule ids and rule descriptions.")
	fs.BoolVar(&o.ShowSuppressed, "show-suppressed", false, "Include suppressed findings.")
	fs.BoolVar(&o.HideFixed, "hide-fixed", false, "Exclude findings that carry a fix.")
	fs.StringVar(&o.FindingID, "id", "", "Show only the finding with this id.")
	fs.StringVarP(&o.Output, "output", "o", cmdutil.OutputText, "Output format: text or json.")
}

func init() {
	registerFlags(FilterCmd.Flags(), &opts)
	FilterCmd.Flags().BoolP("help", "h", false, "Show help for the filter command.")
}
