package rules

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cmdutil "github.com/scan-io-git/sariflens/internal/cmd"
	"github.com/scan-io-git/sariflens/internal/config"
	"github.com/scan-io-git/sariflens/internal/enrichment"
	"github.com/scan-io-git/sariflens/internal/sarif"
	"github.com/scan-io-git/sariflens/internal/state"
	"github.com/scan-io-git/sariflens/pkg/shared/errors"
)

// RunOptions holds the arguments for the rules command.
type RunOptions struct {
	SarifPath string `json:"sarif_path"`
	Enrich    bool   `json:"enrich,omitempty"`
	Output    string `json:"output,omitempty"`
}

// RuleView is one entry of the JSON output.
type RuleView struct {
	sarif.RuleStat
	Enrichment *enrichment.Enrichment `json:"enrichment,omitempty"`
}

var (
	AppConfig *config.Config
	logger    hclog.Logger
	opts      RunOptions

	exampleRulesUsage = `  # List the rules of a report with their finding counts
  sariflens rules results.sarif

  # Attach CWE and CVE records to every rule
  sariflens rules --enrich --output json results.sarif`

	// RulesCmd represents the rules command.
	RulesCmd = &cobra.Command{
		Use:                   "rules [--enrich] [--output/-o text|json] PATH",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Example:               exampleRulesUsage,
		Short:                 "List the rules of a SARIF report, optionally enriched with CWE and CVE data",
		RunE:                  runRulesCommand,
	}
)

// Init wires config and logger into this command.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runRulesCommand(cmd *cobra.Command, args []string) error {
	return run(cmd, args, &opts)
}

func run(cmd *cobra.Command, args []string, o *RunOptions) error {
	// 1. Check for help request
	if len(args) == 0 && !cmdutil.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	// 2. Validate arguments
	if err := validateRulesArgs(o, args); err != nil {
		logger.Error("invalid rules arguments", "error", err)
		return errors.NewCommandError(o, nil, fmt.Errorf("invalid rules arguments: %w", err), errors.ExitFailure)
	}

	// 3. Load the report
	loader := cmdutil.NewLoader(AppConfig, logger)
	res, err := loader.Load(cmd.Context(), state.NewStore(), o.SarifPath, nil)
	if err != nil {
		logger.Error("failed to load report", "file", o.SarifPath, "error", err)
		return errors.NewCommandError(o, nil, err, cmdutil.ExitCode(err))
	}

	// 4. Enrich the rules
	var enrichments map[string]*enrichment.Enrichment
	if o.Enrich {
		provider, err := newProvider(AppConfig, logger)
		if err != nil {
			logger.Error("failed to initialize enrichment provider", "error", err)
			return errors.NewCommandError(o, nil, err, errors.ExitFailure)
		}
		enrichments = enrichment.NewService(provider, logger.Named("enrichment")).EnrichAll(cmd.Context(), res.Report.Rules)
		logger.Debug("rules enriched", "rules", len(res.Report.Rules), "enriched", len(enrichments))
	}

	// 5. Print
	stats := res.RulesList()
	out := cmd.OutOrStdout()
	if o.Output == cmdutil.OutputJSON {
		views := make([]RuleView, 0, len(stats))
		for _, s := range stats {
			views = append(views, RuleView{RuleStat: s, Enrichment: enrichments[s.ID]})
		}
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling the result data: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	cmdutil.RenderRules(out, stats, enrichments)
	return nil
}

// newProvider uses the configured lookup service when enrichment is enabled
// with a base URL, and the bundled records otherwise.
func newProvider(cfg *config.Config, lg hclog.Logger) (enrichment.Provider, error) {
	if cfg != nil && cfg.Enrichment.Enabled && cfg.Enrichment.BaseURL != "" {
		return enrichment.NewHTTPProvider(lg.Named("http"), &cfg.Enrichment)
	}
	return enrichment.BuiltinProvider(), nil
}

func registerFlags(fs *pflag.FlagSet, o *RunOptions) {
	fs.BoolVar(&o.Enrich, "enrich", false, "Attach CWE and CVE records to the rules.")
	fs.StringVarP(&o.Output, "output", "o", cmdutil.OutputText, "Output format: text or json.")
}

func init() {
	registerFlags(RulesCmd.Flags(), &opts)
	RulesCmd.Flags().BoolP("help", "h", false, "Show help for the rules command.")
}
