package cmd

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/sariflens/cmd/filter"
	"github.com/scan-io-git/sariflens/cmd/parse"
	"github.com/scan-io-git/sariflens/cmd/rules"
	"github.com/scan-io-git/sariflens/cmd/version"
	"github.com/scan-io-git/sariflens/cmd/worker"
	"github.com/scan-io-git/sariflens/internal/config"
	"github.com/scan-io-git/sariflens/internal/logger"
	"github.com/scan-io-git/sariflens/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "sariflens [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Sariflens parses, summarizes and filters SARIF reports.",
		Long: `Sariflens ingests SARIF 2.1.x reports produced by static analysis tools,
	normalizes their results into findings, aggregates statistics per severity, rule,
	file and tool, and filters findings for review.
	`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("Config file (default is $%s or %s).", config.ConfigEnv, config.DefaultConfigPath))
	rootCmd.AddCommand(
		parse.ParseCmd,
		filter.FilterCmd,
		rules.RulesCmd,
		worker.WorkerCmd,
		version.NewVersionCmd(),
	)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var cmdErr *errors.CommandError
		if stderrors.As(err, &cmdErr) {
			printCommandError(cmdErr)
			return cmdErr.ExitCode
		}
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return errors.ExitFailure
	}
	return errors.ExitOK
}

func printCommandError(cmdErr *errors.CommandError) {
	fmt.Fprintf(os.Stderr, "Error executing command: %v\n", cmdErr)
	if !strings.EqualFold(os.Getenv(logger.LevelEnv), "DEBUG") {
		return
	}
	data, err := json.MarshalIndent(cmdErr.Result, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(os.Stderr, string(data))
}

func initConfig(cmd *cobra.Command, _ []string) error {
	var err error

	path := config.ResolvePath(cfgFile)
	AppConfig, err = config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("initializing config file function is crashed: %w", err)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		return fmt.Errorf("invalid config %q: %w", path, err)
	}

	lg := logger.NewLogger(AppConfig, "core")
	lg.Debug("config loaded", "path", path, "command", cmd.Name())

	parse.Init(AppConfig, lg.Named("parse"))
	filter.Init(AppConfig, lg.Named("filter"))
	rules.Init(AppConfig, lg.Named("rules"))
	worker.Init(AppConfig, lg.Named("worker"))
	version.Init(AppConfig)
	return nil
}

