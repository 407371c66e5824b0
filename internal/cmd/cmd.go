package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"

	"github.com/scan-io-git/sariflens/internal/config"
	"github.com/scan-io-git/sariflens/internal/sarif"
	"github.com/scan-io-git/sariflens/internal/state"
	"github.com/scan-io-git/sariflens/internal/worker"
	"github.com/scan-io-git/sariflens/pkg/shared/errors"
	"github.com/scan-io-git/sariflens/pkg/shared/files"
)

// Output formats shared by the commands.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// HasFlags reports whether any flag was set on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	changed := false
	flags.Visit(func(*pflag.Flag) {
		changed = true
	})
	return changed
}

// ValidateOutput checks an --output value.
func ValidateOutput(format string) error {
	switch format {
	case OutputText, OutputJSON:
		return nil
	}
	return fmt.Errorf("--output must be %q or %q, got %q", OutputText, OutputJSON, format)
}

// ExitCode maps a load error onto the CLI exit code.
func ExitCode(err error) int {
	var pe *sarif.ParseError
	switch {
	case err == nil:
		return errors.ExitOK
	case stderrors.Is(err, files.ErrInvalidInput):
		return errors.ExitInvalidInput
	case stderrors.As(err, &pe):
		return errors.ExitParseFailure
	}
	return errors.ExitFailure
}

// ParserOptions maps the parser config section onto parser options.
func ParserOptions(cfg *config.Config) sarif.Options {
	settings := cfg.ParserSettings()
	return sarif.Options{
		TargetVersion:    settings.TargetVersion,
		ProgressInterval: settings.ProgressInterval,
	}
}

// InputRules maps the parser config section onto the input file contract.
func InputRules(cfg *config.Config) files.InputRules {
	settings := cfg.ParserSettings()
	return files.InputRules{
		AllowedExtensions: settings.AllowedExtensions,
		MaxSize:           settings.MaxFileSize,
	}
}

// Loader reads report files and parses them through its own worker slot,
// recording the lifecycle in a state store. A new Load cancels any parse the
// same Loader still has in flight.
type Loader struct {
	logger hclog.Logger
	rules  files.InputRules
	slot   *worker.Slot
}

func NewLoader(cfg *config.Config, logger hclog.Logger) *Loader {
	return &Loader{
		logger: logger,
		rules:  InputRules(cfg),
		slot:   worker.NewSlot(worker.New(logger.Named("worker"), ParserOptions(cfg))),
	}
}

// Load validates path, parses it and applies the result to store. Files
// rejected by the input contract never reach the worker. onProgress may be
// nil.
func (l *Loader) Load(ctx context.Context, store *state.Store, path string, onProgress func(worker.ProgressPayload)) (*sarif.Result, error) {
	content, err := files.ReadReport(path, l.rules)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	req := worker.NewParseRequest(name, content)
	store.Begin(name, req.ID)
	l.logger.Debug("starting parse", "file", path, "request_id", req.ID, "bytes", len(content))

	task := l.slot.Start(ctx, req)
	return store.Track(ctx, task, onProgress)
}
