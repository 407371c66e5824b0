package version

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/sariflens/internal/config"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// Versions holds the build information of the binary.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
}

// Parser describes the parser settings in effect.
type Parser struct {
	TargetVersion     string   `json:"target_version"`
	AllowedExtensions []string `json:"allowed_extensions"`
	MaxFileSize       int64    `json:"max_file_size"`
	Enrichment        string   `json:"enrichment"`
}

// CoreVersions is the full output of the version command.
type CoreVersions struct {
	Versions Versions `json:"versions"`
	Parser   Parser   `json:"parser"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:                   "version [--json]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application and the parser settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			version := collect(AppConfig)
			if asJSON {
				data, err := json.MarshalIndent(version, "", "  ")
				if err != nil {
					return fmt.Errorf("error marshaling version info: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			printVersionInfo(cmd.OutOrStdout(), &version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the version information as JSON.")
	return cmd
}

func collect(cfg *config.Config) CoreVersions {
	settings := cfg.ParserSettings()
	enrichment := "builtin"
	if cfg != nil && cfg.Enrichment.Enabled && cfg.Enrichment.BaseURL != "" {
		enrichment = cfg.Enrichment.BaseURL
	}
	return CoreVersions{
		Versions: Versions{
			Version:       CoreVersion,
			GolangVersion: GolangVersion,
			BuildTime:     BuildTime,
		},
		Parser: Parser{
			TargetVersion:     settings.TargetVersion,
			AllowedExtensions: settings.AllowedExtensions,
			MaxFileSize:       settings.MaxFileSize,
			Enrichment:        enrichment,
		},
	}
}

// printVersionInfo prints the version information for the core application and the parser.
func printVersionInfo(w io.Writer, versions *CoreVersions) {
	fmt.Fprintf(w, "Core Version: v%s\n", versions.Versions.Version)
	fmt.Fprintf(w, "Go Version: %s\n", versions.Versions.GolangVersion)
	fmt.Fprintf(w, "Build Time: %s\n", versions.Versions.BuildTime)
	fmt.Fprintln(w, "Parser:")
	fmt.Fprintf(w, "  SARIF target: %s\n", versions.Parser.TargetVersion)
	fmt.Fprintf(w, "  Extensions: %s\n", strings.Join(versions.Parser.AllowedExtensions, ", "))
	fmt.Fprintf(w, "  Max file size: %d bytes\n", versions.Parser.MaxFileSize)
	fmt.Fprintf(w, "  Enrichment: %s\n", versions.Parser.Enrichment)
}
