package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// DefaultConfigPath is used when neither the --config flag nor
// SARIFLENS_CONFIG is set.
const DefaultConfigPath = "config.yml"

// ConfigEnv names the environment variable overriding the config path.
const ConfigEnv = "SARIFLENS_CONFIG"

type Config struct {
	Logger     Logger     `yaml:"logger"`
	Parser     Parser     `yaml:"parser"`
	Enrichment Enrichment `yaml:"enrichment"`
}

type Logger struct {
	Level           string `yaml:"level"`
	JSONFormat      *bool  `yaml:"json_format"`
	DisableTime     *bool  `yaml:"disable_time"`
	IncludeLocation *bool  `yaml:"include_location"`
}

type Parser struct {
	MaxFileSize       int64    `yaml:"max_file_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	TargetVersion     string   `yaml:"target_version"`
	ProgressInterval  int      `yaml:"progress_interval"`
}

type Enrichment struct {
	Enabled          bool            `yaml:"enabled"`
	BaseURL          string          `yaml:"base_url"`
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ResolvePath picks the config file path: the explicit value first, then
// SARIFLENS_CONFIG, then DefaultConfigPath.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(ConfigEnv); env != "" {
		return env
	}
	return DefaultConfigPath
}

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the YAML file at path. A missing file is not an error and
// yields an empty configuration, and so does an empty file. Defaults apply
// to every unset value.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := LoadYAML(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load config %q: %w", path, err)
	}
	return cfg, nil
}
