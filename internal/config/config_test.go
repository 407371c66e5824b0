package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  json_format: true
parser:
  max_file_size: 1048576
  allowed_extensions: [".sarif"]
  progress_interval: 250
enrichment:
  enabled: true
  base_url: https://vulns.example.com/api
  timeout: 5s
  retry_count: 3
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, GetBoolValue(cfg, "Logger.JSONFormat", false))
	assert.True(t, GetBoolValue(cfg, "Logger.DisableTime", true))
	assert.Equal(t, 5*time.Second, cfg.Enrichment.Timeout)
	assert.Equal(t, 3, cfg.Enrichment.RetryCount)

	settings := cfg.ParserSettings()
	assert.Equal(t, int64(1048576), settings.MaxFileSize)
	assert.Equal(t, []string{".sarif"}, settings.AllowedExtensions)
	assert.Equal(t, DefaultTargetVersion, settings.TargetVersion)
	assert.Equal(t, 250, settings.ProgressInterval)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	settings := cfg.ParserSettings()
	assert.Equal(t, DefaultMaxFileSize, settings.MaxFileSize)
	assert.Equal(t, DefaultAllowedExtensions, settings.AllowedExtensions)
	assert.Equal(t, DefaultProgressInterval, settings.ProgressInterval)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "is a directory")

	_, err = LoadConfig(writeConfig(t, "parser: [unclosed"))
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	assert.Equal(t, DefaultConfigPath, ResolvePath(""))

	t.Setenv(ConfigEnv, "/etc/sariflens.yml")
	assert.Equal(t, "/etc/sariflens.yml", ResolvePath(""))
	assert.Equal(t, "local.yml", ResolvePath("local.yml"))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{name: "nil", cfg: nil, wantErr: "configuration object is nil"},
		{name: "empty", cfg: &Config{}},
		{name: "file size too big", cfg: &Config{Parser: Parser{MaxFileSize: MaxAllowedFileSize + 1}}, wantErr: "max_file_size"},
		{name: "negative file size", cfg: &Config{Parser: Parser{MaxFileSize: -1}}, wantErr: "max_file_size"},
		{name: "extension without dot", cfg: &Config{Parser: Parser{AllowedExtensions: []string{"sarif"}}}, wantErr: "allowed_extensions"},
		{name: "bad target version", cfg: &Config{Parser: Parser{TargetVersion: "2.1.0"}}, wantErr: "target_version"},
		{name: "interval too large", cfg: &Config{Parser: Parser{ProgressInterval: MaxProgressInterval + 1}}, wantErr: "progress_interval"},
		{name: "retry count", cfg: &Config{Enrichment: Enrichment{RetryCount: 21}}, wantErr: "retry_count"},
		{name: "timeout", cfg: &Config{Enrichment: Enrichment{Timeout: 101 * time.Second}}, wantErr: "too long"},
		{name: "negative wait", cfg: &Config{Enrichment: Enrichment{RetryWaitTime: -time.Second}}, wantErr: "cannot be negative"},
		{name: "base url scheme", cfg: &Config{Enrichment: Enrichment{BaseURL: "ftp://example.com"}}, wantErr: "base_url"},
		{name: "proxy port", cfg: &Config{Enrichment: Enrichment{Proxy: Proxy{Host: "proxy", Port: 70000}}}, wantErr: "port must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateProxyAddsScheme(t *testing.T) {
	cfg := &Config{Enrichment: Enrichment{Proxy: Proxy{Host: "proxy.local/", Port: 3128}}}
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, "http://proxy.local", cfg.Enrichment.Proxy.Host)
}

func TestSetThen(t *testing.T) {
	assert.Equal(t, 5, SetThen(0, 5))
	assert.Equal(t, 3, SetThen(3, 5))
	assert.Equal(t, "x", SetThen("", "x"))
	assert.Equal(t, time.Second, SetThen(time.Duration(0), time.Second))
}

func TestLoadConfigEmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}
