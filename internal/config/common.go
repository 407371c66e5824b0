package config

import (
	"crypto/tls"
	"time"
)

const (
	DefaultMaxFileSize      int64 = 50 * 1024 * 1024
	MaxAllowedFileSize      int64 = 1024 * 1024 * 1024
	DefaultTargetVersion          = "2.1"
	DefaultProgressInterval       = 1000
	MaxProgressInterval           = 1_000_000
)

// DefaultAllowedExtensions lists the accepted report file extensions.
var DefaultAllowedExtensions = []string{".sarif", ".json"}

// BaseHTTPConfig holds common HTTP client configuration settings.
type BaseHTTPConfig struct {
	BaseURL          string
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	Timeout          time.Duration
	TLSClientConfig  *tls.Config
	Proxy            string
}

// RestyHTTPClientConfig holds additional configuration settings for the Resty HTTP client.
type RestyHTTPClientConfig struct {
	BaseHTTPConfig
	Debug bool
}

// DefaultHTTPConfig returns a base configuration for HTTP clients with default values.
func DefaultHTTPConfig() BaseHTTPConfig {
	return BaseHTTPConfig{
		RetryCount:       2,
		RetryWaitTime:    500 * time.Millisecond,
		RetryMaxWaitTime: 2 * time.Second,
		Timeout:          10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// DefaultRestyConfig returns a default configuration for the Resty HTTP client.
func DefaultRestyConfig() RestyHTTPClientConfig {
	return RestyHTTPClientConfig{
		BaseHTTPConfig: DefaultHTTPConfig(),
	}
}

// ParserSettings is the parser section with defaults applied.
type ParserSettings struct {
	MaxFileSize       int64
	AllowedExtensions []string
	TargetVersion     string
	ProgressInterval  int
}

// ParserSettings resolves the parser section against its defaults.
func (c *Config) ParserSettings() ParserSettings {
	var p Parser
	if c != nil {
		p = c.Parser
	}
	exts := p.AllowedExtensions
	if len(exts) == 0 {
		exts = DefaultAllowedExtensions
	}
	return ParserSettings{
		MaxFileSize:       SetThen(p.MaxFileSize, DefaultMaxFileSize),
		AllowedExtensions: append([]string(nil), exts...),
		TargetVersion:     SetThen(p.TargetVersion, DefaultTargetVersion),
		ProgressInterval:  SetThen(p.ProgressInterval, DefaultProgressInterval),
	}
}
