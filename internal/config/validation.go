package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var versionPrefixRegex = regexp.MustCompile(`^\d+\.\d+$`)

// ValidateConfig checks if the configuration has valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML config: configuration object is nil")
	}
	if err := ValidateParserConfig(&cfg.Parser); err != nil {
		return fmt.Errorf("YAML config: parser directive is invalid: %w", err)
	}
	if err := ValidateEnrichmentConfig(&cfg.Enrichment); err != nil {
		return fmt.Errorf("YAML config: enrichment directive is invalid: %w", err)
	}
	return nil
}

// ValidateParserConfig checks the parser section. Zero values mean "use the
// default" and are accepted.
func ValidateParserConfig(p *Parser) error {
	if p == nil {
		return fmt.Errorf("parser configuration is nil")
	}
	if p.MaxFileSize < 0 || p.MaxFileSize > MaxAllowedFileSize {
		return fmt.Errorf("max_file_size must be between 1 and %d bytes: %d", MaxAllowedFileSize, p.MaxFileSize)
	}
	for _, ext := range p.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("allowed_extensions entries must start with a dot: %q", ext)
		}
	}
	if p.TargetVersion != "" && !versionPrefixRegex.MatchString(p.TargetVersion) {
		return fmt.Errorf("target_version must look like 'major.minor': %q", p.TargetVersion)
	}
	if p.ProgressInterval < 0 || p.ProgressInterval > MaxProgressInterval {
		return fmt.Errorf("progress_interval must be between 1 and %d: %d", MaxProgressInterval, p.ProgressInterval)
	}
	return nil
}

// ValidateEnrichmentConfig checks the enrichment HTTP settings.
func ValidateEnrichmentConfig(e *Enrichment) error {
	if e == nil {
		return fmt.Errorf("enrichment configuration is nil")
	}
	if e.RetryCount < 0 || e.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", e.RetryCount)
	}

	durations := map[string]time.Duration{
		"retry_max_wait_time": e.RetryMaxWaitTime,
		"retry_wait_time":     e.RetryWaitTime,
		"timeout":             e.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	if e.BaseURL != "" {
		u, err := url.Parse(e.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base_url must use http or https: %q", e.BaseURL)
		}
	}

	if err := validateProxy(&e.Proxy); err != nil {
		return err
	}
	return nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %s: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%s duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}
	if err := validateHost(&proxy.Host); err != nil {
		return err
	}
	return validatePort(proxy.Port)
}

// validateHost adds an http scheme when missing and checks the result parses.
func validateHost(host *string) error {
	if host == nil {
		return fmt.Errorf("host string pointer is nil")
	}
	if !strings.Contains(*host, "://") {
		*host = "http://" + *host
	}
	*host = strings.TrimRight(*host, "/")

	if _, err := url.Parse(*host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}
	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}
