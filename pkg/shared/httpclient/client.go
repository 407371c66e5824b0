package httpclient

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/sariflens/internal/config"
)

// HclogAdapter adapts an hclog.Logger to the resty logger interface.
type HclogAdapter struct {
	logger hclog.Logger
}

// NewHclogAdapter creates a new adapter that will forward messages to a hclog.Logger.
func NewHclogAdapter(logger hclog.Logger) resty.Logger {
	return &HclogAdapter{logger: logger}
}

func (a *HclogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

func (a *HclogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

func (a *HclogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}

// InitializeRestyClient builds a resty client for the enrichment endpoint.
// Transport errors and 5xx responses are retried.
func InitializeRestyClient(logger hclog.Logger, cfg *config.Enrichment) *resty.Client {
	client := resty.New()
	if logger != nil {
		client.SetLogger(NewHclogAdapter(logger))
	}

	restyConfig := applyHTTPClientConfig(cfg)
	client.
		SetDebug(restyConfig.Debug).
		SetRetryCount(restyConfig.RetryCount).
		SetRetryWaitTime(restyConfig.RetryWaitTime).
		SetRetryMaxWaitTime(restyConfig.RetryMaxWaitTime).
		SetTimeout(restyConfig.Timeout).
		SetTLSClientConfig(restyConfig.TLSClientConfig).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if restyConfig.BaseURL != "" {
		client.SetBaseURL(restyConfig.BaseURL)
	}
	if restyConfig.Proxy != "" {
		client.SetProxy(restyConfig.Proxy)
	}

	return client
}

// applyHTTPClientConfig overlays the enrichment settings on the defaults.
func applyHTTPClientConfig(cfg *config.Enrichment) config.RestyHTTPClientConfig {
	defaults := config.DefaultRestyConfig()
	restyConfig := defaults
	if cfg == nil {
		return restyConfig
	}

	restyConfig.BaseURL = cfg.BaseURL
	restyConfig.Debug = config.GetBoolValue(cfg, "Debug", defaults.Debug)
	restyConfig.RetryCount = config.SetThen(cfg.RetryCount, defaults.RetryCount)
	restyConfig.RetryWaitTime = config.SetThen(cfg.RetryWaitTime, defaults.RetryWaitTime)
	restyConfig.RetryMaxWaitTime = config.SetThen(cfg.RetryMaxWaitTime, defaults.RetryMaxWaitTime)
	restyConfig.Timeout = config.SetThen(cfg.Timeout, defaults.Timeout)
	restyConfig.TLSClientConfig.InsecureSkipVerify = !config.GetBoolValue(cfg, "TLSClientConfig.Verify", true)

	if cfg.Proxy.Host != "" && cfg.Proxy.Port != 0 {
		restyConfig.Proxy = fmt.Sprintf("%s:%d", cfg.Proxy.Host, cfg.Proxy.Port)
	}
	return restyConfig
}
