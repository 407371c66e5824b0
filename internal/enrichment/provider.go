package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/sariflens/internal/config"
	"github.com/scan-io-git/sariflens/pkg/shared/httpclient"
)

// Provider looks up weakness and vulnerability records. A record that does
// not exist is reported as nil with a nil error.
type Provider interface {
	CWE(ctx context.Context, id string) (*CWEInfo, error)
	CVE(ctx context.Context, id string) (*CVEInfo, error)
}

// StaticProvider serves records from memory.
type StaticProvider struct {
	CWEs map[string]*CWEInfo
	CVEs map[string]*CVEInfo
}

func (p *StaticProvider) CWE(_ context.Context, id string) (*CWEInfo, error) {
	return p.CWEs[id], nil
}

func (p *StaticProvider) CVE(_ context.Context, id string) (*CVEInfo, error) {
	return p.CVEs[strings.ToUpper(id)], nil
}

// BuiltinProvider returns a small offline catalog, used when no endpoint is
// configured.
func BuiltinProvider() *StaticProvider {
	score := 7.2
	return &StaticProvider{
		CWEs: map[string]*CWEInfo{
			"79": {
				ID:           "CWE-79",
				Name:         "Cross-site Scripting (XSS)",
				Description:  "The software does not neutralize or incorrectly neutralizes user-controllable input before it is placed in output that is used as a web page that is served to other users.",
				WeaknessType: "Base",
				References: []string{
					"https://cwe.mitre.org/data/definitions/79.html",
					"https://owasp.org/www-community/attacks/xss/",
				},
			},
			"89": {
				ID:           "CWE-89",
				Name:         "Improper Neutralization of Special Elements used in an SQL Command ('SQL Injection')",
				Description:  "The software constructs all or part of an SQL command using externally-influenced input but does not neutralize special elements that could modify the intended SQL command.",
				WeaknessType: "Base",
				References:   []string{"https://cwe.mitre.org/data/definitions/89.html"},
			},
			"1321": {
				ID:           "CWE-1321",
				Name:         "Improperly Controlled Modification of Object Prototype Attributes (Prototype Pollution)",
				Description:  "The software receives input from an upstream component that specifies attributes that are to be initialized or updated in an object, but it does not properly control modifications of attributes of the object prototype.",
				WeaknessType: "Base",
				References: []string{
					"https://cwe.mitre.org/data/definitions/1321.html",
					"https://portswigger.net/web-security/prototype-pollution",
				},
			},
		},
		CVEs: map[string]*CVEInfo{
			"CVE-2021-23337": {
				ID:          "CVE-2021-23337",
				Description: "Lodash versions prior to 4.17.21 are vulnerable to Command Injection via the template function.",
				Severity:    "HIGH",
				Score:       &score,
				References: []string{
					"https://nvd.nist.gov/vuln/detail/CVE-2021-23337",
					"https://security.snyk.io/vuln/SNYK-JS-LODASH-1040724",
				},
				PublishedDate:    "2021-02-15T13:15:00.000Z",
				LastModifiedDate: "2021-03-01T18:32:00.000Z",
			},
		},
	}
}

// HTTPProvider queries a JSON endpoint exposing GET /cwe/{id} and
// GET /cve/{id}.
type HTTPProvider struct {
	client *resty.Client
}

// NewHTTPProvider builds a provider from the enrichment config section.
func NewHTTPProvider(logger hclog.Logger, cfg *config.Enrichment) (*HTTPProvider, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("enrichment base_url is not configured")
	}
	return &HTTPProvider{client: httpclient.InitializeRestyClient(logger, cfg)}, nil
}

func (p *HTTPProvider) CWE(ctx context.Context, id string) (*CWEInfo, error) {
	var info CWEInfo
	found, err := p.get(ctx, "/cwe/{id}", id, &info)
	if err != nil || !found {
		return nil, err
	}
	return &info, nil
}

func (p *HTTPProvider) CVE(ctx context.Context, id string) (*CVEInfo, error) {
	var info CVEInfo
	found, err := p.get(ctx, "/cve/{id}", id, &info)
	if err != nil || !found {
		return nil, err
	}
	return &info, nil
}

func (p *HTTPProvider) get(ctx context.Context, path, id string, out interface{}) (bool, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(out).
		Get(path)
	if err != nil {
		return false, fmt.Errorf("failed to request %s: %w", strings.Replace(path, "{id}", id, 1), err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return false, nil
	case resp.IsError():
		return false, fmt.Errorf("unexpected status from %s: %s", resp.Request.URL, resp.Status())
	}
	return true, nil
}
