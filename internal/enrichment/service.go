package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/scan-io-git/sariflens/internal/sarif"
)

const defaultConcurrency = 4

// Service resolves rules to enrichment records and caches the results per
// rule id and help URI. Failed lookups are logged and not cached.
type Service struct {
	provider Provider
	logger   hclog.Logger
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]*Enrichment
}

func NewService(provider Provider, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{
		provider: provider,
		logger:   logger,
		now:      time.Now,
		cache:    make(map[string]*Enrichment),
	}
}

func cacheKey(ruleID, helpURI string) string {
	return ruleID + "|" + helpURI
}

// EnrichRule returns the enrichment for rule, or nil when the lookup failed.
func (s *Service) EnrichRule(ctx context.Context, rule *sarif.Rule) *Enrichment {
	if rule == nil {
		return nil
	}
	key := cacheKey(rule.ID, rule.HelpURI)

	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return cached
	}

	enrichment := &Enrichment{EnrichedAt: s.now().UTC()}
	if id := ExtractCWE(rule.Properties, rule.HelpURI); id != "" {
		info, err := s.provider.CWE(ctx, id)
		if err != nil {
			s.logger.Warn("failed to enrich rule", "rule_id", rule.ID, "cwe", id, "error", err)
			return nil
		}
		enrichment.CWE = info
	}
	if id := ExtractCVE(rule.Properties, rule.HelpURI); id != "" {
		info, err := s.provider.CVE(ctx, id)
		if err != nil {
			s.logger.Warn("failed to enrich rule", "rule_id", rule.ID, "cve", id, "error", err)
			return nil
		}
		enrichment.CVE = info
	}

	s.mu.Lock()
	if existing, ok := s.cache[key]; ok {
		enrichment = existing
	} else {
		s.cache[key] = enrichment
	}
	s.mu.Unlock()
	return enrichment
}

// EnrichAll enriches every rule, a few at a time. Rules whose lookup failed
// map to nil.
func (s *Service) EnrichAll(ctx context.Context, rules []*sarif.Rule) map[string]*Enrichment {
	results := make([]*Enrichment, len(rules))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultConcurrency)
	for i, rule := range rules {
		i, rule := i, rule
		g.Go(func() error {
			results[i] = s.EnrichRule(ctx, rule)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*Enrichment, len(rules))
	for i, rule := range rules {
		if rule == nil {
			continue
		}
		if _, seen := out[rule.ID]; seen {
			continue
		}
		out[rule.ID] = results[i]
	}
	return out
}

// CacheLen returns the number of cached enrichments.
func (s *Service) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}
