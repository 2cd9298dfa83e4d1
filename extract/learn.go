package extract

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/fwojciec/prodex"
)

// Learner builds and stores the config for a domain from two sample
// product pages.
type Learner struct {
	Discoverer *Discoverer
	Verifier   *Verifier
	Calibrator *Calibrator
	Configs    prodex.ConfigStore
	Locks      *DomainLocks

	// Samples finds sample pages for LearnSite.
	Samples prodex.SampleSource

	Logger *slog.Logger
}

// Learn discovers strategies on discoveryURL, verifies them on
// verificationURL and stores the reduced config. An unverified config is
// returned for inspection but never stored.
func (l *Learner) Learn(ctx context.Context, discoveryURL, verificationURL string) (*prodex.MultiStrategyConfig, error) {
	logger := loggerOr(l.Logger)

	domain := prodex.DomainOf(discoveryURL)
	if domain == "" {
		return nil, prodex.Errorf(prodex.EINVALID, "invalid discovery URL %q", discoveryURL)
	}
	if other := prodex.DomainOf(verificationURL); other != domain {
		return nil, prodex.Errorf(prodex.EINVALID, "verification URL must be on %s, got %q", domain, verificationURL)
	}
	if discoveryURL == verificationURL {
		return nil, prodex.Errorf(prodex.EINVALID, "verification URL must differ from discovery URL")
	}

	unlock := l.Locks.Lock(domain)
	defer unlock()

	usage := prodex.OracleUsageFrom(ctx)
	if usage == nil {
		usage = prodex.NewOracleUsage(0)
		ctx = prodex.WithOracleUsage(ctx, usage)
	}
	logger = logger.With("domain", domain, "run", usage.RunID)

	disc, err := l.Discoverer.Discover(prodex.WithOracleUsage(ctx, usage.Child(1)), discoveryURL)
	if err != nil {
		return nil, err
	}
	logger.Info("discovery complete",
		"contributions", len(disc.Contributions),
		"field_sources", len(disc.FieldSources),
		"pattern_cached", disc.PatternCached,
	)

	ver, err := l.Verifier.Verify(ctx, disc.Contributions, verificationURL)
	if err != nil {
		return nil, err
	}

	cfg := &prodex.MultiStrategyConfig{
		Domain:          domain,
		DiscoveryURL:    discoveryURL,
		VerificationURL: verificationURL,
		SiteImages:      SharedImages(pageImages(disc.Page, disc.Results), pageImages(ver.Page, ver.Results)),
	}
	if !ver.Verified {
		cfg.Contributions = disc.Contributions
		cfg.FieldSources = disc.FieldSources
		logger.Warn("config not verified, nothing stored")
		return cfg, nil
	}

	sources := rerouteFieldSources(disc, ver.Contributions)
	if routesToOracle(sources) {
		// Discovery already tried the cache when it routed to the oracle.
		if !disc.RoutesToOracle() && l.Discoverer.Patterns != nil {
			disc.PatternCached = l.Discoverer.Patterns.TryPopulate(ctx, domain, disc.Page, disc.answer)
		}
		if !disc.PatternCached {
			logger.Info("fields rely on the oracle without a stored pattern", "fields", oracleFields(sources))
		}
	}
	cfg.Contributions = MinimalCover(ver.Contributions, sources)
	cfg.FieldSources = sources
	cfg.Verified = true

	if l.Calibrator != nil {
		cfg.Dwell = l.Calibrator.Calibrate(ctx, cfg, discoveryURL)
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := l.Configs.SaveConfig(ctx, cfg); err != nil {
		return nil, err
	}

	calls := usage.Calls()
	in, out := usage.Tokens()
	logger.Info("config stored",
		"strategies", len(cfg.ActiveStrategies()),
		"dwell", cfg.Dwell,
		"oracle_calls", calls,
		"input_tokens", in,
		"output_tokens", out,
	)
	return cfg, nil
}

// rerouteFieldSources keeps each discovery source that verification
// reproduced. A field whose source lost it moves to the cheapest strategy
// that validated it on the discovery page and reproduced it on the
// verification page. The oracle takes the field only when no such strategy
// exists, and the route is then written out explicitly.
func rerouteFieldSources(disc *Discovery, verified []prodex.StrategyContribution) map[prodex.Field]prodex.StrategyTag {
	stable := make(map[prodex.StrategyTag]prodex.FieldSet, len(verified))
	for _, c := range verified {
		stable[c.Strategy] = stable[c.Strategy].Union(c.Fields)
	}

	candidates := make([]*prodex.ExtractionResult, 0, len(disc.Results))
	for _, r := range disc.Results {
		if r != nil && r.Success && r.Product != nil && r.Strategy != prodex.StrategyOracle {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return prodex.CostRank(candidates[i].Strategy) < prodex.CostRank(candidates[j].Strategy)
	})

	out := make(map[prodex.Field]prodex.StrategyTag, len(disc.FieldSources))
	for _, f := range prodex.TrackedFields {
		tag, ok := disc.FieldSources[f]
		if !ok {
			continue
		}
		if stable[tag].Has(f) {
			out[f] = tag
			continue
		}
		for _, r := range candidates {
			if stable[r.Strategy].Has(f) && ValidateField(f, r.Product, disc.GroundTruth) {
				out[f] = r.Strategy
				break
			}
		}
		if _, ok := out[f]; !ok && stable[prodex.StrategyOracle].Has(f) {
			out[f] = prodex.StrategyOracle
		}
	}
	return out
}

func routesToOracle(sources map[prodex.Field]prodex.StrategyTag) bool {
	return len(oracleFields(sources)) > 0
}

func oracleFields(sources map[prodex.Field]prodex.StrategyTag) []prodex.Field {
	var out []prodex.Field
	for _, f := range prodex.TrackedFields {
		if sources[f] == prodex.StrategyOracle {
			out = append(out, f)
		}
	}
	return out
}

// pageImages gathers every image seen on a page, both rendered and
// extracted.
func pageImages(page *prodex.PageData, results []*prodex.ExtractionResult) []string {
	var images []string
	if page != nil {
		images = append(images, page.ImageURLs...)
	}
	for _, r := range results {
		if r != nil && r.Success && r.Product != nil {
			images = append(images, r.Product.Images...)
		}
	}
	return DedupeImages(images)
}
