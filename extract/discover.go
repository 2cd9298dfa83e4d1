package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
)

// Discoverer runs every cheap strategy on one sample page, asks the oracle
// once for the ground truth, and works out which strategy to trust for
// each field.
type Discoverer struct {
	Loader      prodex.PageLoader
	Strategies  *prodex.StrategySet
	Oracle      prodex.Oracle
	Patterns    prodex.PatternCache
	LoadOptions prodex.LoadOptions
	RetryDelays []time.Duration
	Logger      *slog.Logger
}

// Discovery is the outcome of one discovery pass.
type Discovery struct {
	URL    string
	Domain string
	Page   *prodex.PageData

	// Results holds one result per strategy run, in cost order.
	Results []*prodex.ExtractionResult

	// Contributions are sorted by score, highest first. When the oracle
	// answered, its contribution comes last.
	Contributions []prodex.StrategyContribution

	GroundTruth  *prodex.Product
	FieldSources map[prodex.Field]prodex.StrategyTag

	// PatternCached reports whether an oracle pattern was stored for the
	// domain during this pass.
	PatternCached bool

	answer *prodex.GroundTruth
}

// RoutesToOracle reports whether any field is sourced from the oracle.
func (d *Discovery) RoutesToOracle() bool {
	for _, tag := range d.FieldSources {
		if tag == prodex.StrategyOracle {
			return true
		}
	}
	return false
}

// Discover runs a discovery pass on url. It fails only when the page
// cannot be loaded; an oracle failure leaves the discovery without ground
// truth or field sources.
func (d *Discoverer) Discover(ctx context.Context, url string) (*Discovery, error) {
	logger := loggerOr(d.Logger)

	page, err := LoadWithRetry(ctx, d.Loader, url, d.LoadOptions, d.RetryDelays, logger)
	if err != nil {
		return nil, fmt.Errorf("loading discovery page: %w", err)
	}

	results := runStrategies(ctx, d.Strategies.Without(prodex.StrategyOracle), url, page, 0)

	disc := &Discovery{
		URL:           url,
		Domain:        prodex.DomainOf(url),
		Page:          page,
		Results:       results,
		Contributions: Contributions(results),
		FieldSources:  map[prodex.Field]prodex.StrategyTag{},
	}

	gt, err := d.groundTruth(ctx, url, page)
	if err != nil {
		logger.Warn("oracle unavailable, discovery continues without ground truth",
			"url", url,
			"err", err,
		)
		return disc, nil
	}

	disc.GroundTruth = gt.Product
	disc.answer = gt
	disc.Contributions = append(disc.Contributions, prodex.StrategyContribution{
		Strategy: prodex.StrategyOracle,
		Fields:   gt.Product.ContributedFields(),
		Score:    100,
	})
	disc.FieldSources = ResolveFieldSources(results, gt.Product)

	if disc.RoutesToOracle() && d.Patterns != nil {
		disc.PatternCached = d.Patterns.TryPopulate(ctx, disc.Domain, page, gt)
		if !disc.PatternCached {
			logger.Info("no reusable pattern, oracle may be called again for this domain",
				"domain", disc.Domain,
			)
		}
	}

	return disc, nil
}

func (d *Discoverer) groundTruth(ctx context.Context, url string, page *prodex.PageData) (*prodex.GroundTruth, error) {
	if d.Oracle == nil {
		return nil, prodex.Errorf(prodex.ENOTIMPLEMENTED, "no oracle configured")
	}
	gt, err := d.Oracle.GroundTruth(ctx, url, page)
	if err != nil {
		return nil, err
	}
	if gt == nil || gt.Product == nil {
		return nil, prodex.Errorf(prodex.EINTERNAL, "oracle returned no product")
	}
	return gt, nil
}
