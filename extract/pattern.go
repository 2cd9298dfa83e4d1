package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
	"github.com/google/uuid"
)

// Base reliabilities of the pattern-driven strategies.
const (
	patternBaseScore = 75
	oracleBaseScore  = 80
)

var _ prodex.Strategy = (*PatternStrategy)(nil)

// PatternStrategy applies the domain's stored oracle pattern. It never
// calls the oracle itself.
type PatternStrategy struct {
	Patterns prodex.PatternStore
	Applier  prodex.PatternApplier
}

// Tag returns prodex.StrategySchemaDiscovery.
func (s *PatternStrategy) Tag() prodex.StrategyTag {
	return prodex.StrategySchemaDiscovery
}

// CanHandle reports whether there is markup to apply a pattern to.
func (s *PatternStrategy) CanHandle(url string, page *prodex.PageData) bool {
	return page != nil && page.HTML != ""
}

// Extract applies the stored pattern for the URL's domain.
func (s *PatternStrategy) Extract(ctx context.Context, url string, page *prodex.PageData) *prodex.ExtractionResult {
	tag := s.Tag()
	if page == nil || page.HTML == "" {
		return prodex.Failed(tag, url, "no HTML")
	}
	product, err := applyStoredPattern(ctx, s.Patterns, s.Applier, url, page)
	if err != nil {
		return prodex.Failed(tag, url, "%s", prodex.ErrorMessage(err))
	}
	product.ExtractionStrategy = tag
	return prodex.Succeeded(tag, url, product, prodex.ScoreProduct(patternBaseScore, product))
}

var _ prodex.Strategy = (*OracleStrategy)(nil)

// OracleStrategy is the most expensive fallback. It prefers the stored
// pattern and calls the oracle live only when there is none or it no
// longer matches; a live answer is offered to Cache for next time.
type OracleStrategy struct {
	Oracle   prodex.Oracle
	Patterns prodex.PatternStore
	Applier  prodex.PatternApplier
	Cache    prodex.PatternCache
	Logger   *slog.Logger
}

// Tag returns prodex.StrategyOracle.
func (s *OracleStrategy) Tag() prodex.StrategyTag {
	return prodex.StrategyOracle
}

// CanHandle always returns true.
func (s *OracleStrategy) CanHandle(url string, page *prodex.PageData) bool {
	return true
}

// Extract returns the pattern result when possible, otherwise the oracle's.
func (s *OracleStrategy) Extract(ctx context.Context, url string, page *prodex.PageData) *prodex.ExtractionResult {
	tag := s.Tag()
	if page != nil && page.HTML != "" && s.Patterns != nil && s.Applier != nil {
		if product, err := applyStoredPattern(ctx, s.Patterns, s.Applier, url, page); err == nil {
			product.ExtractionStrategy = tag
			return prodex.Succeeded(tag, url, product, prodex.ScoreProduct(oracleBaseScore, product))
		}
	}

	if s.Oracle == nil {
		return prodex.Failed(tag, url, "no oracle configured")
	}
	loggerOr(s.Logger).Warn("calling oracle live", "url", url)

	gt, err := s.Oracle.GroundTruth(ctx, url, page)
	if err != nil {
		return prodex.Failed(tag, url, "oracle: %v", err)
	}
	if gt == nil || gt.Product == nil {
		return prodex.Failed(tag, url, "oracle returned no product")
	}
	if s.Cache != nil && page != nil {
		s.Cache.TryPopulate(ctx, prodex.DomainOf(url), page, gt)
	}

	product := gt.Product.Clone()
	product.URL = url
	product.ExtractionStrategy = tag
	return prodex.Succeeded(tag, url, product, prodex.ScoreProduct(oracleBaseScore, product))
}

// applyStoredPattern loads the domain pattern and applies it. It returns
// ENOTFOUND when there is no pattern and EINVALID when the pattern finds
// neither a name nor a price.
func applyStoredPattern(ctx context.Context, store prodex.PatternStore, applier prodex.PatternApplier, url string, page *prodex.PageData) (*prodex.Product, error) {
	domain := prodex.DomainOf(url)
	pattern, err := store.FindPattern(ctx, domain)
	if err != nil {
		return nil, err
	}
	product, err := applier.Apply(pattern, url, page.HTML)
	if err != nil {
		return nil, err
	}
	if !product.Has(prodex.FieldName) && !product.Has(prodex.FieldPrice) {
		return nil, prodex.Errorf(prodex.EINVALID, "pattern for %s matched nothing", domain)
	}
	product.URL = url
	return product, nil
}

var _ prodex.PatternCache = (*PatternCache)(nil)

// PatternCache stores oracle patterns that reproduce the oracle's answer
// on the page they came from. Selectors whose output disagrees with the
// ground truth are dropped before storing.
type PatternCache struct {
	Patterns prodex.PatternStore
	Applier  prodex.PatternApplier
	Logger   *slog.Logger
}

// TryPopulate reports whether a pattern was stored for domain.
func (c *PatternCache) TryPopulate(ctx context.Context, domain string, page *prodex.PageData, gt *prodex.GroundTruth) bool {
	logger := loggerOr(c.Logger)
	if gt == nil || gt.Pattern == nil || gt.Product == nil || page == nil || page.HTML == "" {
		return false
	}

	pattern := &prodex.Pattern{
		ID:        uuid.New().String(),
		Domain:    domain,
		Selectors: make(map[prodex.Field]prodex.Selector, len(gt.Pattern.Selectors)),
		CreatedAt: time.Now().UTC(),
	}
	for f, sel := range gt.Pattern.Selectors {
		pattern.Selectors[f] = sel
	}
	if err := c.Applier.Validate(pattern); err != nil {
		logger.Debug("oracle pattern rejected", "domain", domain, "err", err)
		return false
	}

	product, err := c.Applier.Apply(pattern, page.URL, page.HTML)
	if err != nil {
		logger.Debug("oracle pattern failed to apply", "domain", domain, "err", err)
		return false
	}
	for f := range pattern.Selectors {
		if f == prodex.FieldImages {
			if !product.Has(prodex.FieldImages) {
				delete(pattern.Selectors, f)
			}
			continue
		}
		if !ValidateField(f, product, gt.Product) {
			delete(pattern.Selectors, f)
		}
	}
	if _, ok := pattern.Selectors[prodex.FieldName]; !ok {
		logger.Debug("oracle pattern does not reproduce the name", "domain", domain)
		return false
	}

	if err := c.Patterns.SavePattern(ctx, pattern); err != nil {
		logger.Warn("storing oracle pattern", "domain", domain, "err", err)
		return false
	}
	return true
}
