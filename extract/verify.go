package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
)

// Verifier re-runs the contributing strategies on a second product of the
// same domain and keeps only the fields they produce on both.
type Verifier struct {
	Loader      prodex.PageLoader
	Strategies  *prodex.StrategySet
	LoadOptions prodex.LoadOptions
	RetryDelays []time.Duration
	Logger      *slog.Logger
}

// Verification is the outcome of a verification pass.
type Verification struct {
	URL     string
	Page    *prodex.PageData
	Results []*prodex.ExtractionResult

	// Contributions are the stable contributions, narrowed to the fields
	// seen on both pages, in input order.
	Contributions []prodex.StrategyContribution

	// Verified is false when no re-run strategy reproduced any field. A
	// config built from a failed verification must not be stored.
	Verified bool
}

// Verify checks contributions against url. The oracle contribution is
// carried over unchanged: it is the reference the others were validated
// against, and re-running it would spend another oracle call.
func (v *Verifier) Verify(ctx context.Context, contributions []prodex.StrategyContribution, url string) (*Verification, error) {
	seen := make(map[prodex.StrategyTag]bool)
	var tags []prodex.StrategyTag
	for _, c := range contributions {
		if c.Fields.Len() == 0 || c.Strategy == prodex.StrategyOracle || seen[c.Strategy] {
			continue
		}
		seen[c.Strategy] = true
		tags = append(tags, c.Strategy)
	}

	page, err := LoadWithRetry(ctx, v.Loader, url, v.LoadOptions, v.RetryDelays, loggerOr(v.Logger))
	if err != nil {
		return nil, fmt.Errorf("loading verification page: %w", err)
	}

	results := runStrategies(ctx, v.Strategies.Select(tags), url, page, 0)
	fresh := make(map[prodex.StrategyTag]prodex.FieldSet)
	for _, r := range results {
		if r.Success {
			fresh[r.Strategy] = r.Product.ContributedFields()
		}
	}

	ver := &Verification{URL: url, Page: page, Results: results}
	for _, c := range contributions {
		if c.Fields.Len() == 0 {
			continue
		}
		if c.Strategy == prodex.StrategyOracle {
			ver.Contributions = append(ver.Contributions, c)
			continue
		}
		stable := c.Fields.Intersect(fresh[c.Strategy])
		if stable.Len() == 0 {
			continue
		}
		ver.Contributions = append(ver.Contributions, prodex.StrategyContribution{
			Strategy: c.Strategy,
			Fields:   stable,
			Score:    c.Score,
		})
		ver.Verified = true
	}

	if !ver.Verified {
		loggerOr(v.Logger).Warn("verification failed, no strategy reproduced its fields",
			"url", url,
			"strategies", len(tags),
		)
	}
	return ver, nil
}
