package extract_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/extract"
	"github.com/fwojciec/prodex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearner_Learn(t *testing.T) {
	t.Parallel()

	const (
		first  = "https://shop.example/products/chair"
		second = "https://shop.example/products/table"
	)

	newLearner := func(strategies *prodex.StrategySet, gt *prodex.Product, store prodex.ConfigStore) *extract.Learner {
		loader := &mock.PageLoader{
			LoadFn: func(_ context.Context, url string, _ prodex.LoadOptions) (*prodex.PageData, error) {
				images := []string{"https://shop.example/logo.png", url + ".jpg"}
				return &prodex.PageData{URL: url, HTML: "<html></html>", ImageURLs: images, StatusCode: 200, Loaded: true}, nil
			},
		}
		return &extract.Learner{
			Discoverer: &extract.Discoverer{
				Loader:     loader,
				Strategies: strategies,
				Oracle: &mock.Oracle{
					GroundTruthFn: func(ctx context.Context, _ string, _ *prodex.PageData) (*prodex.GroundTruth, error) {
						if err := prodex.OracleUsageFrom(ctx).Reserve(); err != nil {
							return nil, err
						}
						return &prodex.GroundTruth{Product: gt}, nil
					},
				},
			},
			Verifier:   &extract.Verifier{Loader: loader, Strategies: strategies},
			Calibrator: &extract.Calibrator{Loader: loader, Strategies: strategies, Steps: []time.Duration{0}},
			Configs:    store,
			Locks:      &extract.DomainLocks{},
		}
	}

	t.Run("stores a verified minimal config", func(t *testing.T) {
		t.Parallel()

		strategies := prodex.NewStrategySet(
			fixedStrategy(prodex.StrategyStructuredMarkup, &prodex.Product{Name: "Chair", Price: 80, Currency: "USD"}, 85),
			fixedStrategy(prodex.StrategyMetaTags, &prodex.Product{Name: "Chair"}, 40),
		)
		gt := &prodex.Product{Name: "Chair", Price: 80, Currency: "USD"}

		var saved *prodex.MultiStrategyConfig
		store := &mock.ConfigStore{
			SaveConfigFn: func(_ context.Context, cfg *prodex.MultiStrategyConfig) error {
				saved = cfg
				return nil
			},
		}

		cfg, err := newLearner(strategies, gt, store).Learn(context.Background(), first, second)

		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Same(t, cfg, saved)
		assert.True(t, cfg.Verified)
		assert.Equal(t, "shop.example", cfg.Domain)
		assert.Equal(t, []prodex.StrategyTag{prodex.StrategyStructuredMarkup}, cfg.ActiveStrategies())
		assert.Equal(t, map[prodex.Field]prodex.StrategyTag{
			prodex.FieldName:     prodex.StrategyStructuredMarkup,
			prodex.FieldPrice:    prodex.StrategyStructuredMarkup,
			prodex.FieldCurrency: prodex.StrategyStructuredMarkup,
		}, cfg.FieldSources)
		assert.Equal(t, []string{"https://shop.example/logo.png"}, cfg.SiteImages)
		assert.False(t, cfg.UpdatedAt.IsZero())
		require.NoError(t, cfg.Validate())
		requireOracleRouted(t, cfg)
	})

	t.Run("moves a field lost on the verification page to a cheaper strategy that kept it", func(t *testing.T) {
		t.Parallel()

		var oracleCalls atomic.Int32
		strategies := prodex.NewStrategySet(
			pageStrategy(prodex.StrategyStructuredMarkup, map[string]*prodex.Product{
				first:  {Name: "Chair", Price: 80},
				second: {Name: "Table"},
			}, 85),
			fixedStrategy(prodex.StrategyMetaTags, &prodex.Product{Name: "Chair", Price: 80}, 40),
			countingStrategy(prodex.StrategyOracle, &prodex.Product{Name: "Chair", Price: 80}, 80, &oracleCalls),
		)
		store := &mock.ConfigStore{
			SaveConfigFn: func(_ context.Context, _ *prodex.MultiStrategyConfig) error { return nil },
		}

		cfg, err := newLearner(strategies, &prodex.Product{Name: "Chair", Price: 80}, store).Learn(context.Background(), first, second)

		require.NoError(t, err)
		require.True(t, cfg.Verified)
		assert.Equal(t, map[prodex.Field]prodex.StrategyTag{
			prodex.FieldName:  prodex.StrategyStructuredMarkup,
			prodex.FieldPrice: prodex.StrategyMetaTags,
		}, cfg.FieldSources)
		assert.Equal(t, []prodex.StrategyTag{prodex.StrategyStructuredMarkup, prodex.StrategyMetaTags}, cfg.ActiveStrategies())
		requireOracleRouted(t, cfg)

		e := &extract.Extractor{Loader: staticLoader("<html></html>"), Strategies: strategies}
		for _, url := range []string{first, second, "https://shop.example/products/lamp"} {
			r := e.ExtractURL(context.Background(), cfg, url)
			require.True(t, r.Success, r.Error)
		}
		assert.Equal(t, int32(0), oracleCalls.Load())
	})

	t.Run("routes a field only the oracle covers and tries to cache its pattern", func(t *testing.T) {
		t.Parallel()

		strategies := prodex.NewStrategySet(
			pageStrategy(prodex.StrategyStructuredMarkup, map[string]*prodex.Product{
				first:  {Name: "Chair", Price: 80},
				second: {Name: "Table"},
			}, 85),
		)
		store := &mock.ConfigStore{
			SaveConfigFn: func(_ context.Context, _ *prodex.MultiStrategyConfig) error { return nil },
		}

		var populated atomic.Int32
		l := newLearner(strategies, &prodex.Product{Name: "Chair", Price: 80}, store)
		l.Discoverer.Patterns = &mock.PatternCache{
			TryPopulateFn: func(_ context.Context, domain string, page *prodex.PageData, gt *prodex.GroundTruth) bool {
				populated.Add(1)
				assert.Equal(t, "shop.example", domain)
				assert.Equal(t, first, page.URL)
				assert.InDelta(t, 80.0, gt.Product.Price, 0.001)
				return true
			},
		}

		cfg, err := l.Learn(context.Background(), first, second)

		require.NoError(t, err)
		require.True(t, cfg.Verified)
		assert.Equal(t, map[prodex.Field]prodex.StrategyTag{
			prodex.FieldName:  prodex.StrategyStructuredMarkup,
			prodex.FieldPrice: prodex.StrategyOracle,
		}, cfg.FieldSources)
		assert.Equal(t, []prodex.StrategyTag{prodex.StrategyStructuredMarkup, prodex.StrategyOracle}, cfg.ActiveStrategies())
		requireOracleRouted(t, cfg)
		assert.Equal(t, int32(1), populated.Load())
	})

	t.Run("returns but does not store an unverified config", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		flaky := &mock.Strategy{
			TagFn:       func() prodex.StrategyTag { return prodex.StrategyStructuredMarkup },
			CanHandleFn: func(_ string, _ *prodex.PageData) bool { return true },
			ExtractFn: func(_ context.Context, url string, _ *prodex.PageData) *prodex.ExtractionResult {
				if calls.Add(1) > 1 {
					return prodex.Failed(prodex.StrategyStructuredMarkup, url, "no JSON-LD")
				}
				return prodex.Succeeded(prodex.StrategyStructuredMarkup, url, &prodex.Product{Name: "Chair", Price: 80}, 85)
			},
		}
		store := &mock.ConfigStore{
			SaveConfigFn: func(_ context.Context, _ *prodex.MultiStrategyConfig) error {
				t.Error("unverified config must not be saved")
				return nil
			},
		}

		cfg, err := newLearner(prodex.NewStrategySet(flaky), &prodex.Product{Name: "Chair", Price: 80}, store).Learn(context.Background(), first, second)

		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.False(t, cfg.Verified)
		assert.NotEmpty(t, cfg.Contributions)
	})

	t.Run("rejects URLs on different domains", func(t *testing.T) {
		t.Parallel()

		l := newLearner(prodex.NewStrategySet(), &prodex.Product{}, &mock.ConfigStore{})

		_, err := l.Learn(context.Background(), first, "https://other.example/products/table")

		assert.Equal(t, prodex.EINVALID, prodex.ErrorCode(err))
	})

	t.Run("rejects identical URLs", func(t *testing.T) {
		t.Parallel()

		l := newLearner(prodex.NewStrategySet(), &prodex.Product{}, &mock.ConfigStore{})

		_, err := l.Learn(context.Background(), first, first)

		assert.Equal(t, prodex.EINVALID, prodex.ErrorCode(err))
	})

	t.Run("spends at most one oracle call", func(t *testing.T) {
		t.Parallel()

		usage := prodex.NewOracleUsage(0)
		ctx := prodex.WithOracleUsage(context.Background(), usage)
		strategies := prodex.NewStrategySet(
			fixedStrategy(prodex.StrategyStructuredMarkup, &prodex.Product{Name: "Chair", Price: 80}, 85),
		)
		store := &mock.ConfigStore{
			SaveConfigFn: func(_ context.Context, _ *prodex.MultiStrategyConfig) error { return nil },
		}

		_, err := newLearner(strategies, &prodex.Product{Name: "Chair", Price: 80}, store).Learn(ctx, first, second)

		require.NoError(t, err)
		assert.Equal(t, 1, usage.Calls())
	})
}
