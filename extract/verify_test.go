package extract_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	const url = "https://shop.example/products/chair"

	t.Run("narrows contributions to fields seen on both pages", func(t *testing.T) {
		t.Parallel()

		v := &extract.Verifier{
			Loader: staticLoader("<html></html>"),
			Strategies: prodex.NewStrategySet(
				fixedStrategy(prodex.StrategyStructuredMarkup, &prodex.Product{Name: "Chair", Price: 80}, 80),
				fixedStrategy(prodex.StrategyMetaTags, &prodex.Product{Description: "A chair."}, 40),
			),
		}
		contributions := []prodex.StrategyContribution{
			{Strategy: prodex.StrategyStructuredMarkup, Fields: fields(prodex.FieldName, prodex.FieldPrice, prodex.FieldBrand), Score: 85},
			{Strategy: prodex.StrategyMetaTags, Fields: fields(prodex.FieldName), Score: 45},
		}

		ver, err := v.Verify(context.Background(), contributions, url)

		require.NoError(t, err)
		assert.True(t, ver.Verified)
		require.Len(t, ver.Contributions, 1)
		assert.Equal(t, prodex.StrategyStructuredMarkup, ver.Contributions[0].Strategy)
		assert.Equal(t, fields(prodex.FieldName, prodex.FieldPrice), ver.Contributions[0].Fields)
		assert.Equal(t, 85, ver.Contributions[0].Score)
	})

	t.Run("carries the oracle contribution without calling it", func(t *testing.T) {
		t.Parallel()

		var oracleCalls atomic.Int32
		oracle := fields(prodex.FieldName, prodex.FieldDescription)
		v := &extract.Verifier{
			Loader: staticLoader("<html></html>"),
			Strategies: prodex.NewStrategySet(
				fixedStrategy(prodex.StrategyStructuredMarkup, &prodex.Product{Name: "Chair"}, 80),
				countingStrategy(prodex.StrategyOracle, &prodex.Product{Name: "Chair"}, 80, &oracleCalls),
			),
		}
		contributions := []prodex.StrategyContribution{
			{Strategy: prodex.StrategyStructuredMarkup, Fields: fields(prodex.FieldName), Score: 80},
			{Strategy: prodex.StrategyOracle, Fields: oracle, Score: 100},
		}

		ver, err := v.Verify(context.Background(), contributions, url)

		require.NoError(t, err)
		assert.Equal(t, int32(0), oracleCalls.Load())
		require.Len(t, ver.Contributions, 2)
		assert.Equal(t, prodex.StrategyOracle, ver.Contributions[1].Strategy)
		assert.Equal(t, oracle, ver.Contributions[1].Fields)
	})

	t.Run("fails verification when no strategy reproduces a field", func(t *testing.T) {
		t.Parallel()

		v := &extract.Verifier{
			Loader: staticLoader("<html></html>"),
			Strategies: prodex.NewStrategySet(
				fixedStrategy(prodex.StrategyStructuredMarkup, nil, 0),
				fixedStrategy(prodex.StrategyMetaTags, &prodex.Product{Brand: "Acme"}, 20),
			),
		}
		contributions := []prodex.StrategyContribution{
			{Strategy: prodex.StrategyStructuredMarkup, Fields: fields(prodex.FieldName, prodex.FieldPrice), Score: 85},
			{Strategy: prodex.StrategyMetaTags, Fields: fields(prodex.FieldName), Score: 45},
			{Strategy: prodex.StrategyOracle, Fields: fields(prodex.FieldName), Score: 100},
		}

		ver, err := v.Verify(context.Background(), contributions, url)

		require.NoError(t, err)
		assert.False(t, ver.Verified)
	})

	t.Run("oracle alone cannot verify", func(t *testing.T) {
		t.Parallel()

		v := &extract.Verifier{
			Loader:     staticLoader("<html></html>"),
			Strategies: prodex.NewStrategySet(),
		}
		contributions := []prodex.StrategyContribution{
			{Strategy: prodex.StrategyOracle, Fields: fields(prodex.FieldName), Score: 100},
		}

		ver, err := v.Verify(context.Background(), contributions, url)

		require.NoError(t, err)
		assert.False(t, ver.Verified)
	})
}
