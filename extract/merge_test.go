package extract_test

import (
	"testing"

	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	t.Parallel()

	const url = "https://shop.example/products/a"

	t.Run("returns sentinel product when nothing succeeded", func(t *testing.T) {
		t.Parallel()

		results := []*prodex.ExtractionResult{
			prodex.Failed(prodex.StrategyStructuredMarkup, url, "no JSON-LD"),
		}

		p := extract.Merge(results, url, nil)

		require.NotNil(t, p)
		assert.Empty(t, p.Name)
		assert.Zero(t, p.Price)
		assert.Equal(t, "USD", p.Currency)
		assert.Equal(t, url, p.URL)
		assert.Equal(t, prodex.MissingFields{
			Name: true, Price: true, Currency: true,
			Images: true, Description: true, Variants: true,
		}, p.MissingFields)
		assert.NotNil(t, p.Images)
		assert.NotNil(t, p.Variants)
	})

	t.Run("field sources take precedence over score", func(t *testing.T) {
		t.Parallel()

		results := []*prodex.ExtractionResult{
			success(prodex.StrategyStructuredMarkup, &prodex.Product{Name: "Markup Name", Price: 10, Currency: "EUR"}, 90),
			success(prodex.StrategyMetaTags, &prodex.Product{Name: "Meta Name", Price: 12}, 50),
		}
		sources := map[prodex.Field]prodex.StrategyTag{
			prodex.FieldPrice: prodex.StrategyMetaTags,
		}

		p := extract.Merge(results, url, sources)

		assert.Equal(t, "Markup Name", p.Name)
		assert.InDelta(t, 12.0, p.Price, 0.001)
		assert.Equal(t, "EUR", p.Currency)
		assert.False(t, p.MissingFields.Currency)
		assert.Equal(t, prodex.StrategyStructuredMarkup, p.ExtractionStrategy)
	})

	t.Run("falls back by score when the designated source has no value", func(t *testing.T) {
		t.Parallel()

		results := []*prodex.ExtractionResult{
			success(prodex.StrategyMetaTags, &prodex.Product{Name: "Low"}, 40),
			success(prodex.StrategyNetworkJSON, &prodex.Product{Name: "High", Brand: "Acme"}, 70),
			success(prodex.StrategyStructuredMarkup, &prodex.Product{Price: 5}, 60),
		}
		sources := map[prodex.Field]prodex.StrategyTag{
			prodex.FieldBrand: prodex.StrategyStructuredMarkup,
			prodex.FieldName:  prodex.StrategyNativeEndpoint,
		}

		p := extract.Merge(results, url, sources)

		assert.Equal(t, "High", p.Name)
		assert.Equal(t, "Acme", p.Brand)
		assert.InDelta(t, 5.0, p.Price, 0.001)
	})

	t.Run("legacy mode fills gaps without overwriting the base", func(t *testing.T) {
		t.Parallel()

		results := []*prodex.ExtractionResult{
			success(prodex.StrategyMetaTags, &prodex.Product{Name: "Other", Description: "from meta tags"}, 30),
			success(prodex.StrategyStructuredMarkup, &prodex.Product{Name: "Base", Price: 20, RawDescription: "<p>raw</p>"}, 80),
		}

		p := extract.Merge(results, url, nil)

		assert.Equal(t, "Base", p.Name)
		assert.Equal(t, "from meta tags", p.Description)
		assert.Equal(t, "<p>raw</p>", p.RawDescription)
		assert.Equal(t, prodex.StrategyStructuredMarkup, p.ExtractionStrategy)
		assert.True(t, p.MissingFields.Currency)
		assert.Equal(t, "USD", p.Currency)
	})

	t.Run("images come from the best scoring result that has any", func(t *testing.T) {
		t.Parallel()

		results := []*prodex.ExtractionResult{
			success(prodex.StrategyStructuredMarkup, &prodex.Product{Name: "A"}, 90),
			success(prodex.StrategyMetaTags, &prodex.Product{Images: []string{"https://cdn.example/og.jpg"}}, 40),
			success(prodex.StrategyNetworkJSON, &prodex.Product{Images: []string{"https://cdn.example/1.jpg", "https://cdn.example/2.jpg"}}, 60),
		}
		sources := map[prodex.Field]prodex.StrategyTag{prodex.FieldName: prodex.StrategyStructuredMarkup}

		p := extract.Merge(results, url, sources)

		assert.Equal(t, []string{"https://cdn.example/1.jpg", "https://cdn.example/2.jpg"}, p.Images)
		assert.False(t, p.MissingFields.Images)
	})

	t.Run("does not mutate strategy products", func(t *testing.T) {
		t.Parallel()

		original := &prodex.Product{Name: "Base", Images: []string{"https://cdn.example/1.jpg"}}
		r := success(prodex.StrategyStructuredMarkup, original, 80)

		p := extract.Merge([]*prodex.ExtractionResult{r}, url, nil)
		p.Images[0] = "changed"
		p.Name = "changed"

		assert.Equal(t, "Base", r.Product.Name)
		assert.Equal(t, "https://cdn.example/1.jpg", r.Product.Images[0])
	})
}

func TestMerge_EqualScoresPreferCheaperStrategy(t *testing.T) {
	t.Parallel()

	const url = "https://shop.example/products/a"
	results := []*prodex.ExtractionResult{
		success(prodex.StrategyMetaTags, &prodex.Product{Name: "Meta Name"}, 50),
		success(prodex.StrategyStructuredMarkup, &prodex.Product{Name: "Markup Name", Images: []string{"https://cdn.example/a.jpg"}}, 50),
	}

	t.Run("without field sources", func(t *testing.T) {
		t.Parallel()

		p := extract.Merge(results, url, nil)

		assert.Equal(t, "Markup Name", p.Name)
		assert.Equal(t, prodex.StrategyStructuredMarkup, p.ExtractionStrategy)
	})

	t.Run("in the field source fallback", func(t *testing.T) {
		t.Parallel()

		p := extract.Merge(results, url, map[prodex.Field]prodex.StrategyTag{
			prodex.FieldName: prodex.StrategyNetworkJSON,
		})

		assert.Equal(t, "Markup Name", p.Name)
	})
}

func TestContributions_EqualScoresPreferCheaperStrategy(t *testing.T) {
	t.Parallel()

	out := extract.Contributions([]*prodex.ExtractionResult{
		success(prodex.StrategyMetaTags, &prodex.Product{Name: "Meta Name"}, 50),
		success(prodex.StrategyNativeEndpoint, &prodex.Product{Name: "Native Name"}, 50),
	})

	require.Len(t, out, 2)
	assert.Equal(t, prodex.StrategyNativeEndpoint, out[0].Strategy)
	assert.Equal(t, prodex.StrategyMetaTags, out[1].Strategy)
}
