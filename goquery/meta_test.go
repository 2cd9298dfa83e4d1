package goquery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/goquery"
	"github.com/fwojciec/prodex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaTagStrategy_Extract(t *testing.T) {
	t.Parallel()

	t.Run("reads Open Graph and product tags", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
<title>Blue Mug | Acme Store</title>
<meta property="og:title" content="Blue Mug">
<meta property="og:description" content="  A sturdy
  mug. ">
<meta property="og:image" content="/img/mug.jpg">
<meta property="og:image" content="https://cdn.example/mug-2.jpg">
<meta property="product:price:amount" content="1.299,00">
<meta property="product:price:currency" content="EUR">
<meta property="product:brand" content="Acme">
<meta property="product:retailer_item_id" content="MUG-1">
</head></html>`
		s := goquery.NewMetaTagStrategy(nil)

		res := s.Extract(context.Background(), productURL, page(html))

		require.True(t, res.Success, res.Error)
		p := res.Product
		assert.Equal(t, prodex.StrategyMetaTags, res.Strategy)
		assert.Equal(t, "Blue Mug", p.Name)
		assert.Equal(t, "A sturdy mug.", p.Description)
		assert.InDelta(t, 1299.0, p.Price, 1e-9)
		assert.Equal(t, "EUR", p.Currency)
		assert.Equal(t, "Acme", p.Brand)
		assert.Equal(t, "MUG-1", p.SKU)
		assert.Equal(t, []string{"https://shop.example/img/mug.jpg", "https://cdn.example/mug-2.jpg"}, p.Images)
	})

	t.Run("falls back to microdata and title", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Green Mug | Acme Store</title><meta charset="utf-8"></head>
<body><div itemscope itemtype="https://schema.org/Product">
  <span itemprop="price" content="8.00">$8</span>
  <meta itemprop="priceCurrency" content="USD">
  <div itemprop="brand" itemscope><span itemprop="name">Acme</span></div>
  <img itemprop="image" src="/green.jpg">
</div></body></html>`
		s := goquery.NewMetaTagStrategy(nil)

		res := s.Extract(context.Background(), productURL, page(html))

		require.True(t, res.Success, res.Error)
		p := res.Product
		assert.Equal(t, "Green Mug", p.Name)
		assert.InDelta(t, 8.0, p.Price, 1e-9)
		assert.Equal(t, "USD", p.Currency)
		assert.Equal(t, "Acme", p.Brand)
		assert.Equal(t, []string{"https://shop.example/green.jpg"}, p.Images)
	})

	t.Run("uses main content when no description is declared", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta property="og:title" content="Mug"></head><body><article><p>Hand thrown.</p></article></body></html>`
		content := &mock.ContentExtractor{ExtractFn: func(html string) (*prodex.Content, error) {
			return &prodex.Content{HTML: "<p>Hand   thrown.</p>"}, nil
		}}
		s := goquery.NewMetaTagStrategy(content)

		res := s.Extract(context.Background(), productURL, page(html))

		require.True(t, res.Success, res.Error)
		assert.Equal(t, "Hand thrown.", res.Product.Description)
	})

	t.Run("ignores content extractor errors", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta property="og:title" content="Mug"></head></html>`
		content := &mock.ContentExtractor{ExtractFn: func(html string) (*prodex.Content, error) {
			return nil, errors.New("boom")
		}}
		s := goquery.NewMetaTagStrategy(content)

		res := s.Extract(context.Background(), productURL, page(html))

		require.True(t, res.Success, res.Error)
		assert.Empty(t, res.Product.Description)
	})

	t.Run("fails without a name", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta property="og:price:amount" content="5"></head></html>`
		s := goquery.NewMetaTagStrategy(nil)

		res := s.Extract(context.Background(), productURL, page(html))

		assert.False(t, res.Success)
		assert.Nil(t, res.Product)
	})
}
