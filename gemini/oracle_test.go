package gemini_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/gemini"
	"github.com/fwojciec/prodex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const productURL = "https://shop.example/products/mug"

func TestOracle_GroundTruth_RequiresMarkup(t *testing.T) {
	t.Parallel()

	oracle := gemini.NewOracle(nil, nil) // nil client ok for this test

	_, err := oracle.GroundTruth(context.Background(), productURL, &prodex.PageData{URL: productURL})

	require.Error(t, err)
	assert.Equal(t, prodex.EINVALID, prodex.ErrorCode(err))
}

func TestOracle_GroundTruth_StopsWhenBudgetExhausted(t *testing.T) {
	t.Parallel()

	usage := prodex.NewOracleUsage(1)
	require.NoError(t, usage.Reserve())
	ctx := prodex.WithOracleUsage(context.Background(), usage)
	oracle := gemini.NewOracle(nil, nil)

	_, err := oracle.GroundTruth(ctx, productURL, &prodex.PageData{URL: productURL, HTML: "<h1>Mug</h1>"})

	require.Error(t, err)
	assert.Equal(t, prodex.EUNAVAILABLE, prodex.ErrorCode(err))
	assert.Equal(t, 1, usage.Calls())
}

func TestOracle_GroundTruth_PropagatesTokenCounterError(t *testing.T) {
	t.Parallel()

	counter := &mock.TokenCounter{CountTokensFn: func(context.Context, string) (int, error) {
		return 0, prodex.Errorf(prodex.EINTERNAL, "tokenizer down")
	}}
	usage := prodex.NewOracleUsage(0)
	ctx := prodex.WithOracleUsage(context.Background(), usage)
	oracle := gemini.NewOracle(nil, counter)

	_, err := oracle.GroundTruth(ctx, productURL, &prodex.PageData{URL: productURL, HTML: "<h1>Mug</h1>"})

	require.Error(t, err)
	assert.Equal(t, 0, usage.Calls())
}

func TestBuildConfig_RequestsJSON(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig()

	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "application/json", config.ResponseMIMEType)
	require.NotNil(t, config.ResponseSchema)
	assert.Equal(t, genai.TypeObject, config.ResponseSchema.Type)
	assert.ElementsMatch(t, []string{"product", "selectors"}, config.ResponseSchema.Required)
	product := config.ResponseSchema.Properties["product"]
	require.NotNil(t, product)
	assert.Contains(t, product.Properties, "variants")
	selectors := config.ResponseSchema.Properties["selectors"]
	require.NotNil(t, selectors)
	assert.Contains(t, selectors.Properties, "images")
	require.NotNil(t, config.Temperature)
	assert.Zero(t, *config.Temperature)
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildPrompt(productURL, "<h1>Mug</h1>")

	assert.Contains(t, prompt, "<url>"+productURL+"</url>")
	assert.Contains(t, prompt, "<page>\n<h1>Mug</h1>\n</page>")
}

func TestCleanHTML(t *testing.T) {
	t.Parallel()

	raw := `<html><head>
<style>.x{color:red}</style>
<script>window.tracking = true;</script>
<script type="application/ld+json">{"@type":"Product"}</script>
<meta property="og:title" content="Mug">
<meta name="viewport" content="width=device-width">
</head><body>
<!-- banner -->
<h1 class="title" style="color:red" onclick="x()">Mug</h1>
<img data-src="/a.jpg" width="100">
</body></html>`

	got, err := gemini.CleanHTML(raw)

	require.NoError(t, err)
	assert.NotContains(t, got, "tracking")
	assert.NotContains(t, got, "color:red")
	assert.NotContains(t, got, "viewport")
	assert.NotContains(t, got, "banner")
	assert.NotContains(t, got, "onclick")
	assert.NotContains(t, got, "width=")
	assert.Contains(t, got, `{"@type":"Product"}`)
	assert.Contains(t, got, `<meta property="og:title" content="Mug"/>`)
	assert.Contains(t, got, `<h1 class="title">Mug</h1>`)
	assert.Contains(t, got, `data-src="/a.jpg"`)
	assert.False(t, strings.Contains(got, "\n\n"))
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	t.Run("builds product and pattern", func(t *testing.T) {
		t.Parallel()

		text := "```json\n" + `{
  "product": {"name":" Blue Mug ","price":12.5,"currency":"eur","description":"A mug.","images":["https://cdn.example/a.jpg",""],
              "variants":[{"size":"S","price":12.5,"available":true},{"size":"L","price":0}]},
  "selectors": {"name":{"css":"h1.title"},"price":{"css":".price","attr":"data-amount"},"sku":{"css":"  "}}
}` + "\n```"

		gt, err := gemini.ParseResponse(productURL, text)

		require.NoError(t, err)
		p := gt.Product
		assert.Equal(t, "Blue Mug", p.Name)
		assert.InDelta(t, 12.5, p.Price, 1e-9)
		assert.Equal(t, "EUR", p.Currency)
		assert.Equal(t, []string{"https://cdn.example/a.jpg"}, p.Images)
		assert.Equal(t, prodex.StrategyOracle, p.ExtractionStrategy)
		assert.Equal(t, productURL, p.URL)
		require.Len(t, p.Variants, 2)
		require.NotNil(t, p.Variants[0].Price)
		assert.Nil(t, p.Variants[1].Price)

		require.NotNil(t, gt.Pattern)
		assert.Equal(t, "shop.example", gt.Pattern.Domain)
		assert.Equal(t, map[prodex.Field]prodex.Selector{
			prodex.FieldName:  {CSS: "h1.title"},
			prodex.FieldPrice: {CSS: ".price", Attr: "data-amount"},
		}, gt.Pattern.Selectors)
	})

	t.Run("pattern is nil without selectors", func(t *testing.T) {
		t.Parallel()

		gt, err := gemini.ParseResponse(productURL, `{"product":{"name":"Mug","price":3},"selectors":{}}`)

		require.NoError(t, err)
		assert.Nil(t, gt.Pattern)
	})

	t.Run("reports pages without a product", func(t *testing.T) {
		t.Parallel()

		_, err := gemini.ParseResponse(productURL, `{"product":{"name":"","price":0},"selectors":{}}`)

		assert.Equal(t, prodex.ENOTFOUND, prodex.ErrorCode(err))
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		_, err := gemini.ParseResponse(productURL, `{"product":`)

		assert.Equal(t, prodex.EINVALID, prodex.ErrorCode(err))
	})
}
