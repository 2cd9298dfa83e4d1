package prodex_test

import (
	"testing"
	"time"

	"github.com/fwojciec/prodex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfig(t *testing.T) {
	t.Parallel()

	t.Run("reads current records", func(t *testing.T) {
		t.Parallel()

		data := []byte(`{
			"version": 2,
			"domain": "shop.example",
			"contributions": [
				{"strategy": "structured_markup", "fields": ["name", "price"], "score": 80},
				{"strategy": "meta_tags", "fields": ["description"], "score": 40}
			],
			"verified": true,
			"discovery_url": "https://shop.example/products/a",
			"verification_url": "https://shop.example/products/b",
			"site_images": ["https://shop.example/logo.png"],
			"field_sources": {"name": "structured_markup", "price": "structured_markup", "description": "meta_tags"},
			"dwell_ms": 1500
		}`)

		cfg, err := prodex.DecodeConfig(data)
		require.NoError(t, err)

		assert.Equal(t, "shop.example", cfg.Domain)
		assert.True(t, cfg.Verified)
		require.Len(t, cfg.Contributions, 2)
		assert.True(t, cfg.Contributions[0].Fields.Has(prodex.FieldPrice))
		assert.Equal(t, prodex.StrategyMetaTags, cfg.FieldSources[prodex.FieldDescription])
		assert.Equal(t, 1500*time.Millisecond, cfg.Dwell)
		assert.Equal(t, []string{"https://shop.example/logo.png"}, cfg.SiteImages)
	})

	t.Run("upgrades legacy single-strategy records", func(t *testing.T) {
		t.Parallel()

		data := []byte(`{
			"domain": "old.example",
			"strategy": "native_endpoint",
			"verified": true,
			"discovery_url": "https://old.example/products/a",
			"verification_url": "https://old.example/products/b"
		}`)

		cfg, err := prodex.DecodeConfig(data)
		require.NoError(t, err)

		require.Len(t, cfg.Contributions, 1)
		c := cfg.Contributions[0]
		assert.Equal(t, prodex.StrategyNativeEndpoint, c.Strategy)
		assert.Equal(t, 100, c.Score)
		assert.Equal(t, prodex.TrackedFields, c.Fields.Sorted())
		assert.Empty(t, cfg.FieldSources)
		assert.Equal(t, []prodex.StrategyTag{prodex.StrategyNativeEndpoint}, cfg.ActiveStrategies())
	})

	t.Run("rejects corrupt records", func(t *testing.T) {
		t.Parallel()

		for _, data := range []string{
			`{not json`,
			`{"domain": "x.example"}`,
			`{"domain": "x.example", "strategy": "telepathy"}`,
			`{"version": 2, "domain": "", "contributions": []}`,
			`{"version": 2, "domain": "x.example", "contributions": [{"strategy": "nope", "fields": ["name"]}]}`,
		} {
			_, err := prodex.DecodeConfig([]byte(data))
			require.Error(t, err, data)
			assert.Equal(t, prodex.EINVALID, prodex.ErrorCode(err), data)
		}
	})
}

func TestEncodeConfig_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := &prodex.MultiStrategyConfig{
		Domain: "shop.example",
		Contributions: []prodex.StrategyContribution{
			{Strategy: prodex.StrategyNetworkJSON, Fields: prodex.NewFieldSet(prodex.FieldName, prodex.FieldVariants), Score: 66},
		},
		Verified:     true,
		FieldSources: map[prodex.Field]prodex.StrategyTag{prodex.FieldName: prodex.StrategyNetworkJSON},
		Dwell:        2 * time.Second,
	}

	data, err := prodex.EncodeConfig(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":2`)
	assert.Contains(t, string(data), `"fields":["name","variants"]`)

	got, err := prodex.DecodeConfig(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.Domain, got.Domain)
	assert.Equal(t, cfg.Dwell, got.Dwell)
	assert.Equal(t, cfg.FieldSources, got.FieldSources)
	assert.Equal(t, cfg.Contributions[0].Fields.Sorted(), got.Contributions[0].Fields.Sorted())
}

func TestMultiStrategyConfig_ActiveStrategies(t *testing.T) {
	t.Parallel()

	cfg := &prodex.MultiStrategyConfig{
		Domain: "shop.example",
		Contributions: []prodex.StrategyContribution{
			{Strategy: prodex.StrategyOracle, Fields: prodex.NewFieldSet(prodex.FieldBrand)},
			{Strategy: prodex.StrategyMetaTags, Fields: prodex.NewFieldSet()},
			{Strategy: prodex.StrategyStructuredMarkup, Fields: prodex.NewFieldSet(prodex.FieldName)},
			{Strategy: prodex.StrategyStructuredMarkup, Fields: prodex.NewFieldSet(prodex.FieldPrice)},
		},
	}

	assert.Equal(t, []prodex.StrategyTag{
		prodex.StrategyStructuredMarkup,
		prodex.StrategyOracle,
	}, cfg.ActiveStrategies())

	var nilCfg *prodex.MultiStrategyConfig
	assert.Nil(t, nilCfg.ActiveStrategies())
}
