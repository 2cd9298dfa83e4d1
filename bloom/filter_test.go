package bloom_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/prodex/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_Seen(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.Seen("https://shop.test/products/linen-shirt"))
	assert.True(t, f.Seen("https://shop.test/products/linen-shirt"))
	assert.False(t, f.Seen("https://shop.test/products/walnut-desk"))
}

func TestFilter_SeenNormalizesURLs(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	f.Seen("https://shop.test/products/linen-shirt")

	assert.True(t, f.Test("https://SHOP.test/products/linen-shirt/"))
	assert.True(t, f.Test("https://shop.test/products/linen-shirt#reviews"))
	assert.True(t, f.Test("https://shop.test/products/linen-shirt?utm_source=mail"))
	assert.False(t, f.Test("https://shop.test/products/linen-shirt?variant=42"))
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	assert.Equal(t, uint(0), f.EstimatedCount())

	f.Seen("https://shop.test/products/a")
	f.Seen("https://shop.test/products/b")
	f.Seen("https://shop.test/products/c")
	f.Seen("https://shop.test/products/c")

	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}

func TestFilter_FalsePositiveRate(t *testing.T) {
	t.Parallel()

	const (
		numItems   = 10000
		fpRate     = 0.01
		testProbes = 10000
	)

	f := bloom.NewFilter(numItems, fpRate)
	for i := range numItems {
		f.Seen(fmt.Sprintf("https://shop.test/products/added-%d", i))
	}

	falsePositives := 0
	for i := range testProbes {
		if f.Test(fmt.Sprintf("https://shop.test/products/missing-%d", i)) {
			falsePositives++
		}
	}

	actualRate := float64(falsePositives) / float64(testProbes)
	assert.Less(t, actualRate, 0.02, "false positive rate %f exceeds 2%%", actualRate)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://Shop.Test/products/a/", "https://shop.test/products/a"},
		{"https://shop.test/", "https://shop.test/"},
		{"https://shop.test/p/1?utm_campaign=x&size=m", "https://shop.test/p/1?size=m"},
		{"https://shop.test/p/1?gclid=abc", "https://shop.test/p/1"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, bloom.Normalize(tt.in))
		})
	}
}
