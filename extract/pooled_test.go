package extract_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/extract"
	"github.com/fwojciec/prodex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolOf(session prodex.PageLoader, released *atomic.Int32) *mock.SessionPool {
	return &mock.SessionPool{
		AcquireFn: func(_ context.Context) (prodex.PageLoader, error) { return session, nil },
		ReleaseFn: func(_ prodex.PageLoader) { released.Add(1) },
	}
}

func statusLoader(status int) *mock.PageLoader {
	return &mock.PageLoader{
		LoadFn: func(_ context.Context, url string, _ prodex.LoadOptions) (*prodex.PageData, error) {
			return &prodex.PageData{URL: url, HTML: "<html></html>", StatusCode: status, Loaded: true}, nil
		},
	}
}

func TestPooledExtractor_ExtractURL(t *testing.T) {
	t.Parallel()

	const url = "https://shop.example/products/boot"

	t.Run("blocked status short-circuits before strategies", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{403, 404, 410, 429, 500, 502, 503} {
			var calls, released atomic.Int32
			p := &extract.PooledExtractor{
				Pool: poolOf(statusLoader(status), &released),
				Strategies: prodex.NewStrategySet(
					countingStrategy(prodex.StrategyStructuredMarkup, &prodex.Product{Name: "Boot", Price: 90}, 80, &calls),
				),
			}

			r := p.ExtractURL(context.Background(), nil, url)

			assert.False(t, r.Success)
			assert.Equal(t, fmt.Sprintf("HTTP %d", status), r.Error)
			assert.Equal(t, status, r.StatusCode)
			assert.Equal(t, int32(0), calls.Load())
			assert.Equal(t, int32(1), released.Load())
		}
	})

	t.Run("rejects challenge pages by name", func(t *testing.T) {
		t.Parallel()

		var released atomic.Int32
		p := &extract.PooledExtractor{
			Pool: poolOf(statusLoader(200), &released),
			Strategies: prodex.NewStrategySet(
				fixedStrategy(prodex.StrategyMetaTags, &prodex.Product{Name: "Just a Moment...", Price: 1}, 40),
			),
		}

		r := p.ExtractURL(context.Background(), nil, url)

		assert.False(t, r.Success)
		assert.Equal(t, extract.ReasonNoName, r.Error)
	})

	t.Run("gallery images replace strategy images", func(t *testing.T) {
		t.Parallel()

		var released atomic.Int32
		p := &extract.PooledExtractor{
			Pool: poolOf(statusLoader(200), &released),
			Strategies: prodex.NewStrategySet(
				fixedStrategy(prodex.StrategyStructuredMarkup, &prodex.Product{
					Name:   "Boot",
					Price:  90,
					Images: []string{"https://cdn.example/og.jpg"},
				}, 80),
			),
			Gallery: &mock.GallerySelector{
				ImagesFn: func(_ context.Context, domain string, _ *prodex.PageData) ([]string, error) {
					assert.Equal(t, "shop.example", domain)
					return []string{
						"https://cdn.example/boot-1.jpg",
						"https://cdn.example/boot-2.jpg",
						"https://cdn.example/boot-1.jpg?width=200",
					}, nil
				},
			},
		}

		r := p.ExtractURL(context.Background(), nil, url)

		require.True(t, r.Success, r.Error)
		assert.Equal(t, []string{"https://cdn.example/boot-1.jpg", "https://cdn.example/boot-2.jpg"}, r.Product.Images)
	})

	t.Run("keeps strategy images when the gallery finds none", func(t *testing.T) {
		t.Parallel()

		var released atomic.Int32
		p := &extract.PooledExtractor{
			Pool: poolOf(statusLoader(200), &released),
			Strategies: prodex.NewStrategySet(
				fixedStrategy(prodex.StrategyStructuredMarkup, &prodex.Product{
					Name:   "Boot",
					Price:  90,
					Images: []string{"https://cdn.example/og.jpg"},
				}, 80),
			),
			Gallery: &mock.GallerySelector{
				ImagesFn: func(_ context.Context, _ string, _ *prodex.PageData) ([]string, error) {
					return nil, errors.New("no gallery")
				},
			},
		}

		r := p.ExtractURL(context.Background(), nil, url)

		require.True(t, r.Success, r.Error)
		assert.Equal(t, []string{"https://cdn.example/og.jpg"}, r.Product.Images)
	})

	t.Run("reports acquisition failure", func(t *testing.T) {
		t.Parallel()

		p := &extract.PooledExtractor{
			Pool: &mock.SessionPool{
				AcquireFn: func(_ context.Context) (prodex.PageLoader, error) {
					return nil, errors.New("browser crashed")
				},
			},
			Strategies: prodex.NewStrategySet(),
		}

		r := p.ExtractURL(context.Background(), nil, url)

		assert.False(t, r.Success)
		assert.Contains(t, r.Error, "browser crashed")
	})
}

func TestQualityGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		product *prodex.Product
		want    string
	}{
		{"real product", &prodex.Product{Name: "Boot", Price: 90}, ""},
		{"name and images", &prodex.Product{Name: "Boot", Images: []string{"https://cdn.example/b.jpg"}}, ""},
		{"name and long description", &prodex.Product{Name: "Boot", Description: "Waterproof leather boot."}, ""},
		{"no name", &prodex.Product{Price: 90}, extract.ReasonNoName},
		{"single character name", &prodex.Product{Name: "B", Price: 90}, extract.ReasonNoName},
		{"name only", &prodex.Product{Name: "Boot", Description: "Short."}, extract.ReasonNameOnly},
		{"placeholder with ellipsis", &prodex.Product{Name: "Just a moment…", Price: 1}, extract.ReasonNoName},
		{"placeholder in capitals", &prodex.Product{Name: "ACCESS DENIED", Price: 1}, extract.ReasonNoName},
		{"placeholder with extra spaces", &prodex.Product{Name: "  Page   not found ", Price: 1}, extract.ReasonNoName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, extract.QualityGate(tt.product))
		})
	}
}
