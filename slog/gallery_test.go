package slog_test

import (
	"context"
	"testing"

	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/mock"
	pslog "github.com/fwojciec/prodex/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingGallerySelector_Images(t *testing.T) {
	t.Parallel()

	gallery := &mock.GallerySelector{
		ImagesFn: func(ctx context.Context, domain string, page *prodex.PageData) ([]string, error) {
			return []string{"https://cdn.test/1.jpg", "https://cdn.test/2.jpg"}, nil
		},
	}

	t.Run("logs detected platform", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger(t)
		detector := &mock.PlatformDetector{
			DetectFn: func(html string) prodex.Platform { return prodex.PlatformShopify },
		}

		images, err := pslog.NewLoggingGallerySelector(gallery, detector, logger).
			Images(context.Background(), "shop.test", &prodex.PageData{HTML: "<html></html>"})

		require.NoError(t, err)
		assert.Len(t, images, 2)
		output := buf.String()
		assert.Contains(t, output, "platform=shopify")
		assert.Contains(t, output, "images=2")
	})

	t.Run("logs unknown platform", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger(t)
		detector := &mock.PlatformDetector{
			DetectFn: func(html string) prodex.Platform { return prodex.PlatformUnknown },
		}

		_, err := pslog.NewLoggingGallerySelector(gallery, detector, logger).
			Images(context.Background(), "shop.test", &prodex.PageData{})

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "platform=(unknown)")
	})
}
