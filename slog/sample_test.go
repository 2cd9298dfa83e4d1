package slog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/mock"
	pslog "github.com/fwojciec/prodex/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSampleSource_ProductURLs(t *testing.T) {
	t.Parallel()

	t.Run("logs count and limit", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger(t)
		inner := &mock.SampleSource{
			ProductURLsFn: func(ctx context.Context, baseURL string, filter *prodex.URLFilter, limit int) ([]string, error) {
				return []string{baseURL + "/products/a", baseURL + "/products/b"}, nil
			},
		}

		urls, err := pslog.NewLoggingSampleSource(inner, logger).ProductURLs(context.Background(), "https://shop.test", nil, 5)

		require.NoError(t, err)
		assert.Len(t, urls, 2)
		output := buf.String()
		assert.Contains(t, output, `msg="sample discovery"`)
		assert.Contains(t, output, "limit=5")
		assert.Contains(t, output, "count=2")
	})

	t.Run("logs error", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger(t)
		inner := &mock.SampleSource{
			ProductURLsFn: func(ctx context.Context, baseURL string, filter *prodex.URLFilter, limit int) ([]string, error) {
				return nil, errors.New("no sitemap")
			},
		}

		_, err := pslog.NewLoggingSampleSource(inner, logger).ProductURLs(context.Background(), "https://shop.test", nil, 0)

		require.Error(t, err)
		assert.Contains(t, buf.String(), `err="no sitemap"`)
	})
}
