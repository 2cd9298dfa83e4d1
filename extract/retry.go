package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
)

// DefaultRetryDelays returns the backoff delays for load retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// LoadWithRetry loads url, retrying failed loads once per delay. Pages that
// load with an error status are returned as is; only loader errors retry,
// and EINVALID errors (a malformed URL, say) never do.
func LoadWithRetry(ctx context.Context, loader prodex.PageLoader, url string, opts prodex.LoadOptions, delays []time.Duration, logger *slog.Logger) (*prodex.PageData, error) {
	logger = loggerOr(logger)
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		page, err := loader.Load(ctx, url, opts)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt >= maxAttempts-1 || prodex.ErrorCode(err) == prodex.EINVALID {
			break
		}

		logger.Debug("retrying page load", "url", url, "attempt", attempt+2, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}
