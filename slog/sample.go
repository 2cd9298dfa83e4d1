package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
)

var _ prodex.SampleSource = (*LoggingSampleSource)(nil)

// LoggingSampleSource wraps a SampleSource with logging.
type LoggingSampleSource struct {
	next   prodex.SampleSource
	logger *slog.Logger
}

// NewLoggingSampleSource creates a new LoggingSampleSource.
func NewLoggingSampleSource(next prodex.SampleSource, logger *slog.Logger) *LoggingSampleSource {
	return &LoggingSampleSource{next: next, logger: logger}
}

// ProductURLs delegates to the wrapped source and logs the operation.
func (s *LoggingSampleSource) ProductURLs(ctx context.Context, baseURL string, filter *prodex.URLFilter, limit int) (urls []string, err error) {
	defer func(begin time.Time) {
		s.logger.Info("sample discovery",
			"url", baseURL,
			"limit", limit,
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ProductURLs(ctx, baseURL, filter, limit)
}
