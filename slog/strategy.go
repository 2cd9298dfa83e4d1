package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
)

var _ prodex.Strategy = (*LoggingStrategy)(nil)

// LoggingStrategy wraps a Strategy with logging of every extraction.
type LoggingStrategy struct {
	next   prodex.Strategy
	logger *slog.Logger
}

// NewLoggingStrategy creates a new LoggingStrategy.
func NewLoggingStrategy(next prodex.Strategy, logger *slog.Logger) *LoggingStrategy {
	return &LoggingStrategy{next: next, logger: logger}
}

// WrapStrategies wraps each strategy with a LoggingStrategy.
func WrapStrategies(logger *slog.Logger, strategies ...prodex.Strategy) []prodex.Strategy {
	out := make([]prodex.Strategy, len(strategies))
	for i, s := range strategies {
		out[i] = NewLoggingStrategy(s, logger)
	}
	return out
}

func (s *LoggingStrategy) Tag() prodex.StrategyTag {
	return s.next.Tag()
}

func (s *LoggingStrategy) CanHandle(url string, page *prodex.PageData) bool {
	return s.next.CanHandle(url, page)
}

// Extract delegates to the wrapped strategy and logs the outcome. Failed
// attempts are logged at debug level since most strategies fail on most
// sites.
func (s *LoggingStrategy) Extract(ctx context.Context, url string, page *prodex.PageData) (res *prodex.ExtractionResult) {
	defer func(begin time.Time) {
		if res == nil || !res.Success {
			var reason string
			if res != nil {
				reason = res.Error
			}
			s.logger.Debug("extract",
				"strategy", s.next.Tag(),
				"url", url,
				"success", false,
				"reason", reason,
				"duration", time.Since(begin),
			)
			return
		}
		s.logger.Info("extract",
			"strategy", s.next.Tag(),
			"url", url,
			"success", true,
			"score", res.Score,
			"fields", res.Product.ContributedFields().Len(),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return s.next.Extract(ctx, url, page)
}
