package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
)

var _ prodex.Oracle = (*LoggingOracle)(nil)

// LoggingOracle wraps an Oracle with logging of each call and the running
// usage totals for the call's run.
type LoggingOracle struct {
	next   prodex.Oracle
	logger *slog.Logger
}

// NewLoggingOracle creates a new LoggingOracle.
func NewLoggingOracle(next prodex.Oracle, logger *slog.Logger) *LoggingOracle {
	return &LoggingOracle{next: next, logger: logger}
}

func (o *LoggingOracle) GroundTruth(ctx context.Context, url string, page *prodex.PageData) (gt *prodex.GroundTruth, err error) {
	defer func(begin time.Time) {
		usage := prodex.OracleUsageFrom(ctx)
		input, output := usage.Tokens()
		attrs := []any{
			"url", url,
			"calls", usage.Calls(),
			"input_tokens", input,
			"output_tokens", output,
			"duration", time.Since(begin),
		}
		if usage != nil {
			attrs = append(attrs, "run", usage.RunID)
		}
		if gt != nil {
			attrs = append(attrs, "pattern", gt.Pattern != nil)
		}
		if err != nil {
			if prodex.ErrorCode(err) == prodex.EUNAVAILABLE {
				o.logger.Warn("oracle", append(attrs, "err", err)...)
				return
			}
			attrs = append(attrs, "err", err)
		}
		o.logger.Info("oracle", attrs...)
	}(time.Now())
	return o.next.GroundTruth(ctx, url, page)
}
