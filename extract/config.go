package extract

import (
	"context"
	"log/slog"

	"github.com/fwojciec/prodex"
)

// LoadConfig returns the stored config for domain, or nil when there is
// none or it cannot be read. A missing config means the domain runs the
// full strategy set, so read failures are never fatal.
func LoadConfig(ctx context.Context, store prodex.ConfigStore, domain string, logger *slog.Logger) *prodex.MultiStrategyConfig {
	if store == nil {
		return nil
	}
	cfg, err := store.FindConfig(ctx, domain)
	if err != nil {
		if prodex.ErrorCode(err) != prodex.ENOTFOUND {
			loggerOr(logger).Warn("config unreadable, using full strategy set",
				"domain", domain,
				"err", err,
			)
		}
		return nil
	}
	return cfg
}
