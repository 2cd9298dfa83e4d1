package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
)

var _ prodex.ConfigStore = (*LoggingConfigStore)(nil)

// LoggingConfigStore wraps a ConfigStore with debug logging. Misses are
// routine and are not reported as errors.
type LoggingConfigStore struct {
	next   prodex.ConfigStore
	logger *slog.Logger
}

// NewLoggingConfigStore creates a new LoggingConfigStore.
func NewLoggingConfigStore(next prodex.ConfigStore, logger *slog.Logger) *LoggingConfigStore {
	return &LoggingConfigStore{next: next, logger: logger}
}

func (s *LoggingConfigStore) FindConfig(ctx context.Context, domain string) (cfg *prodex.MultiStrategyConfig, err error) {
	defer func(begin time.Time) {
		switch prodex.ErrorCode(err) {
		case "":
			if cfg == nil {
				return
			}
			s.logger.Debug("find config",
				"domain", domain,
				"strategies", len(cfg.ActiveStrategies()),
				"verified", cfg.Verified,
				"duration", time.Since(begin),
			)
		case prodex.ENOTFOUND:
			s.logger.Debug("find config", "domain", domain, "found", false, "duration", time.Since(begin))
		default:
			s.logger.Warn("find config", "domain", domain, "duration", time.Since(begin), "err", err)
		}
	}(time.Now())
	return s.next.FindConfig(ctx, domain)
}

func (s *LoggingConfigStore) SaveConfig(ctx context.Context, cfg *prodex.MultiStrategyConfig) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("save config",
			"domain", cfg.Domain,
			"strategies", cfg.ActiveStrategies(),
			"verified", cfg.Verified,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.SaveConfig(ctx, cfg)
}

func (s *LoggingConfigStore) DeleteConfig(ctx context.Context, domain string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("delete config",
			"domain", domain,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteConfig(ctx, domain)
}

func (s *LoggingConfigStore) FindConfigs(ctx context.Context, filter prodex.ConfigFilter) (cfgs []*prodex.MultiStrategyConfig, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find configs",
			"count", len(cfgs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindConfigs(ctx, filter)
}
