package mock

import (
	"context"

	"github.com/fwojciec/prodex"
)

var _ prodex.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a mock implementation of prodex.ConfigStore.
type ConfigStore struct {
	FindConfigFn   func(ctx context.Context, domain string) (*prodex.MultiStrategyConfig, error)
	SaveConfigFn   func(ctx context.Context, cfg *prodex.MultiStrategyConfig) error
	DeleteConfigFn func(ctx context.Context, domain string) error
	FindConfigsFn  func(ctx context.Context, filter prodex.ConfigFilter) ([]*prodex.MultiStrategyConfig, error)
}

func (s *ConfigStore) FindConfig(ctx context.Context, domain string) (*prodex.MultiStrategyConfig, error) {
	return s.FindConfigFn(ctx, domain)
}

func (s *ConfigStore) SaveConfig(ctx context.Context, cfg *prodex.MultiStrategyConfig) error {
	return s.SaveConfigFn(ctx, cfg)
}

func (s *ConfigStore) DeleteConfig(ctx context.Context, domain string) error {
	return s.DeleteConfigFn(ctx, domain)
}

func (s *ConfigStore) FindConfigs(ctx context.Context, filter prodex.ConfigFilter) ([]*prodex.MultiStrategyConfig, error) {
	return s.FindConfigsFn(ctx, filter)
}
