package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/prodex"
)

// Compile-time interface verification.
var _ prodex.ConfigStore = (*ConfigStore)(nil)

// ConfigStore implements prodex.ConfigStore using SQLite. Each domain has
// one row holding the encoded config record.
type ConfigStore struct {
	db *DB
}

// NewConfigStore creates a new ConfigStore.
func NewConfigStore(db *DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// SaveConfig creates or replaces the config for cfg.Domain.
func (s *ConfigStore) SaveConfig(ctx context.Context, cfg *prodex.MultiStrategyConfig) error {
	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = time.Now().UTC()
	}
	record, err := prodex.EncodeConfig(cfg)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO domain_configs (domain, record, verified, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			record = excluded.record,
			verified = excluded.verified,
			updated_at = excluded.updated_at
	`, cfg.Domain, string(record), cfg.Verified, cfg.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

// FindConfig retrieves the config for domain.
func (s *ConfigStore) FindConfig(ctx context.Context, domain string) (*prodex.MultiStrategyConfig, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `
		SELECT record FROM domain_configs WHERE domain = ?
	`, domain).Scan(&record)

	if err == sql.ErrNoRows {
		return nil, prodex.Errorf(prodex.ENOTFOUND, "no config for %s", domain)
	}
	if err != nil {
		return nil, err
	}

	cfg, err := prodex.DecodeConfig([]byte(record))
	if err != nil {
		return nil, prodex.Errorf(prodex.EINVALID, "corrupt config for %s: %s", domain, prodex.ErrorMessage(err))
	}
	return cfg, nil
}

// FindConfigs retrieves configs matching the filter, ordered by domain.
func (s *ConfigStore) FindConfigs(ctx context.Context, filter prodex.ConfigFilter) ([]*prodex.MultiStrategyConfig, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT domain, record FROM domain_configs WHERE 1=1")

	if filter.Verified != nil {
		query.WriteString(" AND verified = ?")
		args = append(args, *filter.Verified)
	}

	query.WriteString(" ORDER BY domain")
	paginate(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*prodex.MultiStrategyConfig
	for rows.Next() {
		var domain, record string
		if err := rows.Scan(&domain, &record); err != nil {
			return nil, err
		}
		cfg, err := prodex.DecodeConfig([]byte(record))
		if err != nil {
			continue
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return configs, nil
}

// DeleteConfig removes the config for domain.
func (s *ConfigStore) DeleteConfig(ctx context.Context, domain string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM domain_configs WHERE domain = ?", domain)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return prodex.Errorf(prodex.ENOTFOUND, "no config for %s", domain)
	}

	return nil
}
