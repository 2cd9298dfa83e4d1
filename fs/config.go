// Package fs provides file-based storage for domain configs and
// extraction results.
package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/prodex"
)

// Ensure ConfigStore implements prodex.ConfigStore at compile time.
var _ prodex.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps one JSON file per domain in a directory. Writes go to
// a temporary file first and are renamed into place, so readers never see
// a partial record.
type ConfigStore struct {
	dir string
}

// NewConfigStore creates a ConfigStore rooted at dir.
func NewConfigStore(dir string) *ConfigStore {
	return &ConfigStore{dir: dir}
}

// DomainFile returns the file name holding domain's config.
func DomainFile(domain string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" || d == "." || d == ".." || strings.ContainsAny(d, `/\`) {
		return "", prodex.Errorf(prodex.EINVALID, "invalid domain %q", domain)
	}
	return d + ".json", nil
}

func (s *ConfigStore) path(domain string) (string, error) {
	name, err := DomainFile(domain)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// SaveConfig atomically writes the config for cfg.Domain.
func (s *ConfigStore) SaveConfig(ctx context.Context, cfg *prodex.MultiStrategyConfig) error {
	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = time.Now().UTC()
	}
	data, err := prodex.EncodeConfig(cfg)
	if err != nil {
		return err
	}
	path, err := s.path(cfg.Domain)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// FindConfig reads the config for domain.
func (s *ConfigStore) FindConfig(ctx context.Context, domain string) (*prodex.MultiStrategyConfig, error) {
	path, err := s.path(domain)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, prodex.Errorf(prodex.ENOTFOUND, "no config for %s", domain)
	}
	if err != nil {
		return nil, err
	}

	cfg, err := prodex.DecodeConfig(data)
	if err != nil {
		return nil, prodex.Errorf(prodex.EINVALID, "corrupt config for %s: %s", domain, prodex.ErrorMessage(err))
	}
	return cfg, nil
}

// FindConfigs reads every readable config in the directory.
func (s *ConfigStore) FindConfigs(ctx context.Context, filter prodex.ConfigFilter) ([]*prodex.MultiStrategyConfig, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var configs []*prodex.MultiStrategyConfig
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		cfg, err := prodex.DecodeConfig(data)
		if err != nil {
			continue
		}
		if filter.Verified != nil && cfg.Verified != *filter.Verified {
			continue
		}
		configs = append(configs, cfg)
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Domain < configs[j].Domain
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(configs) {
			return nil, nil
		}
		configs = configs[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(configs) {
		configs = configs[:filter.Limit]
	}
	return configs, nil
}

// DeleteConfig removes the config file for domain.
func (s *ConfigStore) DeleteConfig(ctx context.Context, domain string) error {
	path, err := s.path(domain)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return prodex.Errorf(prodex.ENOTFOUND, "no config for %s", domain)
	}
	return err
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
