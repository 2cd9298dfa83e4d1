package prodex

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

// MultiStrategyConfig is the persisted per-domain decision of which
// strategies to run and which strategy is authoritative for each field.
type MultiStrategyConfig struct {
	Domain          string
	Contributions   []StrategyContribution
	Verified        bool
	DiscoveryURL    string
	VerificationURL string

	// SiteImages are images seen on more than one product page of the
	// domain, such as logos, which are never product images.
	SiteImages []string

	FieldSources map[Field]StrategyTag

	// Dwell is the calibrated post-load wait for this domain.
	Dwell time.Duration

	UpdatedAt time.Time
}

// Validate returns an error if the config contains invalid fields.
func (c *MultiStrategyConfig) Validate() error {
	if c.Domain == "" {
		return Errorf(EINVALID, "config domain required")
	}
	for _, contrib := range c.Contributions {
		if CostRank(contrib.Strategy) == 0 {
			return Errorf(EINVALID, "unknown strategy %q in contributions", contrib.Strategy)
		}
	}
	for f, tag := range c.FieldSources {
		if !f.IsTracked() {
			return Errorf(EINVALID, "untracked field %q in field sources", f)
		}
		if CostRank(tag) == 0 {
			return Errorf(EINVALID, "unknown strategy %q in field sources", tag)
		}
	}
	return nil
}

// ActiveStrategies returns the distinct strategies that contribute at least
// one field, in cost order.
func (c *MultiStrategyConfig) ActiveStrategies() []StrategyTag {
	if c == nil {
		return nil
	}
	seen := make(map[StrategyTag]bool)
	var tags []StrategyTag
	for _, contrib := range c.Contributions {
		if contrib.Fields.Len() == 0 || seen[contrib.Strategy] {
			continue
		}
		seen[contrib.Strategy] = true
		tags = append(tags, contrib.Strategy)
	}
	SortByCost(tags)
	return tags
}

// ConfigStore persists domain configs.
type ConfigStore interface {
	// FindConfig returns the config for domain. Returns ENOTFOUND when the
	// domain has no config and EINVALID when its record is corrupt; callers
	// treat both as absent.
	FindConfig(ctx context.Context, domain string) (*MultiStrategyConfig, error)

	// SaveConfig creates or replaces the config for cfg.Domain.
	SaveConfig(ctx context.Context, cfg *MultiStrategyConfig) error

	// DeleteConfig removes the config for domain.
	// Returns ENOTFOUND if there is none.
	DeleteConfig(ctx context.Context, domain string) error

	// FindConfigs returns stored configs ordered by domain. Corrupt
	// records are skipped.
	FindConfigs(ctx context.Context, filter ConfigFilter) ([]*MultiStrategyConfig, error)
}

// ConfigFilter narrows FindConfigs.
type ConfigFilter struct {
	Verified *bool

	Limit  int
	Offset int
}

// configVersion is the version written by EncodeConfig.
const configVersion = 2

// configV1 is the legacy record that named a single strategy.
type configV1 struct {
	Domain          string   `json:"domain"`
	Strategy        string   `json:"strategy"`
	Verified        bool     `json:"verified"`
	DiscoveryURL    string   `json:"discovery_url"`
	VerificationURL string   `json:"verification_url"`
	SiteImages      []string `json:"site_images"`
}

type configV2 struct {
	Version         int                    `json:"version"`
	Domain          string                 `json:"domain"`
	Contributions   []StrategyContribution `json:"contributions"`
	Verified        bool                   `json:"verified"`
	DiscoveryURL    string                 `json:"discovery_url"`
	VerificationURL string                 `json:"verification_url"`
	SiteImages      []string               `json:"site_images"`
	FieldSources    map[Field]StrategyTag  `json:"field_sources"`
	DwellMS         int64                  `json:"dwell_ms,omitempty"`
	UpdatedAt       time.Time              `json:"updated_at,omitzero"`
}

// EncodeConfig serializes cfg in the current record format.
func EncodeConfig(cfg *MultiStrategyConfig) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rec := configV2{
		Version:         configVersion,
		Domain:          cfg.Domain,
		Contributions:   cfg.Contributions,
		Verified:        cfg.Verified,
		DiscoveryURL:    cfg.DiscoveryURL,
		VerificationURL: cfg.VerificationURL,
		SiteImages:      cfg.SiteImages,
		FieldSources:    cfg.FieldSources,
		DwellMS:         cfg.Dwell.Milliseconds(),
		UpdatedAt:       cfg.UpdatedAt,
	}
	if rec.Contributions == nil {
		rec.Contributions = []StrategyContribution{}
	}
	if rec.SiteImages == nil {
		rec.SiteImages = []string{}
	}
	if rec.FieldSources == nil {
		rec.FieldSources = map[Field]StrategyTag{}
	}
	return json.Marshal(rec)
}

// DecodeConfig reads either record format. Legacy single-strategy records
// are upgraded in memory into one contribution covering every tracked
// field with score 100; nothing is written back.
func DecodeConfig(data []byte) (*MultiStrategyConfig, error) {
	var probe struct {
		Version       int             `json:"version"`
		Contributions json.RawMessage `json:"contributions"`
		Strategy      string          `json:"strategy"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, Errorf(EINVALID, "malformed config record: %s", err)
	}

	var cfg *MultiStrategyConfig
	switch {
	case probe.Version >= configVersion || hasJSONValue(probe.Contributions):
		var rec configV2
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, Errorf(EINVALID, "malformed config record: %s", err)
		}
		cfg = &MultiStrategyConfig{
			Domain:          rec.Domain,
			Contributions:   rec.Contributions,
			Verified:        rec.Verified,
			DiscoveryURL:    rec.DiscoveryURL,
			VerificationURL: rec.VerificationURL,
			SiteImages:      rec.SiteImages,
			FieldSources:    rec.FieldSources,
			Dwell:           time.Duration(rec.DwellMS) * time.Millisecond,
			UpdatedAt:       rec.UpdatedAt,
		}
	case probe.Strategy != "":
		var rec configV1
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, Errorf(EINVALID, "malformed legacy config record: %s", err)
		}
		tag, err := ParseStrategyTag(rec.Strategy)
		if err != nil {
			return nil, err
		}
		cfg = &MultiStrategyConfig{
			Domain: rec.Domain,
			Contributions: []StrategyContribution{{
				Strategy: tag,
				Fields:   NewFieldSet(TrackedFields...),
				Score:    100,
			}},
			Verified:        rec.Verified,
			DiscoveryURL:    rec.DiscoveryURL,
			VerificationURL: rec.VerificationURL,
			SiteImages:      rec.SiteImages,
		}
	default:
		return nil, Errorf(EINVALID, "unrecognized config record")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func hasJSONValue(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
