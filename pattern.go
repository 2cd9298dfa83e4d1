package prodex

import (
	"context"
	"time"
)

// Selector locates one value in a page. An empty Attr means the element's
// text; otherwise the named attribute is read.
type Selector struct {
	CSS  string `json:"css"`
	Attr string `json:"attr,omitempty"`
}

// Pattern is a per-domain set of selectors learned from an oracle answer.
// Applying it reproduces the oracle's extraction without calling it.
type Pattern struct {
	ID        string             `json:"id"`
	Domain    string             `json:"domain"`
	Selectors map[Field]Selector `json:"selectors"`
	CreatedAt time.Time          `json:"created_at"`
}

// Validate returns an error if the pattern cannot be stored.
func (p *Pattern) Validate() error {
	if p.Domain == "" {
		return Errorf(EINVALID, "pattern domain required")
	}
	if len(p.Selectors) == 0 {
		return Errorf(EINVALID, "pattern has no selectors")
	}
	return nil
}

// PatternStore persists patterns by domain.
type PatternStore interface {
	// FindPattern returns ENOTFOUND when the domain has no pattern.
	FindPattern(ctx context.Context, domain string) (*Pattern, error)

	// SavePattern creates or replaces the domain's pattern.
	SavePattern(ctx context.Context, p *Pattern) error
}

// PatternApplier runs a pattern against page markup.
type PatternApplier interface {
	// Validate returns an error if any selector cannot be compiled.
	Validate(p *Pattern) error

	// Apply extracts a raw, unfinalized product from html.
	Apply(p *Pattern, url, html string) (*Product, error)
}

// PatternCache is a write-through cache of oracle patterns whose
// population may fail. Both outcomes are valid.
type PatternCache interface {
	TryPopulate(ctx context.Context, domain string, page *PageData, gt *GroundTruth) bool
}
