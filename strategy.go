package prodex

import (
	"context"
	"fmt"
	"sort"
)

// StrategyTag identifies an extraction strategy. The set is closed and its
// order is the cost rank used for tie-breaks throughout the engine.
type StrategyTag string

// Strategy tags in ascending cost rank.
const (
	StrategyNativeEndpoint   StrategyTag = "native_endpoint"
	StrategyStorefrontAPI    StrategyTag = "storefront_api"
	StrategyStructuredMarkup StrategyTag = "structured_markup"
	StrategyNetworkJSON      StrategyTag = "network_json"
	StrategyMetaTags         StrategyTag = "meta_tags"
	StrategySchemaDiscovery  StrategyTag = "schema_discovery"
	StrategyOracle           StrategyTag = "oracle"
)

// StrategyOrder lists every strategy tag from cheapest to most expensive.
var StrategyOrder = []StrategyTag{
	StrategyNativeEndpoint,
	StrategyStorefrontAPI,
	StrategyStructuredMarkup,
	StrategyNetworkJSON,
	StrategyMetaTags,
	StrategySchemaDiscovery,
	StrategyOracle,
}

// CostRank returns the 1-based cost rank of tag, or 0 for an unknown tag.
func CostRank(tag StrategyTag) int {
	for i, t := range StrategyOrder {
		if t == tag {
			return i + 1
		}
	}
	return 0
}

// ParseStrategyTag validates s as a strategy tag.
func ParseStrategyTag(s string) (StrategyTag, error) {
	tag := StrategyTag(s)
	if CostRank(tag) == 0 {
		return "", Errorf(EINVALID, "unknown strategy %q", s)
	}
	return tag, nil
}

// Strategy is one pluggable extraction method.
type Strategy interface {
	// Tag returns the strategy's fixed tag.
	Tag() StrategyTag

	// CanHandle is a fast, advisory pre-check. It may be wrong.
	CanHandle(url string, page *PageData) bool

	// Extract returns exactly one result. Failures are reported through
	// the result, never as a panic.
	Extract(ctx context.Context, url string, page *PageData) *ExtractionResult
}

// ExtractionResult wraps the outcome of one extraction attempt.
// A failed result never carries a product.
type ExtractionResult struct {
	URL        string      `json:"url"`
	Success    bool        `json:"success"`
	Product    *Product    `json:"product,omitempty"`
	Strategy   StrategyTag `json:"strategy"`
	Score      int         `json:"score"`
	Error      string      `json:"error,omitempty"`
	StatusCode int         `json:"status_code,omitempty"`
}

// Succeeded returns a successful result for p.
func Succeeded(tag StrategyTag, url string, p *Product, score int) *ExtractionResult {
	return &ExtractionResult{
		URL:      url,
		Success:  true,
		Product:  p,
		Strategy: tag,
		Score:    clampScore(score),
	}
}

// Failed returns a failed result with a formatted reason.
func Failed(tag StrategyTag, url string, format string, args ...any) *ExtractionResult {
	return &ExtractionResult{
		URL:      url,
		Strategy: tag,
		Error:    fmt.Sprintf(format, args...),
	}
}

// StrategyContribution records the fields a strategy supplied for a domain
// and the confidence it reported.
type StrategyContribution struct {
	Strategy StrategyTag `json:"strategy"`
	Fields   FieldSet    `json:"fields"`
	Score    int         `json:"score"`
}

// StrategySet is a closed set of strategies kept in cost order.
type StrategySet struct {
	strategies []Strategy
}

// NewStrategySet returns a set of the given strategies ordered by cost rank.
// Later duplicates of a tag replace earlier ones.
func NewStrategySet(strategies ...Strategy) *StrategySet {
	byTag := make(map[StrategyTag]Strategy, len(strategies))
	for _, s := range strategies {
		if s == nil || CostRank(s.Tag()) == 0 {
			continue
		}
		byTag[s.Tag()] = s
	}
	set := &StrategySet{}
	for _, tag := range StrategyOrder {
		if s, ok := byTag[tag]; ok {
			set.strategies = append(set.strategies, s)
		}
	}
	return set
}

// All returns the strategies in cost order.
func (s *StrategySet) All() []Strategy {
	if s == nil {
		return nil
	}
	return append([]Strategy(nil), s.strategies...)
}

// Get returns the strategy with the given tag.
func (s *StrategySet) Get(tag StrategyTag) (Strategy, bool) {
	if s == nil {
		return nil, false
	}
	for _, st := range s.strategies {
		if st.Tag() == tag {
			return st, true
		}
	}
	return nil, false
}

// Select returns the strategies whose tags are listed, in cost order.
// Unknown tags are skipped.
func (s *StrategySet) Select(tags []StrategyTag) []Strategy {
	want := make(map[StrategyTag]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	var out []Strategy
	for _, st := range s.All() {
		if want[st.Tag()] {
			out = append(out, st)
		}
	}
	return out
}

// Without returns the strategies except the one tagged tag, in cost order.
func (s *StrategySet) Without(tag StrategyTag) []Strategy {
	var out []Strategy
	for _, st := range s.All() {
		if st.Tag() != tag {
			out = append(out, st)
		}
	}
	return out
}

// SortByCost sorts tags in place by cost rank.
func SortByCost(tags []StrategyTag) {
	sort.SliceStable(tags, func(i, j int) bool {
		return CostRank(tags[i]) < CostRank(tags[j])
	})
}

var fieldWeights = map[Field]int{
	FieldName:        25,
	FieldPrice:       25,
	FieldImages:      15,
	FieldDescription: 10,
	FieldVariants:    10,
	FieldCurrency:    5,
	FieldBrand:       4,
	FieldSKU:         3,
	FieldCategory:    3,
}

// ScoreProduct scales a strategy's base reliability by the weighted share
// of fields p fills. The result is clamped to 0..100.
func ScoreProduct(base int, p *Product) int {
	if p == nil {
		return 0
	}
	filled := 0
	for f, w := range fieldWeights {
		if p.Has(f) {
			filled += w
		}
	}
	return clampScore(base * filled / 100)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
