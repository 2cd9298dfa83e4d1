package extract

import (
	"sort"

	"github.com/fwojciec/prodex"
)

// Merge reconciles per-strategy results into one product for url. Results
// are ranked by score, and equal scores by cost rank.
//
// With fieldSources, each tracked field comes from its designated strategy
// when that strategy produced a value, and otherwise from the highest
// scoring result that has one. Without fieldSources, the highest scoring
// product is the base and later results only fill its gaps. Images always
// come from the highest scoring result that has any.
func Merge(results []*prodex.ExtractionResult, url string, fieldSources map[prodex.Field]prodex.StrategyTag) *prodex.Product {
	var succeeded []*prodex.ExtractionResult
	for _, r := range results {
		if r != nil && r.Success && r.Product != nil {
			succeeded = append(succeeded, r)
		}
	}
	if len(succeeded) == 0 {
		return prodex.EmptyProduct(url)
	}

	sort.SliceStable(succeeded, func(i, j int) bool {
		if succeeded[i].Score != succeeded[j].Score {
			return succeeded[i].Score > succeeded[j].Score
		}
		return prodex.CostRank(succeeded[i].Strategy) < prodex.CostRank(succeeded[j].Strategy)
	})
	byStrategy := make(map[prodex.StrategyTag]*prodex.Product, len(succeeded))
	for _, r := range succeeded {
		if _, seen := byStrategy[r.Strategy]; !seen {
			byStrategy[r.Strategy] = r.Product
		}
	}
	base := succeeded[0].Product

	var merged *prodex.Product
	if len(fieldSources) > 0 {
		merged = &prodex.Product{
			RawDescription:     base.RawDescription,
			ExtractionStrategy: base.ExtractionStrategy,
		}
		for _, f := range prodex.TrackedFields {
			if tag, ok := fieldSources[f]; ok {
				if src, ok := byStrategy[tag]; ok && merged.CopyField(f, src) {
					continue
				}
			}
			for _, r := range succeeded {
				if merged.CopyField(f, r.Product) {
					break
				}
			}
		}
	} else {
		merged = base.Clone()
		for _, r := range succeeded[1:] {
			for _, f := range prodex.TrackedFields {
				if !merged.Has(f) {
					merged.CopyField(f, r.Product)
				}
			}
		}
	}

	merged.Images = nil
	for _, r := range succeeded {
		if merged.CopyField(prodex.FieldImages, r.Product) {
			break
		}
	}

	merged.URL = url
	if merged.ExtractionStrategy == "" {
		merged.ExtractionStrategy = succeeded[0].Strategy
	}
	merged.Finalize()
	return merged
}
