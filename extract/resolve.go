package extract

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/prodex"
)

const (
	// priceTolerance is the largest price difference that still validates,
	// exclusive.
	priceTolerance = 0.02

	// floatSlack absorbs binary representation error so that a decimal
	// difference of exactly priceTolerance is rejected.
	floatSlack = 1e-9

	descriptionRatio = 0.3
	variantRatio     = 0.3
	variantSlack     = 2
)

// ResolveFieldSources picks, for every tracked field, the cheapest strategy
// whose value validates against groundTruth. The ground truth itself is a
// candidate under the oracle tag, so a field the oracle filled always has a
// source. Fields no candidate validates are left out.
func ResolveFieldSources(results []*prodex.ExtractionResult, groundTruth *prodex.Product) map[prodex.Field]prodex.StrategyTag {
	sources := make(map[prodex.Field]prodex.StrategyTag)
	if groundTruth == nil {
		return sources
	}

	type candidate struct {
		tag     prodex.StrategyTag
		product *prodex.Product
	}
	var candidates []candidate
	for _, r := range results {
		if r == nil || !r.Success || r.Product == nil {
			continue
		}
		candidates = append(candidates, candidate{tag: r.Strategy, product: r.Product})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return prodex.CostRank(candidates[i].tag) < prodex.CostRank(candidates[j].tag)
	})
	candidates = append(candidates, candidate{tag: prodex.StrategyOracle, product: groundTruth})

	for _, f := range prodex.TrackedFields {
		for _, c := range candidates {
			if c.product.Has(f) && ValidateField(f, c.product, groundTruth) {
				sources[f] = c.tag
				break
			}
		}
	}
	return sources
}

// ValidateField reports whether candidate's value for f agrees with the
// ground truth closely enough to be trusted for this domain.
func ValidateField(f prodex.Field, candidate, groundTruth *prodex.Product) bool {
	if !candidate.Has(f) {
		return false
	}
	if groundTruth == nil {
		groundTruth = &prodex.Product{}
	}

	switch f {
	case prodex.FieldPrice:
		if !groundTruth.Has(prodex.FieldPrice) {
			return true
		}
		return math.Abs(candidate.Price-groundTruth.Price) < priceTolerance-floatSlack

	case prodex.FieldCurrency:
		if !groundTruth.Has(prodex.FieldCurrency) {
			return true
		}
		return strings.EqualFold(strings.TrimSpace(candidate.Currency), strings.TrimSpace(groundTruth.Currency))

	case prodex.FieldName:
		if !groundTruth.Has(prodex.FieldName) {
			return true
		}
		c := strings.ToLower(strings.TrimSpace(candidate.Name))
		gt := strings.ToLower(strings.TrimSpace(groundTruth.Name))
		return strings.Contains(c, gt) || strings.Contains(gt, c)

	case prodex.FieldDescription:
		if !groundTruth.Has(prodex.FieldDescription) {
			return true
		}
		return float64(utf8.RuneCountInString(candidate.Description)) >= descriptionRatio*float64(utf8.RuneCountInString(groundTruth.Description))

	case prodex.FieldVariants:
		want := len(groundTruth.Variants)
		if want == 0 {
			return true
		}
		got := len(candidate.Variants)
		allowed := math.Max(variantSlack, variantRatio*float64(want))
		return got > 0 && math.Abs(float64(got-want)) <= allowed

	case prodex.FieldBrand, prodex.FieldSKU, prodex.FieldCategory:
		return true
	}
	return false
}
