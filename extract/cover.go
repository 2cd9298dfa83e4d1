package extract

import (
	"sort"

	"github.com/fwojciec/prodex"
)

// MinimalCover reduces contributions to a small strategy set that still
// covers every field they cover together.
//
// When fieldSources is non-empty the set is derived from it: one
// contribution per referenced strategy holding exactly the fields routed
// to it. Input fields that no source covers are then assigned greedily so
// nothing is lost, trying every other strategy before the oracle. Without
// field sources the cover is greedy by score, which approximates weighted
// set cover and is not guaranteed optimal.
func MinimalCover(contributions []prodex.StrategyContribution, fieldSources map[prodex.Field]prodex.StrategyTag) []prodex.StrategyContribution {
	if len(fieldSources) == 0 {
		return greedyCover(contributions, prodex.NewFieldSet())
	}

	byTag := make(map[prodex.StrategyTag]prodex.FieldSet)
	for f, tag := range fieldSources {
		if byTag[tag] == nil {
			byTag[tag] = prodex.NewFieldSet()
		}
		byTag[tag].Add(f)
	}

	var out []prodex.StrategyContribution
	covered := prodex.NewFieldSet()
	for _, tag := range prodex.StrategyOrder {
		fields, ok := byTag[tag]
		if !ok {
			continue
		}
		out = append(out, prodex.StrategyContribution{
			Strategy: tag,
			Fields:   fields,
			Score:    scoreOf(contributions, tag),
		})
		covered = covered.Union(fields)
	}

	var cheap, oracle []prodex.StrategyContribution
	for _, c := range contributions {
		if c.Strategy == prodex.StrategyOracle {
			oracle = append(oracle, c)
		} else {
			cheap = append(cheap, c)
		}
	}
	extras := greedyCover(cheap, covered)
	covered = covered.Union(unionFields(extras))
	extras = append(extras, greedyCover(oracle, covered)...)

	for _, extra := range extras {
		merged := false
		for i := range out {
			if out[i].Strategy == extra.Strategy {
				out[i].Fields = out[i].Fields.Union(extra.Fields)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, extra)
		}
	}
	return out
}

// greedyCover keeps, in score order, each contribution that adds a field
// not yet in covered, restricted to the fields it adds.
func greedyCover(contributions []prodex.StrategyContribution, covered prodex.FieldSet) []prodex.StrategyContribution {
	sorted := append([]prodex.StrategyContribution(nil), contributions...)
	sortContributions(sorted)

	var out []prodex.StrategyContribution
	for _, c := range sorted {
		delta := c.Fields.Minus(covered)
		if delta.Len() == 0 {
			continue
		}
		out = append(out, prodex.StrategyContribution{
			Strategy: c.Strategy,
			Fields:   delta,
			Score:    c.Score,
		})
		covered = covered.Union(delta)
	}
	return out
}

func unionFields(cs []prodex.StrategyContribution) prodex.FieldSet {
	out := prodex.NewFieldSet()
	for _, c := range cs {
		out = out.Union(c.Fields)
	}
	return out
}

func scoreOf(contributions []prodex.StrategyContribution, tag prodex.StrategyTag) int {
	for _, c := range contributions {
		if c.Strategy == tag {
			return c.Score
		}
	}
	if tag == prodex.StrategyOracle {
		return 100
	}
	return 0
}

// sortContributions orders by score, highest first, breaking ties by cost
// rank.
func sortContributions(cs []prodex.StrategyContribution) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Score != cs[j].Score {
			return cs[i].Score > cs[j].Score
		}
		return prodex.CostRank(cs[i].Strategy) < prodex.CostRank(cs[j].Strategy)
	})
}
