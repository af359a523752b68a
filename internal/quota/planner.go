// Package quota turns a batch size and a category weight table into exact
// per-pattern post counts.
package quota

import (
	"math"
	"sort"

	"github.com/hyperengineering/voices/internal/catalog"
	"github.com/hyperengineering/voices/internal/types"
)

// Plan allocates total posts across the patterns of a weight table.
//
// Each pattern first receives round(total*weight). The difference between
// total and the sum of those ideals is then handed out one unit at a time in
// descending weight order (ties keep catalog order). The returned counts always
// sum to total; patterns with a zero count are omitted and the rest are in
// catalog order.
func Plan(weights map[types.PatternType]float64, total int) []types.PatternQuota {
	if total < 0 {
		total = 0
	}

	counts, sum := ideals(weights, total)

	order := append([]types.PatternType(nil), types.AllPatterns...)
	sort.SliceStable(order, func(i, j int) bool {
		return weights[order[i]] > weights[order[j]]
	})

	remainder := total - sum
	for remainder != 0 {
		progressed := false
		for _, p := range order {
			if remainder == 0 {
				break
			}
			switch {
			case remainder > 0:
				counts[p]++
				remainder--
				progressed = true
			case counts[p] > 0:
				counts[p]--
				remainder++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	var quotas []types.PatternQuota
	for _, p := range types.AllPatterns {
		if counts[p] > 0 {
			quotas = append(quotas, types.PatternQuota{Pattern: p, Count: counts[p]})
		}
	}
	return quotas
}

// ideals returns round(total*weight) per pattern, clamped at zero, and their sum.
func ideals(weights map[types.PatternType]float64, total int) (map[types.PatternType]int, int) {
	counts := make(map[types.PatternType]int, len(types.AllPatterns))
	sum := 0
	for _, p := range types.AllPatterns {
		ideal := int(math.Round(float64(total) * weights[p]))
		if ideal < 0 {
			ideal = 0
		}
		counts[p] = ideal
		sum += ideal
	}
	return counts, sum
}

// ForCategory plans a batch for a catalog category.
func ForCategory(c *catalog.Catalog, category types.TopicCategory, total int) ([]types.PatternQuota, error) {
	plan, err := c.Plan(category)
	if err != nil {
		return nil, err
	}
	return Plan(plan.Weights, total), nil
}

// Total sums the counts of a quota list.
func Total(quotas []types.PatternQuota) int {
	n := 0
	for _, q := range quotas {
		n += q.Count
	}
	return n
}
