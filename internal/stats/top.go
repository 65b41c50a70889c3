package stats

import (
	"sort"

	"github.com/verte-zerg/pupitre/internal/model"
)

// TopMeasuresByAttempts returns the N most-practiced measure indices of
// a score, most attempted first.
func TopMeasuresByAttempts(agg *model.ScoreAggregate, n int) []int {
	if n <= 0 || agg == nil || len(agg.Measures) == 0 {
		return nil
	}
	type item struct {
		index int
		total int
	}
	items := make([]item, 0, len(agg.Measures))
	for idx, ma := range agg.Measures {
		items = append(items, item{index: idx, total: ma.TotalAttempts})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].total == items[j].total {
			return items[i].index < items[j].index
		}
		return items[i].total > items[j].total
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].index)
	}
	return out
}
