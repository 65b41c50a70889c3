package stats

import (
	"sort"

	"github.com/verte-zerg/pupitre/internal/model"
)

// SelectWeakMeasures selects the lowest-accuracy measures from a score
// aggregate, for building a focused practice loop. Measures never
// attempted do not appear in the aggregate and are not selected.
func SelectWeakMeasures(agg *model.ScoreAggregate, top int) map[int]struct{} {
	weakSet := map[int]struct{}{}
	if agg == nil || len(agg.Measures) == 0 {
		return weakSet
	}
	type candidate struct {
		index int
		ma    model.MeasureAggregate
	}
	candidates := make([]candidate, 0, len(agg.Measures))
	for idx, ma := range agg.Measures {
		candidates = append(candidates, candidate{index: idx, ma: ma})
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai := measureAccuracy(candidates[i].ma)
		aj := measureAccuracy(candidates[j].ma)
		if ai == aj {
			return candidates[i].index < candidates[j].index
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for i := 0; i < top; i++ {
		weakSet[candidates[i].index] = struct{}{}
	}
	return weakSet
}

func measureAccuracy(ma model.MeasureAggregate) float64 {
	if ma.TotalAttempts == 0 {
		return 1.0
	}
	return float64(ma.CleanAttempts) / float64(ma.TotalAttempts)
}
