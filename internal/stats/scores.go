package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
)

// RenderScoreList prints one row per practiced score: mastery status,
// session totals, a per-measure error-rate sparkline and the weakest
// measures.
func RenderScoreList(w io.Writer, aggs []*model.ScoreAggregate, weakTop int) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No practiced scores yet.")
		return err
	}
	headers := []string{"Title", "Composer", "Status", "Sessions", "Practice", "Errors", "Weak"}
	rightAlign := map[int]bool{3: true, 4: true}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		title := agg.ScoreTitle
		if title == "" {
			title = agg.ScoreID
		}
		practiceTime := time.Duration(agg.TotalPracticeTimeMs) * time.Millisecond
		rows = append(rows, []string{
			title,
			agg.Composer,
			string(agg.Status),
			fmt.Sprintf("%d", agg.TotalSessions),
			practiceTime.Round(time.Minute).String(),
			errorSparkline(agg),
			weakMeasureHint(agg, weakTop),
		})
	}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// errorSparkline renders per-measure error rates in measure order.
func errorSparkline(agg *model.ScoreAggregate) string {
	if len(agg.Measures) == 0 {
		return ""
	}
	indices := make([]int, 0, len(agg.Measures))
	for idx := range agg.Measures {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = agg.Measures[idx].ErrorRate
	}
	return Sparkline(values)
}

func weakMeasureHint(agg *model.ScoreAggregate, top int) string {
	weak := SelectWeakMeasures(agg, top)
	if len(weak) == 0 {
		return ""
	}
	indices := make([]int, 0, len(weak))
	for idx := range weak {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	labels := make([]string, len(indices))
	for i, idx := range indices {
		labels[i] = fmt.Sprintf("%d", idx+1)
	}
	return strings.Join(labels, ", ")
}
