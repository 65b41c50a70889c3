package stats

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
	"github.com/verte-zerg/pupitre/internal/store"
)

// ReportConfig controls which slice of the practice history a report
// covers and how its curves are smoothed.
type ReportConfig struct {
	ScoreID string
	// Last limits the report to the N most recent sessions, 0 for all.
	Last int
	// CurveWindow is the moving-average window for session curves.
	CurveWindow int
	// WeakTop is how many weak measures to call out.
	WeakTop int
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Aggregate *model.ScoreAggregate
	Sessions  []*model.PracticeSession
}

// BuildReport loads and prepares practice data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg ReportConfig) (Report, error) {
	agg, err := st.GetAggregate(ctx, cfg.ScoreID)
	if err != nil {
		return Report{}, err
	}
	sessions, err := st.ListSessionsByScore(ctx, cfg.ScoreID)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return Report{Aggregate: agg, Sessions: sessions}, nil
}

// RenderReport prints the full report: summary, per-measure table,
// session curves and the weak-measure callout.
func RenderReport(w io.Writer, r Report, cfg ReportConfig, totalWidth, height int, useColor bool) error {
	if err := RenderSummary(w, r.Aggregate, r.Sessions); err != nil {
		return err
	}
	if err := RenderMeasureTable(w, r.Aggregate); err != nil {
		return err
	}
	if err := RenderSessionCurves(w, r.Sessions, cfg.CurveWindow, totalWidth, height, useColor); err != nil {
		return err
	}
	return RenderWeakMeasures(w, r.Aggregate, cfg.WeakTop)
}

// RenderSummary prints the score-level summary block.
func RenderSummary(w io.Writer, agg *model.ScoreAggregate, sessions []*model.PracticeSession) error {
	if agg == nil {
		_, err := fmt.Fprintln(w, "No practice history found.")
		return err
	}
	title := agg.ScoreTitle
	if title == "" {
		title = agg.ScoreID
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if agg.Composer != "" {
		if _, err := fmt.Fprintf(w, "Score: %s (%s)\n", title, agg.Composer); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "Score: %s\n", title); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Status: %s\n", agg.Status); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", agg.TotalSessions); err != nil {
		return err
	}
	practiceTime := time.Duration(agg.TotalPracticeTimeMs) * time.Millisecond
	if _, err := fmt.Fprintf(w, "Practice time: %s\n", practiceTime.Round(time.Second)); err != nil {
		return err
	}
	if !agg.LastPlayedAt.IsZero() {
		if _, err := fmt.Fprintf(w, "Last played: %s\n", agg.LastPlayedAt.Local().Format("2006-01-02 15:04")); err != nil {
			return err
		}
	}

	completed := 0
	best := time.Duration(0)
	for _, s := range sessions {
		if s.CompletedAt == nil {
			continue
		}
		completed++
		if d := PlaythroughDuration(s); d > 0 && (best == 0 || d < best) {
			best = d
		}
	}
	if _, err := fmt.Fprintf(w, "Playthroughs: %d\n", completed); err != nil {
		return err
	}
	if best > 0 {
		if _, err := fmt.Fprintf(w, "Best playthrough: %s\n", best.Round(time.Second)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderMeasureTable prints per-measure aggregates, hardest first.
func RenderMeasureTable(w io.Writer, agg *model.ScoreAggregate) error {
	if agg == nil || len(agg.Measures) == 0 {
		return nil
	}
	type row struct {
		index int
		ma    model.MeasureAggregate
	}
	rows := make([]row, 0, len(agg.Measures))
	for idx, ma := range agg.Measures {
		rows = append(rows, row{index: idx, ma: ma})
	}
	sort.Slice(rows, func(i, j int) bool {
		ai := measureAccuracy(rows[i].ma)
		aj := measureAccuracy(rows[j].ma)
		if ai == aj {
			return rows[i].index < rows[j].index
		}
		return ai < aj
	})

	if _, err := fmt.Fprintln(w, "Per-Measure"); err != nil {
		return err
	}
	headers := []string{"Measure", "Clean", "Attempts", "Error Rate", "Avg Duration (ms)"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			fmt.Sprintf("%d", r.index+1),
			fmt.Sprintf("%d", r.ma.CleanAttempts),
			fmt.Sprintf("%d", r.ma.TotalAttempts),
			fmt.Sprintf("%.2f%%", r.ma.ErrorRate*100),
			fmt.Sprintf("%.1f", r.ma.AvgDurationMs),
		})
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSessionCurves prints the clean-rate learning curve across
// sessions, smoothed by the moving-average window.
func RenderSessionCurves(w io.Writer, sessions []*model.PracticeSession, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	cleanRates := make([]float64, len(sessions))
	for i, s := range sessions {
		cleanRates[i] = SessionCleanRate(s) * 100
	}
	cleanRates = MovingAverage(cleanRates, window)

	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Learning Curve", []Series{
		{Name: "Clean rate", Values: cleanRates},
	}, width, height, useColor)
}

// RenderWeakMeasures prints the measures most in need of work.
func RenderWeakMeasures(w io.Writer, agg *model.ScoreAggregate, top int) error {
	if agg == nil || len(agg.Measures) == 0 || top <= 0 {
		return nil
	}
	weak := SelectWeakMeasures(agg, top)
	indices := make([]int, 0, len(weak))
	for idx := range weak {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	labels := make([]string, len(indices))
	for i, idx := range indices {
		labels[i] = fmt.Sprintf("%d", idx+1)
	}
	_, err := fmt.Fprintf(w, "Weak measures: %s\n", strings.Join(labels, ", "))
	return err
}
