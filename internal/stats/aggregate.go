package stats

import (
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
)

// NewAggregate creates an empty aggregate for a score. Aggregates are
// created lazily on the first qualifying session and never deleted.
func NewAggregate(scoreID string) *model.ScoreAggregate {
	return &model.ScoreAggregate{
		ScoreID:  scoreID,
		Status:   model.StatusDechiffrage,
		Measures: map[int]model.MeasureAggregate{},
	}
}

// SessionBounds returns the start of the first attempt and the end of
// the last-ending attempt across all of the session's measures.
func SessionBounds(s *model.PracticeSession) (first, last time.Time, ok bool) {
	for _, m := range s.Measures {
		for _, a := range m.Attempts {
			if !ok || a.StartedAt.Before(first) {
				first = a.StartedAt
			}
			if end := a.EndedAt(); !ok || end.After(last) {
				last = end
			}
			ok = true
		}
	}
	return first, last, ok
}

// FoldSession folds one finished session into the score aggregate.
// All counters are append-only: they only grow, so for a fixed measure
// set the per-score ratios can only move toward mastery as clean
// attempts accumulate. The mastery status is recomputed at the end.
func FoldSession(agg *model.ScoreAggregate, s *model.PracticeSession) {
	if s.ScoreTitle != "" {
		agg.ScoreTitle = s.ScoreTitle
	}
	if s.Composer != "" {
		agg.Composer = s.Composer
	}

	first, last, ok := SessionBounds(s)
	if !ok {
		return
	}
	if agg.FirstPlayedAt.IsZero() || first.Before(agg.FirstPlayedAt) {
		agg.FirstPlayedAt = first
	}
	if last.After(agg.LastPlayedAt) {
		agg.LastPlayedAt = last
	}
	agg.TotalSessions++
	agg.TotalPracticeTimeMs += last.Sub(first).Milliseconds()

	if agg.Measures == nil {
		agg.Measures = map[int]model.MeasureAggregate{}
	}
	for _, m := range s.Measures {
		ma := agg.Measures[m.SourceMeasureIndex]
		for _, a := range m.Attempts {
			ma.TotalAttempts++
			if a.Clean {
				ma.CleanAttempts++
			}
			ma.TotalDurationMs += a.DurationMs
			if end := a.EndedAt(); end.After(ma.LastPlayedAt) {
				ma.LastPlayedAt = end
			}
		}
		if ma.TotalAttempts > 0 {
			ma.AvgDurationMs = float64(ma.TotalDurationMs) / float64(ma.TotalAttempts)
			ma.ErrorRate = float64(ma.TotalAttempts-ma.CleanAttempts) / float64(ma.TotalAttempts)
		}
		agg.Measures[m.SourceMeasureIndex] = ma
	}

	agg.Status = Classify(agg)
}
