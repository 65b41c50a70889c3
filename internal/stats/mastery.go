package stats

import (
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
)

// Thresholds for the mastery classification.
const (
	repertoireCleanPerMeasure = 5
	repertoireMinDays         = 3
	perfectionnementClean     = 3
	perfectionnementRatio     = 0.5
)

// uniqueDays counts the calendar days spanned by the practice history,
// endpoints inclusive. A score first touched Monday and last touched
// Wednesday spans 3 days even if Tuesday was skipped.
func uniqueDays(agg *model.ScoreAggregate) int {
	if agg.FirstPlayedAt.IsZero() || agg.LastPlayedAt.IsZero() {
		return 0
	}
	firstDay := agg.FirstPlayedAt.UTC().Truncate(24 * time.Hour)
	lastDay := agg.LastPlayedAt.UTC().Truncate(24 * time.Hour)
	return int(lastDay.Sub(firstDay)/(24*time.Hour)) + 1
}

// Classify derives the mastery status from the aggregate counters.
// Repertoire requires every measure to have at least 5 clean attempts
// and the practice history to span at least 3 calendar days.
// Perfectionnement requires at least half the measures to have 3 or
// more clean attempts. Everything else is dechiffrage.
func Classify(agg *model.ScoreAggregate) model.Status {
	if len(agg.Measures) == 0 {
		return model.StatusDechiffrage
	}

	allMastered := true
	working := 0
	for _, ma := range agg.Measures {
		if ma.CleanAttempts < repertoireCleanPerMeasure {
			allMastered = false
		}
		if ma.CleanAttempts >= perfectionnementClean {
			working++
		}
	}
	if allMastered && uniqueDays(agg) >= repertoireMinDays {
		return model.StatusRepertoire
	}
	if float64(working)/float64(len(agg.Measures)) >= perfectionnementRatio {
		return model.StatusPerfectionnement
	}
	return model.StatusDechiffrage
}
