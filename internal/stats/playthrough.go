package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
)

// DetectCompletion scans a session for a full playthrough: a run of
// attempts covering measures 0..totalMeasures-1 in order. Attempts are
// flattened across measure entries and walked by start time. An attempt
// on measure 0 always restarts the run, so an aborted pass does not
// block a later complete one. Returns the end time of the attempt that
// finished the last measure, and false if no full pass exists.
func DetectCompletion(s *model.PracticeSession) (time.Time, bool) {
	if s.TotalMeasures <= 0 {
		return time.Time{}, false
	}

	type timedAttempt struct {
		measure int
		rec     model.AttemptRecord
	}
	var attempts []timedAttempt
	for _, m := range s.Measures {
		for _, a := range m.Attempts {
			attempts = append(attempts, timedAttempt{measure: m.SourceMeasureIndex, rec: a})
		}
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].rec.StartedAt.Before(attempts[j].rec.StartedAt)
	})

	expected := -1
	for _, a := range attempts {
		switch {
		case a.measure == 0:
			expected = 1
		case a.measure == expected:
			expected++
		default:
			continue
		}
		if expected == s.TotalMeasures {
			return a.rec.EndedAt(), true
		}
	}
	return time.Time{}, false
}

// PlaythroughDuration returns how long the completed playthrough took,
// from the start of its measure-0 attempt to completion. Zero when the
// session was never completed or the start marker is missing.
func PlaythroughDuration(s *model.PracticeSession) time.Duration {
	if s.CompletedAt == nil || s.PlaythroughStartedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(*s.PlaythroughStartedAt)
}

// SessionSource is the slice of the store that backfilling needs.
type SessionSource interface {
	ListSessions(ctx context.Context) ([]*model.PracticeSession, error)
	PutSession(ctx context.Context, s *model.PracticeSession) error
}

// BackfillCompletions runs completion detection over every stored
// session lacking a completion marker and persists the ones that gain
// one. Sessions already carrying CompletedAt are left untouched, even
// when re-detection would disagree. Returns the number of sessions
// updated.
func BackfillCompletions(ctx context.Context, src SessionSource) (int, error) {
	sessions, err := src.ListSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	updated := 0
	for _, s := range sessions {
		if s.CompletedAt != nil {
			continue
		}
		completed, ok := DetectCompletion(s)
		if !ok {
			continue
		}
		s.CompletedAt = &completed
		if err := src.PutSession(ctx, s); err != nil {
			return updated, fmt.Errorf("failed to save session %s: %w", s.ID, err)
		}
		updated++
	}
	return updated, nil
}
