package stats

import (
	"context"
	"testing"
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
)

func sessionWithAttempts(totalMeasures int, order []int) *model.PracticeSession {
	base := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	s := &model.PracticeSession{ID: "s1", ScoreID: "score-1", TotalMeasures: totalMeasures}
	for i, measure := range order {
		entry := s.MeasureFor(measure)
		entry.Attempts = append(entry.Attempts, model.AttemptRecord{
			StartedAt:  base.Add(time.Duration(i) * 10 * time.Second),
			DurationMs: 5000,
			Clean:      true,
		})
	}
	return s
}

func TestDetectCompletionInOrder(t *testing.T) {
	s := sessionWithAttempts(3, []int{0, 1, 2})
	doneAt, ok := DetectCompletion(s)
	if !ok {
		t.Fatalf("expected completion")
	}
	want := s.MeasureFor(2).Attempts[0].EndedAt()
	if !doneAt.Equal(want) {
		t.Fatalf("expected completion at %v, got %v", want, doneAt)
	}
}

func TestDetectCompletionOutOfOrder(t *testing.T) {
	s := sessionWithAttempts(3, []int{0, 2, 1})
	if _, ok := DetectCompletion(s); ok {
		t.Fatalf("out-of-order attempts should not complete")
	}
}

func TestDetectCompletionRestart(t *testing.T) {
	// An aborted first pass then a full one.
	s := sessionWithAttempts(3, []int{0, 1, 0, 1, 2})
	doneAt, ok := DetectCompletion(s)
	if !ok {
		t.Fatalf("expected completion after restart")
	}
	want := s.MeasureFor(2).Attempts[0].EndedAt()
	if !doneAt.Equal(want) {
		t.Fatalf("expected completion at %v, got %v", want, doneAt)
	}
}

func TestDetectCompletionRepeatedMeasuresTolerated(t *testing.T) {
	// Drilling a measure mid-pass does not break the run.
	s := sessionWithAttempts(3, []int{0, 1, 1, 1, 2})
	if _, ok := DetectCompletion(s); !ok {
		t.Fatalf("expected completion despite repeated measure")
	}
}

func TestDetectCompletionNoTotal(t *testing.T) {
	s := sessionWithAttempts(0, []int{0, 1, 2})
	if _, ok := DetectCompletion(s); ok {
		t.Fatalf("unknown measure count should never complete")
	}
}

func TestDetectCompletionSingleMeasure(t *testing.T) {
	s := sessionWithAttempts(1, []int{0})
	if _, ok := DetectCompletion(s); !ok {
		t.Fatalf("single-measure score should complete on measure 0")
	}
}

func TestPlaythroughDuration(t *testing.T) {
	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	done := start.Add(90 * time.Second)
	s := &model.PracticeSession{PlaythroughStartedAt: &start, CompletedAt: &done}
	if got := PlaythroughDuration(s); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
	if got := PlaythroughDuration(&model.PracticeSession{}); got != 0 {
		t.Fatalf("expected zero duration, got %v", got)
	}
}

type fakeSessionSource struct {
	sessions []*model.PracticeSession
	saved    []*model.PracticeSession
}

func (f *fakeSessionSource) ListSessions(ctx context.Context) ([]*model.PracticeSession, error) {
	return f.sessions, nil
}

func (f *fakeSessionSource) PutSession(ctx context.Context, s *model.PracticeSession) error {
	f.saved = append(f.saved, s)
	return nil
}

func TestBackfillCompletions(t *testing.T) {
	complete := sessionWithAttempts(3, []int{0, 1, 2})
	partial := sessionWithAttempts(3, []int{0, 1})
	already := sessionWithAttempts(3, []int{0, 1, 2})
	doneAt, _ := DetectCompletion(already)
	already.CompletedAt = &doneAt

	src := &fakeSessionSource{sessions: []*model.PracticeSession{complete, partial, already}}
	updated, err := BackfillCompletions(context.Background(), src)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 updated session, got %d", updated)
	}
	if len(src.saved) != 1 || src.saved[0] != complete {
		t.Fatalf("expected only the missing completion to be saved")
	}
	if complete.CompletedAt == nil {
		t.Fatalf("expected completedAt to be set")
	}
}

func TestBackfillKeepsExistingCompletion(t *testing.T) {
	// A marker set live takes precedence even when re-detection lands
	// on a different time.
	s := sessionWithAttempts(3, []int{0, 1, 2})
	manual := time.Date(2026, 3, 10, 19, 30, 0, 0, time.UTC)
	s.CompletedAt = &manual

	src := &fakeSessionSource{sessions: []*model.PracticeSession{s}}
	updated, err := BackfillCompletions(context.Background(), src)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected no updates, got %d", updated)
	}
	if len(src.saved) != 0 {
		t.Fatalf("expected no saves, got %d", len(src.saved))
	}
	if !s.CompletedAt.Equal(manual) {
		t.Fatalf("existing completedAt rewritten to %v", s.CompletedAt)
	}
}
