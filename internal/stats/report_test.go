package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
	"github.com/verte-zerg/pupitre/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "pupitre.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	base := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	agg := NewAggregate("score-1")
	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * 24 * time.Hour)
		sess := &model.PracticeSession{
			ID:            string(rune('a' + i)),
			ScoreID:       "score-1",
			ScoreTitle:    "Clair de Lune",
			Composer:      "Debussy",
			Mode:          model.ModeTraining,
			StartedAt:     start,
			TotalMeasures: 2,
			Measures: []model.MeasureEntry{
				{SourceMeasureIndex: 0, Attempts: []model.AttemptRecord{
					{StartedAt: start, DurationMs: 2000, Clean: true},
				}},
				{SourceMeasureIndex: 1, Attempts: []model.AttemptRecord{
					{StartedAt: start.Add(3 * time.Second), DurationMs: 2000, Clean: i > 0},
				}},
			},
		}
		if err := st.PutSession(ctx, sess); err != nil {
			t.Fatalf("put session: %v", err)
		}
		FoldSession(agg, sess)
	}
	if err := st.PutAggregate(ctx, agg); err != nil {
		t.Fatalf("put aggregate: %v", err)
	}

	cfg := ReportConfig{ScoreID: "score-1", Last: 2, CurveWindow: 2, WeakTop: 1}
	report, err := BuildReport(ctx, st, cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].ID != "b" || report.Sessions[1].ID != "c" {
		t.Fatalf("unexpected session window: %s, %s", report.Sessions[0].ID, report.Sessions[1].ID)
	}
	if report.Aggregate == nil || report.Aggregate.TotalSessions != 3 {
		t.Fatalf("unexpected aggregate: %+v", report.Aggregate)
	}

	var buf bytes.Buffer
	if err := RenderReport(&buf, report, cfg, 80, 6, false); err != nil {
		t.Fatalf("render report: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Clair de Lune", "Per-Measure", "Learning Curve", "Weak measures: 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report output:\n%s", want, out)
		}
	}
}

func TestBuildReportUnknownScore(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "pupitre.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	report, err := BuildReport(context.Background(), st, ReportConfig{ScoreID: "missing"})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.Aggregate != nil || len(report.Sessions) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}

	var buf bytes.Buffer
	if err := RenderReport(&buf, report, ReportConfig{}, 80, 6, false); err != nil {
		t.Fatalf("render report: %v", err)
	}
	if !strings.Contains(buf.String(), "No practice history found.") {
		t.Fatalf("expected empty-history message, got %q", buf.String())
	}
}
