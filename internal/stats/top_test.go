package stats

import (
	"testing"

	"github.com/verte-zerg/pupitre/internal/model"
)

func TestTopMeasuresByAttempts(t *testing.T) {
	agg := NewAggregate("score-1")
	agg.Measures[0] = model.MeasureAggregate{TotalAttempts: 4}
	agg.Measures[1] = model.MeasureAggregate{TotalAttempts: 9}
	agg.Measures[2] = model.MeasureAggregate{TotalAttempts: 6}

	top := TopMeasuresByAttempts(agg, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 measures, got %d", len(top))
	}
	if top[0] != 1 || top[1] != 2 {
		t.Fatalf("unexpected order: %v", top)
	}
}

func TestTopMeasuresByAttemptsTiesByIndex(t *testing.T) {
	agg := NewAggregate("score-1")
	agg.Measures[3] = model.MeasureAggregate{TotalAttempts: 5}
	agg.Measures[1] = model.MeasureAggregate{TotalAttempts: 5}

	top := TopMeasuresByAttempts(agg, 2)
	if top[0] != 1 || top[1] != 3 {
		t.Fatalf("unexpected order: %v", top)
	}
}
