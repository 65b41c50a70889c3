package stats

import (
	"testing"

	"github.com/verte-zerg/pupitre/internal/model"
)

func TestSelectWeakMeasures(t *testing.T) {
	agg := NewAggregate("score-1")
	agg.Measures[0] = model.MeasureAggregate{TotalAttempts: 10, CleanAttempts: 9}
	agg.Measures[1] = model.MeasureAggregate{TotalAttempts: 10, CleanAttempts: 2}
	agg.Measures[2] = model.MeasureAggregate{TotalAttempts: 10, CleanAttempts: 5}

	weak := SelectWeakMeasures(agg, 2)
	if len(weak) != 2 {
		t.Fatalf("expected 2 weak measures, got %d", len(weak))
	}
	if _, ok := weak[1]; !ok {
		t.Fatalf("expected measure 1 in weak set: %v", weak)
	}
	if _, ok := weak[2]; !ok {
		t.Fatalf("expected measure 2 in weak set: %v", weak)
	}
}

func TestSelectWeakMeasuresTiesByIndex(t *testing.T) {
	agg := NewAggregate("score-1")
	agg.Measures[4] = model.MeasureAggregate{TotalAttempts: 4, CleanAttempts: 2}
	agg.Measures[1] = model.MeasureAggregate{TotalAttempts: 4, CleanAttempts: 2}

	weak := SelectWeakMeasures(agg, 1)
	if _, ok := weak[1]; !ok {
		t.Fatalf("expected tie broken by lower index: %v", weak)
	}
}

func TestSelectWeakMeasuresEmpty(t *testing.T) {
	if weak := SelectWeakMeasures(nil, 3); len(weak) != 0 {
		t.Fatalf("expected empty set, got %v", weak)
	}
}
