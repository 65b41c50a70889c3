package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Learning Curve", []Series{
		{Name: "Clean rate", Values: []float64{10, 40, 60, 80, 95}},
		{Name: "Error rate", Values: []float64{90, 60, 40, 20, 5}},
	}, 5, 4)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Learning Curve") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Legend:") {
		t.Fatalf("expected legend in output")
	}
	if !strings.Contains(out, "100%") || !strings.Contains(out, "0%") {
		t.Fatalf("expected axis labels in output")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	expectedMin := 1 + 4 + 1
	if len(lines) < expectedMin {
		t.Fatalf("expected at least %d lines of output, got %d", expectedMin, len(lines))
	}
}

func TestPlotSeriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "Empty", nil, 5, 4); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty series, got %q", buf.String())
	}
}

func TestResampleSeriesDownsamples(t *testing.T) {
	values := []float64{0, 10, 20, 30, 40, 50}
	out := resampleSeries(values, 3)
	if len(out) != 3 {
		t.Fatalf("expected 3 values, got %d", len(out))
	}
	if out[0] != 5 || out[1] != 25 || out[2] != 45 {
		t.Fatalf("unexpected bucket averages: %v", out)
	}
}

func TestValueToRowClamps(t *testing.T) {
	if got := valueToRow(150, 16); got != 0 {
		t.Fatalf("expected top row for overshoot, got %d", got)
	}
	if got := valueToRow(-5, 16); got != 15 {
		t.Fatalf("expected bottom row for undershoot, got %d", got)
	}
}
