package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/pupitre/internal/model"
)

func note(pitch int, name string, ts float64) *model.ExtractedNote {
	return &model.ExtractedNote{Pitch: pitch, Name: name, Timestamp: ts, OrnamentIndex: -1}
}

func TestBuildChordsGroupsByTimestamp(t *testing.T) {
	notes := []*model.ExtractedNote{
		note(60, "C4", 0),
		note(64, "E4", 0),
		note(67, "G4", 0.25),
	}
	chords := buildChords(notes)
	if len(chords) != 2 {
		t.Fatalf("expected 2 chords, got %d", len(chords))
	}
	if len(chords[0].notes) != 2 || len(chords[1].notes) != 1 {
		t.Fatalf("unexpected grouping: %d, %d", len(chords[0].notes), len(chords[1].notes))
	}
}

func TestBuildChordsKeepsOrnamentSubNotesSeparate(t *testing.T) {
	// Ornament sub-notes carry tiny timestamp offsets and must be
	// matched one at a time, in order.
	notes := []*model.ExtractedNote{
		note(62, "D4", 0.5),
		note(60, "C4", 0.5+1e-6),
		note(58, "B♭3", 0.5+2e-6),
	}
	chords := buildChords(notes)
	if len(chords) != 3 {
		t.Fatalf("expected 3 chords, got %d", len(chords))
	}
}

func TestBuildChordsSkipsTieContinuations(t *testing.T) {
	tied := note(60, "C4", 1)
	tied.IsTieContinuation = true
	chords := buildChords([]*model.ExtractedNote{note(60, "C4", 0), tied})
	if len(chords) != 1 {
		t.Fatalf("expected tie continuation to be skipped, got %d chords", len(chords))
	}
}

func TestBuildChordCellsStyles(t *testing.T) {
	chords := buildChords([]*model.ExtractedNote{
		note(60, "C4", 0),
		note(62, "D4", 0.25),
		note(64, "E4", 0.5),
	})
	chords[0].played[0] = true

	cells := buildChordCells(chords, 1)
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}
	if cells[0].s != correctStyle.Render("C4") {
		t.Fatalf("expected correct style for completed chord")
	}
	if cells[1].s != cursorStyle.Render("D4") {
		t.Fatalf("expected cursor style for current chord")
	}
	if cells[2].s != pendingStyle.Render("E4") {
		t.Fatalf("expected pending style for later chord")
	}
}

func TestBuildChordCellsChordCursor(t *testing.T) {
	chords := buildChords([]*model.ExtractedNote{
		note(60, "C4", 0),
		note(64, "E4", 0),
	})
	chords[0].played[0] = true

	cells := buildChordCells(chords, 0)
	if len(cells) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(cells))
	}
	want := correctStyle.Render("C4") + chordJoinStyle.Render("+") + cursorStyle.Render("E4")
	if cells[0].s != want {
		t.Fatalf("unexpected chord cell: %q", cells[0].s)
	}
	if cells[0].width != 5 {
		t.Fatalf("expected width 5, got %d", cells[0].width)
	}
}

func TestBuildChordCellsGraceLabel(t *testing.T) {
	g := note(62, "D4", 0)
	g.IsGrace = true
	cells := buildChordCells(buildChords([]*model.ExtractedNote{g}), 1)
	if !strings.Contains(cells[0].s, "(D4)") {
		t.Fatalf("expected grace parentheses, got %q", cells[0].s)
	}
}

func TestWrapCellsBreaksBetweenCells(t *testing.T) {
	cells := []styledCell{
		{s: "C4", width: 2},
		{s: "D4", width: 2},
		{s: "E4", width: 2},
	}
	out := wrapCells(cells, 5)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "C4 D4" || lines[1] != "E4" {
		t.Fatalf("unexpected wrap: %q", lines)
	}
}
