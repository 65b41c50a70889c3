package tui

import (
	"context"
	"strings"
	"testing"

	"github.com/verte-zerg/pupitre/internal/model"
	"github.com/verte-zerg/pupitre/internal/practice"
)

type nullStore struct{}

func (nullStore) PutSession(ctx context.Context, s *model.PracticeSession) error { return nil }
func (nullStore) GetAggregate(ctx context.Context, scoreID string) (*model.ScoreAggregate, error) {
	return nil, nil
}
func (nullStore) PutAggregate(ctx context.Context, a *model.ScoreAggregate) error { return nil }

func testSequence() *model.PlaybackSequence {
	return &model.PlaybackSequence{
		TempoBPM: 120,
		Entries: []model.PlaybackSequenceEntry{
			{PlaybackIndex: 0, SourceMeasureIndex: 0, Duration: 1, Notes: []*model.ExtractedNote{
				note(60, "C4", 0),
				note(62, "D4", 0.5),
			}},
			{PlaybackIndex: 1, SourceMeasureIndex: 1, Duration: 1, Notes: []*model.ExtractedNote{
				note(64, "E4", 1),
			}},
		},
	}
}

func testModel(t *testing.T) *Model {
	t.Helper()
	tracker := practice.NewTracker(nullStore{})
	tracker.StartSession("score-1", "Title", "Composer", model.ModeTraining, 2)
	return NewModel(testSequence(), tracker, nil, nil)
}

func TestCorrectNotesAdvanceCursor(t *testing.T) {
	m := testModel(t)
	m.handleNoteOn(60)
	if m.chordIdx != 1 {
		t.Fatalf("expected cursor on second chord, got %d", m.chordIdx)
	}
	m.handleNoteOn(62)
	if m.entryIdx != 1 {
		t.Fatalf("expected advance to second measure, got entry %d", m.entryIdx)
	}
	if m.totalAttempts != 1 || m.cleanAttempts != 1 {
		t.Fatalf("expected one clean attempt, got %d/%d", m.cleanAttempts, m.totalAttempts)
	}
}

func TestWrongNoteCounted(t *testing.T) {
	m := testModel(t)
	m.handleNoteOn(61)
	if m.chordIdx != 0 {
		t.Fatalf("wrong note must not advance cursor")
	}
	m.handleNoteOn(60)
	m.handleNoteOn(62)
	if m.cleanAttempts != 0 || m.totalAttempts != 1 {
		t.Fatalf("expected one dirty attempt, got %d/%d", m.cleanAttempts, m.totalAttempts)
	}
}

func TestSequenceWrapsToStart(t *testing.T) {
	m := testModel(t)
	for _, pitch := range []int{60, 62, 64} {
		m.handleNoteOn(pitch)
	}
	if m.entryIdx != 0 {
		t.Fatalf("expected wrap to first entry, got %d", m.entryIdx)
	}
	if m.tracker.Session().CompletedAt == nil {
		t.Fatalf("expected playthrough completion after full ordered pass")
	}
}

func repeatedSequence() *model.PlaybackSequence {
	// Two source measures played twice, as a repeat resolves them.
	seq := &model.PlaybackSequence{TempoBPM: 120, SourceMeasures: 2}
	pitches := []int{60, 64}
	for pi := 0; pi < 4; pi++ {
		src := pi % 2
		seq.Entries = append(seq.Entries, model.PlaybackSequenceEntry{
			PlaybackIndex:      pi,
			SourceMeasureIndex: src,
			Duration:           1,
			Notes: []*model.ExtractedNote{
				note(pitches[src], model.PitchName(pitches[src]), float64(pi)),
			},
		})
	}
	return seq
}

func TestRepeatedScoreCompletesPlaythrough(t *testing.T) {
	seq := repeatedSequence()
	tracker := practice.NewTracker(nullStore{})
	tracker.StartSession("score-1", "Title", "Composer", model.ModeTraining, seq.SourceMeasures)
	m := NewModel(seq, tracker, nil, nil)
	for _, pitch := range []int{60, 64, 60, 64} {
		m.handleNoteOn(pitch)
	}
	if m.entryIdx != 0 {
		t.Fatalf("expected wrap after final occurrence, got entry %d", m.entryIdx)
	}
	if m.tracker.Session().CompletedAt == nil {
		t.Fatalf("expected playthrough completion on a repeated score")
	}
}

func TestRestartMeasureCountsDirtyAttempt(t *testing.T) {
	m := testModel(t)
	m.handleNoteOn(60)
	m.restartMeasure()
	if m.chordIdx != 0 {
		t.Fatalf("expected cursor reset, got %d", m.chordIdx)
	}
	if m.totalAttempts != 1 || m.cleanAttempts != 0 {
		t.Fatalf("restart should record a dirty attempt, got %d/%d", m.cleanAttempts, m.totalAttempts)
	}
}

func TestToggleModeResetsProgress(t *testing.T) {
	m := testModel(t)
	m.handleNoteOn(60)
	m.handleNoteOn(62)
	m.toggleMode()
	sess := m.tracker.Session()
	if sess == nil || sess.Mode != model.ModeFree {
		t.Fatalf("expected free mode session, got %+v", sess)
	}
	if m.entryIdx != 0 || m.totalAttempts != 0 {
		t.Fatalf("expected progress reset")
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m := testModel(t)
	m.cleanAttempts = 3
	m.totalAttempts = 4
	m.midiConnected = true
	m.midiName = "Keystation 61"
	out := m.renderFooter()
	for _, want := range []string{"Mode training", "Clean 3/4", "Keystation 61"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}
