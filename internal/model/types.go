// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// Mode selects how a practice session counts toward mastery.
type Mode string

// Practice modes.
const (
	ModeTraining Mode = "training"
	ModeFree     Mode = "free"
)

// Status is the mastery classification of a score.
type Status string

// Mastery statuses, from sight-reading to mastered.
const (
	StatusDechiffrage      Status = "dechiffrage"
	StatusPerfectionnement Status = "perfectionnement"
	StatusRepertoire       Status = "repertoire"
)

// ExtractedNote is one playable note pulled out of the score graph,
// annotated for both input matching and audio playback. Timestamps are
// in whole-note units: the integer part is the measure (or, after
// sequencing, the playback index), the fraction the offset inside it.
type ExtractedNote struct {
	Pitch        int     `json:"pitch"`
	Name         string  `json:"name"`
	Timestamp    float64 `json:"timestamp"`
	Duration     float64 `json:"duration"`
	MeasureIndex int     `json:"measureIndex"`
	StaffIndex   int     `json:"staffIndex"`
	VoiceIndex   int     `json:"voiceIndex"`
	FingeringKey string  `json:"fingeringKey"`

	IsGrace           bool `json:"isGrace,omitempty"`
	IsTieContinuation bool `json:"isTieContinuation,omitempty"`
	IsTurnNote        bool `json:"isTurnNote,omitempty"`
	IsMordentNote     bool `json:"isMordentNote,omitempty"`
	IsTrillNote       bool `json:"isTrillNote,omitempty"`

	// OrnamentIndex is the position of this note inside its ornament
	// micro-sequence, -1 for notes that are not ornament sub-notes.
	OrnamentIndex int `json:"ornamentIndex"`

	// NoteheadIndex/NoteheadCount locate the notehead this note should
	// highlight. Ornament sub-notes other than the last carry index -1
	// so only the final sub-note lights the printed notehead.
	NoteheadIndex int `json:"noteheadIndex"`
	NoteheadCount int `json:"noteheadCount"`

	// Mutable performance state, independent per sequence occurrence.
	Played bool `json:"-"`
	Active bool `json:"-"`
}

// Clone returns a copy with performance state reset.
func (n ExtractedNote) Clone() *ExtractedNote {
	c := n
	c.Played = false
	c.Active = false
	return &c
}

// PlaybackSequenceEntry is one occurrence of a measure in performance
// order. Under repeats the same source measure appears in several
// entries, each with its own note copies.
type PlaybackSequenceEntry struct {
	PlaybackIndex      int
	SourceMeasureIndex int
	// Duration of the source measure as a fraction of a whole note.
	Duration float64
	Notes    []*ExtractedNote
}

// PlaybackSequence is the repeat-resolved performance order of a score.
type PlaybackSequence struct {
	// TempoBPM comes from the first measure, defaulting to 120.
	TempoBPM float64
	// SourceMeasures counts the score's measures once; with repeats
	// resolved, Entries holds more occurrences than this.
	SourceMeasures int
	Entries        []PlaybackSequenceEntry
}

// AttemptRecord is one pass over one measure during a session.
type AttemptRecord struct {
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
	WrongNotes int       `json:"wrongNotes"`
	Clean      bool      `json:"clean"`
}

// EndedAt returns the attempt end time derived from start and duration.
func (a AttemptRecord) EndedAt() time.Time {
	return a.StartedAt.Add(time.Duration(a.DurationMs) * time.Millisecond)
}

// MeasureEntry groups the attempts recorded for one source measure.
type MeasureEntry struct {
	SourceMeasureIndex int             `json:"sourceMeasureIndex"`
	Attempts           []AttemptRecord `json:"attempts"`
}

// PracticeSession is one continuous practice run on a score.
type PracticeSession struct {
	ID                   string         `json:"id"`
	ScoreID              string         `json:"scoreId"`
	ScoreTitle           string         `json:"scoreTitle"`
	Composer             string         `json:"composer"`
	Mode                 Mode           `json:"mode"`
	StartedAt            time.Time      `json:"startedAt"`
	PlaythroughStartedAt *time.Time     `json:"playthroughStartedAt,omitempty"`
	EndedAt              *time.Time     `json:"endedAt,omitempty"`
	CompletedAt          *time.Time     `json:"completedAt,omitempty"`
	TotalMeasures        int            `json:"totalMeasures"`
	Measures             []MeasureEntry `json:"measures"`
}

// MeasureFor returns the measure entry for the given source index,
// creating it if needed.
func (s *PracticeSession) MeasureFor(index int) *MeasureEntry {
	for i := range s.Measures {
		if s.Measures[i].SourceMeasureIndex == index {
			return &s.Measures[i]
		}
	}
	s.Measures = append(s.Measures, MeasureEntry{SourceMeasureIndex: index})
	return &s.Measures[len(s.Measures)-1]
}

// Clone deep-copies the session, including measure entries, so a
// snapshot can be persisted while the live session keeps mutating.
func (s *PracticeSession) Clone() *PracticeSession {
	c := *s
	c.Measures = make([]MeasureEntry, len(s.Measures))
	for i, m := range s.Measures {
		c.Measures[i] = MeasureEntry{
			SourceMeasureIndex: m.SourceMeasureIndex,
			Attempts:           append([]AttemptRecord(nil), m.Attempts...),
		}
	}
	return &c
}

// MeasureAggregate accumulates attempt statistics for one measure
// across all sessions of a score. Counters are append-only.
type MeasureAggregate struct {
	TotalAttempts   int       `json:"totalAttempts"`
	CleanAttempts   int       `json:"cleanAttempts"`
	TotalDurationMs int64     `json:"totalDurationMs"`
	AvgDurationMs   float64   `json:"avgDurationMs"`
	ErrorRate       float64   `json:"errorRate"`
	LastPlayedAt    time.Time `json:"lastPlayedAt"`
}

// ScoreAggregate is the longitudinal practice record of one score.
type ScoreAggregate struct {
	ScoreID             string                   `json:"scoreId"`
	ScoreTitle          string                   `json:"scoreTitle"`
	Composer            string                   `json:"composer"`
	Status              Status                   `json:"status"`
	FirstPlayedAt       time.Time                `json:"firstPlayedAt"`
	LastPlayedAt        time.Time                `json:"lastPlayedAt"`
	TotalSessions       int                      `json:"totalSessions"`
	TotalPracticeTimeMs int64                    `json:"totalPracticeTimeMs"`
	Measures            map[int]MeasureAggregate `json:"measures"`
}

var pitchNames = [12]string{"C", "C♯", "D", "E♭", "E", "F", "F♯", "G", "A♭", "A", "B♭", "B"}

// PitchName renders a MIDI pitch as a display name such as "C♯4".
// Octave numbering follows the convention where 60 is C4.
func PitchName(pitch int) string {
	if pitch < 0 || pitch > 127 {
		return fmt.Sprintf("?%d", pitch)
	}
	return fmt.Sprintf("%s%d", pitchNames[pitch%12], pitch/12-1)
}
