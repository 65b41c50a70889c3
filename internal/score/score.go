// Package score models the parsed score graph consumed by the
// sequence builder. The graph is assumed to be already parsed; this
// package only defines the in-memory shape and a JSON round-trip of it.
package score

// RepeatKind tags a repeat or ending instruction on a measure.
type RepeatKind string

// Repeat instruction kinds. Markers other than these three exist in
// engraved scores (segno, coda, text directions) but are not playback
// instructions and are ignored by the resolver.
const (
	RepeatStartLine    RepeatKind = "startLine"
	RepeatBackJumpLine RepeatKind = "backJumpLine"
	RepeatEnding       RepeatKind = "ending"
)

// RepeatInstruction is attached at the start or end of a measure.
type RepeatInstruction struct {
	Kind RepeatKind `json:"kind"`
	// Endings lists the repeat passes during which the measure is
	// played. Only meaningful for RepeatEnding.
	Endings []int `json:"endings,omitempty"`
}

// Ornament identifies the ornament marker on a note, if any.
type Ornament string

// Ornament kinds.
const (
	OrnamentNone                Ornament = ""
	OrnamentTurn                Ornament = "turn"
	OrnamentInvertedTurn        Ornament = "invertedTurn"
	OrnamentDelayedTurn         Ornament = "delayedTurn"
	OrnamentDelayedInvertedTurn Ornament = "delayedInvertedTurn"
	OrnamentMordent             Ornament = "mordent"
	OrnamentInvertedMordent     Ornament = "invertedMordent"
	OrnamentTrill               Ornament = "trill"
)

// Accidental is an explicit accidental engraved above or below an
// ornament sign, narrowing the neighbor-tone interval.
type Accidental string

// Ornament accidentals.
const (
	AccidentalNone    Accidental = ""
	AccidentalFlat    Accidental = "flat"
	AccidentalNatural Accidental = "natural"
	AccidentalSharp   Accidental = "sharp"
)

// NoteEvent is one notehead inside a voice entry. A rest carries
// IsRest and no pitch.
type NoteEvent struct {
	// HalfTone is the semitone offset from the score's reference
	// pitch; MIDI pitch is HalfTone + 12.
	HalfTone int    `json:"halfTone"`
	Name     string `json:"name"`
	IsRest   bool   `json:"isRest,omitempty"`

	// Tied marks participation in a tie; TieStart marks the note that
	// opens it. A tied note that does not start the tie continues one.
	Tied     bool `json:"tied,omitempty"`
	TieStart bool `json:"tieStart,omitempty"`

	IsGrace  bool     `json:"isGrace,omitempty"`
	Ornament Ornament `json:"ornament,omitempty"`
	// OrnamentAbove/OrnamentBelow are explicit accidentals shown on
	// the ornament sign.
	OrnamentAbove Accidental `json:"ornamentAbove,omitempty"`
	OrnamentBelow Accidental `json:"ornamentBelow,omitempty"`
}

// VoiceEntry is a timed slot in a voice: a note, a chord, or a rest.
type VoiceEntry struct {
	// Timestamp is the position inside the measure in whole-note units.
	Timestamp float64 `json:"timestamp"`
	// Duration in whole-note units.
	Duration float64     `json:"duration"`
	Notes    []NoteEvent `json:"notes"`
}

// Voice is an ordered list of entries within a staff.
type Voice struct {
	Entries []VoiceEntry `json:"entries"`
}

// Staff groups the voices of one staff line.
type Staff struct {
	Voices []Voice `json:"voices"`
}

// SourceMeasure is one measure of the parsed score in storage order.
type SourceMeasure struct {
	Index int `json:"index"`
	// Number is the printed measure number used in fingering keys.
	Number int `json:"number"`
	// Duration as a fraction of a whole note (1.0 for 4/4).
	Duration float64 `json:"duration"`
	// TempoBPM is only meaningful on the first measure; 0 means unset.
	TempoBPM float64             `json:"tempoBPM,omitempty"`
	Start    []RepeatInstruction `json:"start,omitempty"`
	End      []RepeatInstruction `json:"end,omitempty"`
	Staves   []Staff             `json:"staves"`
}

// Score is the parsed measure/voice/note tree plus identifying
// metadata carried into sessions and aggregates.
type Score struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Composer string          `json:"composer"`
	Measures []SourceMeasure `json:"measures"`
}

// Tempo returns the score tempo taken from the first measure,
// defaulting to 120 BPM.
func (s *Score) Tempo() float64 {
	if s != nil && len(s.Measures) > 0 && s.Measures[0].TempoBPM > 0 {
		return s.Measures[0].TempoBPM
	}
	return 120
}

// HasStart reports whether the measure opens a repeated section.
func (m *SourceMeasure) HasStart() bool {
	for _, in := range m.Start {
		if in.Kind == RepeatStartLine {
			return true
		}
	}
	return false
}

// HasBackJump reports whether the measure ends with a backward jump.
func (m *SourceMeasure) HasBackJump() bool {
	for _, in := range m.End {
		if in.Kind == RepeatBackJumpLine {
			return true
		}
	}
	return false
}

// EndingSet returns the volta pass numbers attached to the measure and
// whether a non-empty ending marker is present.
func (m *SourceMeasure) EndingSet() ([]int, bool) {
	for _, in := range m.Start {
		if in.Kind == RepeatEnding && len(in.Endings) > 0 {
			return in.Endings, true
		}
	}
	for _, in := range m.End {
		if in.Kind == RepeatEnding && len(in.Endings) > 0 {
			return in.Endings, true
		}
	}
	return nil, false
}
