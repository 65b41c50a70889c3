package sequence

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/verte-zerg/pupitre/internal/model"
	"github.com/verte-zerg/pupitre/internal/score"
)

// midiPitchOffset converts the score's semitone reference to MIDI.
const midiPitchOffset = 12

// ExtractNotes walks one measure's staves and voices in document order
// and returns the playable notes chronologically, ornaments expanded in
// matching order and grace notes shifted ahead of their main notes.
// Rests and pitchless entries are skipped. Timestamps are
// measure-absolute: measure index plus the intra-measure offset in
// whole-note units.
func ExtractNotes(m *score.SourceMeasure) []*model.ExtractedNote {
	var notes []*model.ExtractedNote
	for si := range m.Staves {
		for vi := range m.Staves[si].Voices {
			seq := 0
			for _, entry := range m.Staves[si].Voices[vi].Entries {
				for ni, ev := range entry.Notes {
					if ev.IsRest {
						continue
					}
					base := &model.ExtractedNote{
						Pitch:             clampPitch(ev.HalfTone + midiPitchOffset),
						Name:              ev.Name,
						Timestamp:         float64(m.Index) + entry.Timestamp,
						Duration:          entry.Duration,
						MeasureIndex:      m.Index,
						StaffIndex:        si,
						VoiceIndex:        vi,
						FingeringKey:      fingeringKey(m.Number, si, vi, seq),
						IsGrace:           ev.IsGrace,
						IsTieContinuation: ev.Tied && !ev.TieStart,
						OrnamentIndex:     -1,
						NoteheadIndex:     ni,
						NoteheadCount:     len(entry.Notes),
					}
					if base.Name == "" {
						base.Name = model.PitchName(base.Pitch)
					}
					seq++

					if ev.Ornament == score.OrnamentNone {
						notes = append(notes, base)
						continue
					}
					expanded, err := expandMatching(base, ev)
					if err != nil {
						// A single bad ornament must not abort the
						// whole extraction; keep the note unexpanded.
						slog.Warn("ornament expansion failed",
							"measure", m.Index, "key", base.FingeringKey, "err", err)
						notes = append(notes, base)
						continue
					}
					notes = append(notes, expanded...)
				}
			}
		}
	}
	shiftGraceNotes(notes)
	SortNotes(notes)
	return notes
}

// SortNotes orders notes chronologically. The epsilon offsets applied
// during extraction make this the keyboard-matching order. Sorting is
// stable so simultaneous notes keep document order.
func SortNotes(notes []*model.ExtractedNote) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Timestamp < notes[j].Timestamp
	})
}

func fingeringKey(measureNumber, staff, voice, seq int) string {
	return fmt.Sprintf("%d:%d:%d:%d", measureNumber, staff, voice, seq)
}
