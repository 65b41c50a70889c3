package playback

import (
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
)

// Event is one planned note dispatch: note-on at Start (unless
// suppressed for a tie continuation), note-off at End.
type Event struct {
	Pitch      int
	Velocity   int
	Start      time.Duration
	End        time.Duration
	SkipNoteOn bool
	Note       *model.ExtractedNote
}

const (
	// mordentSubNote is the fixed duration of each mordent sub-note,
	// as a fraction of a whole note, regardless of the parent value.
	mordentSubNote = 1.0 / 16.0

	// graceDuration is the fixed real-time length of one grace note.
	graceDuration = 80 * time.Millisecond
)

// Plan computes the full dispatch timeline for a sequence. Measure
// start offsets accumulate each prior occurrence's source measure
// duration, so irregular measures contribute their real length. A
// whole note lasts 4·60/BPM seconds.
//
// Ornament sub-notes are re-grouped here and respaced onto musical
// time: mordent sub-notes get a fixed short value, turns and trills
// spread evenly across the parent note's duration, and grace notes
// step backward from their main note so the last grace ends exactly
// where the main note starts. This is independent of the epsilon
// ordering used for input matching.
func Plan(seq *model.PlaybackSequence, velocity int) []Event {
	if seq == nil || len(seq.Entries) == 0 {
		return nil
	}
	bpm := seq.TempoBPM
	if bpm <= 0 {
		bpm = 120
	}
	whole := time.Duration(4 * 60 / bpm * float64(time.Second))
	if velocity <= 0 {
		velocity = DefaultVelocity
	}

	var events []Event
	var measureStart time.Duration
	for _, entry := range seq.Entries {
		offset := func(n *model.ExtractedNote) time.Duration {
			frac := n.Timestamp - float64(entry.PlaybackIndex)
			return measureStart + time.Duration(frac*float64(whole))
		}

		notes := entry.Notes
		for i := 0; i < len(notes); {
			n := notes[i]
			switch {
			case n.IsGrace:
				j := i
				for j < len(notes) && notes[j].IsGrace {
					j++
				}
				var mainStart time.Duration
				if j < len(notes) {
					mainStart = offset(notes[j])
				} else {
					mainStart = offset(notes[j-1]) + graceDuration
				}
				count := j - i
				for k := 0; k < count; k++ {
					start := mainStart - time.Duration(count-k)*graceDuration
					if start < 0 {
						start = 0
					}
					events = append(events, Event{
						Pitch:    notes[i+k].Pitch,
						Velocity: velocity,
						Start:    start,
						End:      start + graceDuration,
						Note:     notes[i+k],
					})
				}
				i = j
			case n.OrnamentIndex >= 0:
				j := i + 1
				for j < len(notes) && notes[j].OrnamentIndex == notes[j-1].OrnamentIndex+1 &&
					notes[j].FingeringKey == n.FingeringKey {
					j++
				}
				group := notes[i:j]
				base := offset(n) // first sub-note carries the parent timestamp
				var subDur time.Duration
				if n.IsMordentNote {
					subDur = time.Duration(mordentSubNote * float64(whole))
				} else {
					subDur = time.Duration(n.Duration * float64(whole) / float64(len(group)))
				}
				for k, sub := range group {
					start := base + time.Duration(k)*subDur
					events = append(events, Event{
						Pitch:    sub.Pitch,
						Velocity: velocity,
						Start:    start,
						End:      start + subDur,
						Note:     sub,
					})
				}
				i = j
			default:
				start := offset(n)
				events = append(events, Event{
					Pitch:      n.Pitch,
					Velocity:   velocity,
					Start:      start,
					End:        start + time.Duration(n.Duration*float64(whole)),
					SkipNoteOn: n.IsTieContinuation,
					Note:       n,
				})
				i++
			}
		}

		measureStart += time.Duration(entry.Duration * float64(whole))
	}
	return events
}

// PlanEnd returns the time the last planned note releases.
func PlanEnd(events []Event) time.Duration {
	var end time.Duration
	for _, ev := range events {
		if ev.End > end {
			end = ev.End
		}
	}
	return end
}
