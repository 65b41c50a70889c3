package sequence

import (
	"fmt"

	"github.com/verte-zerg/pupitre/internal/model"
	"github.com/verte-zerg/pupitre/internal/score"
)

// OrderEpsilon is the sub-tick offset used to fix keyboard-matching
// order of ornament sub-notes and grace notes. It only establishes
// relative ordering; audio playback re-derives real timing separately.
const OrderEpsilon = 1e-6

// neighborOffsets computes the upper and lower neighbor intervals in
// semitones. The default whole-tone neighbors narrow to a semitone
// when an explicit flat is shown above or a natural/sharp below.
func neighborOffsets(ev score.NoteEvent) (upper, lower int) {
	upper, lower = 2, 2
	if ev.OrnamentAbove == score.AccidentalFlat {
		upper = 1
	}
	if ev.OrnamentBelow == score.AccidentalNatural || ev.OrnamentBelow == score.AccidentalSharp {
		lower = 1
	}
	return upper, lower
}

// expandMatching replaces a note bearing an ornament marker with its
// micro-sequence in keyboard-matching order. Sub-note timestamps get
// index-scaled epsilon offsets on top of the base timestamp; only the
// final sub-note keeps the notehead-highlight target.
func expandMatching(base *model.ExtractedNote, ev score.NoteEvent) ([]*model.ExtractedNote, error) {
	upper, lower := neighborOffsets(ev)
	main := base.Pitch
	up := clampPitch(main + upper)
	down := clampPitch(main - lower)

	var pitches []int
	var flag func(n *model.ExtractedNote)

	switch ev.Ornament {
	case score.OrnamentTurn:
		pitches = []int{up, main, down, main}
		flag = func(n *model.ExtractedNote) { n.IsTurnNote = true }
	case score.OrnamentInvertedTurn:
		pitches = []int{down, main, up, main}
		flag = func(n *model.ExtractedNote) { n.IsTurnNote = true }
	case score.OrnamentDelayedTurn:
		pitches = []int{main, up, main, down, main}
		flag = func(n *model.ExtractedNote) { n.IsTurnNote = true }
	case score.OrnamentDelayedInvertedTurn:
		pitches = []int{main, down, main, up, main}
		flag = func(n *model.ExtractedNote) { n.IsTurnNote = true }
	case score.OrnamentMordent:
		pitches = []int{main, up, main}
		flag = func(n *model.ExtractedNote) { n.IsMordentNote = true }
	case score.OrnamentInvertedMordent:
		pitches = []int{main, down, main}
		flag = func(n *model.ExtractedNote) { n.IsMordentNote = true }
	case score.OrnamentTrill:
		pitches = []int{main, up, main, up}
		flag = func(n *model.ExtractedNote) { n.IsTrillNote = true }
	default:
		return nil, fmt.Errorf("unknown ornament %q", ev.Ornament)
	}

	out := make([]*model.ExtractedNote, len(pitches))
	for i, p := range pitches {
		n := base.Clone()
		n.Pitch = p
		n.Name = model.PitchName(p)
		n.Timestamp = base.Timestamp + float64(i)*OrderEpsilon
		n.OrnamentIndex = i
		if i != len(pitches)-1 {
			n.NoteheadIndex = -1
		}
		flag(n)
		out[i] = n
	}
	return out, nil
}

// shiftGraceNotes moves each run of consecutive grace notes to just
// before its main note, earliest grace first: for a run of n graces,
// grace j plays at mainTimestamp - (n-j)·ε. A trailing run with no
// following main note keeps its extracted timestamps.
func shiftGraceNotes(notes []*model.ExtractedNote) {
	for i := 0; i < len(notes); {
		if !notes[i].IsGrace {
			i++
			continue
		}
		j := i
		for j < len(notes) && notes[j].IsGrace {
			j++
		}
		if j < len(notes) {
			mainTS := notes[j].Timestamp
			n := j - i
			for k := i; k < j; k++ {
				notes[k].Timestamp = mainTS - float64(n-(k-i))*OrderEpsilon
			}
		}
		i = j
	}
}

func clampPitch(p int) int {
	if p < 0 {
		return 0
	}
	if p > 127 {
		return 127
	}
	return p
}
