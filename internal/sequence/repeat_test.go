package sequence

import (
	"testing"

	"github.com/verte-zerg/pupitre/internal/score"
)

func plainMeasures(n int) []score.SourceMeasure {
	out := make([]score.SourceMeasure, n)
	for i := range out {
		out[i] = score.SourceMeasure{Index: i, Number: i + 1, Duration: 1}
	}
	return out
}

func sourceOrder(occs []Occurrence) []int {
	out := make([]int, len(occs))
	for i, o := range occs {
		out[i] = o.SourceMeasureIndex
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveNoRepeats(t *testing.T) {
	occs := Resolve(plainMeasures(3))
	if got := sourceOrder(occs); !equalInts(got, []int{0, 1, 2}) {
		t.Fatalf("unexpected order: %v", got)
	}
	for i, o := range occs {
		if o.PlaybackIndex != i {
			t.Fatalf("playback index %d at position %d", o.PlaybackIndex, i)
		}
	}
}

func TestResolveSimpleRepeat(t *testing.T) {
	ms := plainMeasures(4)
	ms[0].Start = []score.RepeatInstruction{{Kind: score.RepeatStartLine}}
	ms[3].End = []score.RepeatInstruction{{Kind: score.RepeatBackJumpLine}}

	occs := Resolve(ms)
	want := []int{0, 1, 2, 3, 0, 1, 2, 3}
	if got := sourceOrder(occs); !equalInts(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolveTwoEndingVolta(t *testing.T) {
	ms := plainMeasures(5)
	ms[0].Start = []score.RepeatInstruction{{Kind: score.RepeatStartLine}}
	ms[2].Start = []score.RepeatInstruction{{Kind: score.RepeatEnding, Endings: []int{1}}}
	ms[2].End = []score.RepeatInstruction{{Kind: score.RepeatBackJumpLine}}
	ms[3].Start = []score.RepeatInstruction{{Kind: score.RepeatEnding, Endings: []int{2}}}

	occs := Resolve(ms)
	want := []int{0, 1, 2, 0, 1, 3, 4}
	if got := sourceOrder(occs); !equalInts(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolveIndependentSections(t *testing.T) {
	// Two back-to-back repeated sections, the second with its own
	// start line. The first section's pass counter must not leak.
	ms := plainMeasures(4)
	ms[0].Start = []score.RepeatInstruction{{Kind: score.RepeatStartLine}}
	ms[1].End = []score.RepeatInstruction{{Kind: score.RepeatBackJumpLine}}
	ms[2].Start = []score.RepeatInstruction{{Kind: score.RepeatStartLine}}
	ms[3].End = []score.RepeatInstruction{{Kind: score.RepeatBackJumpLine}}

	occs := Resolve(ms)
	want := []int{0, 1, 0, 1, 2, 3, 2, 3}
	if got := sourceOrder(occs); !equalInts(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolveSectionAfterSecondEnding(t *testing.T) {
	// After playing the {2} ending the section resets, so a later
	// repeat section resolves independently.
	ms := plainMeasures(6)
	ms[0].Start = []score.RepeatInstruction{{Kind: score.RepeatStartLine}}
	ms[1].Start = []score.RepeatInstruction{{Kind: score.RepeatEnding, Endings: []int{1}}}
	ms[1].End = []score.RepeatInstruction{{Kind: score.RepeatBackJumpLine}}
	ms[2].Start = []score.RepeatInstruction{{Kind: score.RepeatEnding, Endings: []int{2}}}
	ms[3].Start = []score.RepeatInstruction{{Kind: score.RepeatStartLine}}
	ms[4].End = []score.RepeatInstruction{{Kind: score.RepeatBackJumpLine}}

	occs := Resolve(ms)
	want := []int{0, 1, 0, 2, 3, 4, 3, 4, 5}
	if got := sourceOrder(occs); !equalInts(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
