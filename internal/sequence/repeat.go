// Package sequence turns the parsed score graph into the
// repeat-resolved, ornament-expanded performance order.
package sequence

import "github.com/verte-zerg/pupitre/internal/score"

// Occurrence is one visit of a source measure in performance order.
type Occurrence struct {
	SourceMeasureIndex int
	PlaybackIndex      int
}

// Resolve walks the measures in storage order and applies repeat and
// ending (volta) instructions to produce the performed measure order.
// Two passes per repeated section are supported; nested repeats and
// voltas beyond pass 2 are out of scope.
func Resolve(measures []score.SourceMeasure) []Occurrence {
	var out []Occurrence
	pass := 1
	repeatStart := 0

	for i := 0; i < len(measures); {
		m := &measures[i]

		if m.HasStart() {
			// A StartLine re-entered as the target of a just-taken
			// backward jump must not reset the pass counter.
			if !(pass == 2 && i == repeatStart) {
				repeatStart = i
				pass = 1
			}
		}

		include := true
		if endings, ok := m.EndingSet(); ok {
			include = containsPass(endings, pass)
		}
		if include {
			out = append(out, Occurrence{SourceMeasureIndex: i, PlaybackIndex: len(out)})
		}

		if m.HasBackJump() && pass == 1 {
			i = repeatStart
			pass = 2
			continue
		}

		if pass == 2 {
			if endings, ok := m.EndingSet(); ok && containsPass(endings, 2) {
				// Second ending played: the section is finished, so the
				// next repeat section starts fresh after this measure.
				pass = 1
				repeatStart = i + 1
			}
		}
		i++
	}
	return out
}

func containsPass(endings []int, pass int) bool {
	for _, e := range endings {
		if e == pass {
			return true
		}
	}
	return false
}
