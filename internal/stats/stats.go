// Package stats contains the pure practice analytics: aggregate
// folding, mastery classification, playthrough detection, and
// reporting helpers.
package stats

import (
	"math"
	"strings"

	"github.com/verte-zerg/pupitre/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionCleanRate is the fraction of a session's attempts that were
// clean, across all measures.
func SessionCleanRate(s *model.PracticeSession) float64 {
	total, clean := 0, 0
	for _, m := range s.Measures {
		for _, a := range m.Attempts {
			total++
			if a.Clean {
				clean++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(clean) / float64(total)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
