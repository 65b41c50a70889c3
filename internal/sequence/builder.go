package sequence

import (
	"github.com/verte-zerg/pupitre/internal/model"
	"github.com/verte-zerg/pupitre/internal/score"
)

// Build composes extraction and repeat resolution into the full
// playback sequence. Each occurrence gets an independent copy of its
// measure's notes with timestamps re-based onto performance order:
// playbackIndex plus the original intra-measure offset, so ornament
// and grace epsilon adjustments survive the move. Played/active state
// starts false on every occurrence.
//
// The sequence is recomputed in full on every (re)load of the score;
// there is no incremental update. A nil or empty score yields an empty
// sequence, never an error.
func Build(sc *score.Score) *model.PlaybackSequence {
	seq := &model.PlaybackSequence{TempoBPM: 120}
	if sc == nil || len(sc.Measures) == 0 {
		return seq
	}
	seq.TempoBPM = sc.Tempo()
	seq.SourceMeasures = len(sc.Measures)

	extracted := make([][]*model.ExtractedNote, len(sc.Measures))
	for i := range sc.Measures {
		extracted[i] = ExtractNotes(&sc.Measures[i])
	}

	for _, occ := range Resolve(sc.Measures) {
		src := &sc.Measures[occ.SourceMeasureIndex]
		entry := model.PlaybackSequenceEntry{
			PlaybackIndex:      occ.PlaybackIndex,
			SourceMeasureIndex: occ.SourceMeasureIndex,
			Duration:           src.Duration,
		}
		for _, n := range extracted[occ.SourceMeasureIndex] {
			c := n.Clone()
			c.Timestamp = float64(occ.PlaybackIndex) + (n.Timestamp - float64(occ.SourceMeasureIndex))
			entry.Notes = append(entry.Notes, c)
		}
		seq.Entries = append(seq.Entries, entry)
	}
	return seq
}
