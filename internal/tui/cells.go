// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/pupitre/internal/model"
)

// chordGroup is one matching step: every note sharing a timestamp must
// be played before the cursor advances. Ornament sub-notes carry tiny
// timestamp offsets, so they form their own single-note groups in
// order.
type chordGroup struct {
	notes  []*model.ExtractedNote
	played []bool
}

func (g *chordGroup) done() bool {
	for _, p := range g.played {
		if !p {
			return false
		}
	}
	return true
}

// buildChords groups an entry's notes into matching steps. Tie
// continuations expect no new key press and are left out.
func buildChords(notes []*model.ExtractedNote) []chordGroup {
	var groups []chordGroup
	const eps = 1e-9
	for _, n := range notes {
		if n.IsTieContinuation {
			continue
		}
		if len(groups) > 0 {
			last := &groups[len(groups)-1]
			if diff := n.Timestamp - last.notes[0].Timestamp; diff < eps && diff > -eps {
				last.notes = append(last.notes, n)
				last.played = append(last.played, false)
				continue
			}
		}
		groups = append(groups, chordGroup{
			notes:  []*model.ExtractedNote{n},
			played: []bool{false},
		})
	}
	return groups
}

type styledCell struct {
	s     string
	width int
}

func noteLabel(n *model.ExtractedNote) string {
	label := n.Name
	if label == "" {
		label = model.PitchName(n.Pitch)
	}
	if n.IsGrace {
		return "(" + label + ")"
	}
	return label
}

// buildChordCells styles one cell per matching step. Completed steps
// render as correct, the current step highlights with the first
// pending note underlined, later steps stay dim.
func buildChordCells(groups []chordGroup, current int) []styledCell {
	cells := make([]styledCell, 0, len(groups))
	for gi := range groups {
		g := &groups[gi]
		labels := make([]string, 0, len(g.notes))
		width := 0
		cursorSet := false
		for ni, n := range g.notes {
			label := noteLabel(n)
			width += runewidth.StringWidth(label)
			var styled string
			switch {
			case gi < current || (gi == current && g.played[ni]):
				styled = correctStyle.Render(label)
			case gi == current && !cursorSet:
				styled = cursorStyle.Render(label)
				cursorSet = true
			case gi == current:
				styled = currentChordStyle.Render(label)
			default:
				styled = pendingStyle.Render(label)
			}
			labels = append(labels, styled)
		}
		width += len(g.notes) - 1
		cells = append(cells, styledCell{
			s:     strings.Join(labels, chordJoinStyle.Render("+")),
			width: width,
		})
	}
	return cells
}

// wrapCells lays the cells out into lines no wider than width, one
// space between cells. Cells are never split.
func wrapCells(cells []styledCell, width int) string {
	var out strings.Builder
	lineWidth := 0
	for i, cell := range cells {
		if lineWidth > 0 && lineWidth+1+cell.width > width {
			out.WriteRune('\n')
			lineWidth = 0
		} else if i > 0 {
			out.WriteByte(' ')
			lineWidth++
		}
		out.WriteString(cell.s)
		lineWidth += cell.width
	}
	return out.String()
}
