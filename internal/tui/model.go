package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/pupitre/internal/model"
	"github.com/verte-zerg/pupitre/internal/playback"
	"github.com/verte-zerg/pupitre/internal/practice"
)

// NoteMsg is a performed MIDI note delivered to the practice screen.
type NoteMsg struct {
	On    bool
	Pitch int
}

// MIDIStatusMsg reports input device attach/detach.
type MIDIStatusMsg struct {
	Name      string
	Connected bool
}

type tickMsg time.Time

var (
	correctStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentChordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle       = currentChordStyle.Copy().Underline(true)
	chordJoinStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	footerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea practice UI: the playback sequence
// is walked measure by measure, each performed note either advances
// the cursor or counts as a wrong note against the open attempt.
type Model struct {
	seq     *model.PlaybackSequence
	tracker *practice.Tracker
	sched   *playback.Scheduler

	// tickFn is polled once a second, used for MIDI hot-plug scans.
	tickFn func()

	width  int
	height int

	entryIdx int
	chords   []chordGroup
	chordIdx int

	cleanAttempts int
	totalAttempts int

	midiName      string
	midiConnected bool

	lastWrong   int
	lastWrongAt time.Time
	hasWrong    bool
}

// NewModel constructs the practice model. The scheduler may be nil
// when no MIDI output is available; playback keys are then inert. The
// caller is expected to have started a tracker session already.
func NewModel(seq *model.PlaybackSequence, tracker *practice.Tracker, sched *playback.Scheduler, tickFn func()) *Model {
	m := &Model{
		seq:     seq,
		tracker: tracker,
		sched:   sched,
		tickFn:  tickFn,
	}
	m.enterEntry(0)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.tickFn == nil {
		return nil
	}
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.tickFn != nil {
			m.tickFn()
			return m, tickCmd()
		}
		return m, nil
	case NoteMsg:
		if msg.On {
			m.handleNoteOn(msg.Pitch)
		}
		return m, nil
	case MIDIStatusMsg:
		m.midiName = msg.Name
		m.midiConnected = msg.Connected
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		if m.sched != nil {
			m.sched.Stop()
		}
		return m, tea.Quit
	case "p":
		if m.sched != nil {
			m.sched.Play(m.seq)
		}
		return m, nil
	case "m":
		m.toggleMode()
		return m, nil
	case "r":
		m.restartMeasure()
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.seq == nil || len(m.seq.Entries) == 0 {
		return "Score has no playable notes."
	}
	entry := m.seq.Entries[m.entryIdx]
	header := headerStyle.Render(fmt.Sprintf("Measure %d  (%d/%d)", entry.SourceMeasureIndex+1, m.entryIdx+1, len(m.seq.Entries)))
	cells := buildChordCells(m.chords, m.chordIdx)

	if m.width == 0 || m.height == 0 {
		lines := make([]string, 0, len(cells))
		for _, c := range cells {
			lines = append(lines, c.s)
		}
		return header + "\n" + strings.Join(lines, " ")
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapCells(cells, contentWidth)
	content := header + "\n\n" + lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if sess := m.tracker.Session(); sess != nil {
		segments = append(segments, fmt.Sprintf("Mode %s", sess.Mode))
		if sess.CompletedAt != nil {
			segments = append(segments, "Playthrough ✓")
		}
	}
	if m.totalAttempts > 0 {
		segments = append(segments, fmt.Sprintf("Clean %d/%d", m.cleanAttempts, m.totalAttempts))
	}
	if m.hasWrong && time.Since(m.lastWrongAt) < 3*time.Second {
		segments = append(segments, incorrectStyle.Render(fmt.Sprintf("✗ %s", model.PitchName(m.lastWrong))))
	}
	if m.midiConnected {
		segments = append(segments, m.midiName)
	} else {
		segments = append(segments, "no MIDI input")
	}
	if m.sched != nil && m.sched.Playing() {
		segments = append(segments, "playing")
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) handleNoteOn(pitch int) {
	if m.chordIdx >= len(m.chords) {
		return
	}
	g := &m.chords[m.chordIdx]
	for ni, n := range g.notes {
		if g.played[ni] || n.Pitch != pitch {
			continue
		}
		g.played[ni] = true
		if g.done() {
			m.chordIdx++
			if m.chordIdx >= len(m.chords) {
				m.finishMeasure()
			}
		}
		return
	}
	m.tracker.RecordWrongNote()
	m.lastWrong = pitch
	m.lastWrongAt = time.Now()
	m.hasWrong = true
}

func (m *Model) finishMeasure() {
	if rec := m.tracker.EndMeasureAttempt(nil); rec != nil {
		m.totalAttempts++
		if rec.Clean {
			m.cleanAttempts++
		}
	}
	next := m.entryIdx + 1
	if next >= len(m.seq.Entries) {
		next = 0
	}
	m.enterEntry(next)
}

// enterEntry moves the cursor to a playback entry and opens its
// attempt. Entries without playable notes are recorded as instant
// clean attempts and skipped, so a full pass over the sequence still
// covers every measure.
func (m *Model) enterEntry(idx int) {
	if m.seq == nil || len(m.seq.Entries) == 0 {
		return
	}
	for range m.seq.Entries {
		entry := m.seq.Entries[idx]
		chords := buildChords(entry.Notes)
		m.tracker.StartMeasureAttempt(entry.SourceMeasureIndex)
		if len(chords) > 0 {
			m.entryIdx = idx
			m.chords = chords
			m.chordIdx = 0
			return
		}
		if rec := m.tracker.EndMeasureAttempt(nil); rec != nil {
			m.totalAttempts++
			if rec.Clean {
				m.cleanAttempts++
			}
		}
		idx = (idx + 1) % len(m.seq.Entries)
	}
	// Every entry is empty; park on the first one.
	m.entryIdx = 0
	m.chords = nil
	m.chordIdx = 0
}

func (m *Model) restartMeasure() {
	if len(m.chords) == 0 {
		return
	}
	dirty := false
	if rec := m.tracker.EndMeasureAttempt(&dirty); rec != nil {
		m.totalAttempts++
	}
	entry := m.seq.Entries[m.entryIdx]
	m.chords = buildChords(entry.Notes)
	m.chordIdx = 0
	m.tracker.StartMeasureAttempt(entry.SourceMeasureIndex)
}

func (m *Model) toggleMode() {
	sess := m.tracker.Session()
	if sess == nil {
		return
	}
	next := model.ModeFree
	if sess.Mode == model.ModeFree {
		next = model.ModeTraining
	}
	if err := m.tracker.ToggleMode(context.Background(), next); err != nil {
		return
	}
	m.cleanAttempts = 0
	m.totalAttempts = 0
	m.enterEntry(0)
}
