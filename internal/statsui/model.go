// Package statsui provides the Bubble Tea stats browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/pupitre/internal/model"
	"github.com/verte-zerg/pupitre/internal/stats"
	"github.com/verte-zerg/pupitre/internal/store"
)

const (
	tabScores = iota
	tabDetail
)

const plotHeight = 10

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats browser: a table of practiced
// scores and a per-score detail view built from the report renderer.
type Model struct {
	store *store.Store
	cfg   stats.ReportConfig

	aggs   []*model.ScoreAggregate
	errMsg string

	tabs       []string
	activeTab  int
	scoreTable table.Model
	detail     viewport.Model

	width  int
	height int
}

// NewModel constructs a stats browser model.
func NewModel(st *store.Store, cfg stats.ReportConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Scores", "Detail"},
	}
	m.scoreTable = table.New(
		table.WithColumns(scoreColumns()),
		table.WithHeight(1),
		table.WithFocused(true),
	)
	m.scoreTable.SetStyles(scoreTableStyles())
	m.detail = viewport.New(0, 0)
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderDetail()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "enter":
			if m.activeTab == tabScores {
				m.activeTab = tabDetail
				m.renderDetail()
				return m, tea.ClearScreen
			}
			return m, nil
		case "=":
			m.cfg.CurveWindow++
			m.renderDetail()
			return m, nil
		case "-":
			if m.cfg.CurveWindow > 1 {
				m.cfg.CurveWindow--
				m.renderDetail()
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabScores {
				m.scoreTable.GotoTop()
			} else {
				m.detail.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabScores {
				m.scoreTable.GotoBottom()
			} else {
				m.detail.GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabScores {
				var cmd tea.Cmd
				m.scoreTable, cmd = m.scoreTable.Update(msg)
				return m, cmd
			}
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.scoreTable.SetWidth(m.width)
	m.scoreTable.SetHeight(maxInt(1, bodyHeight-1))
	m.detail.Width = m.width
	m.detail.Height = bodyHeight
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabDetail {
		m.renderDetail()
	}
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return padLines(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width)
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Select: enter  Window: -/=  Quit: q"
	if m.activeTab == tabDetail {
		help = "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Quit: q"
	}
	if m.errMsg != "" {
		return headerStyle.Render(help) + "\n" + errorStyle.Render(m.errMsg)
	}
	return headerStyle.Render(help)
}

func (m *Model) renderBody() string {
	if m.activeTab == tabScores {
		if len(m.aggs) == 0 {
			return "No practiced scores yet."
		}
		return tableMutedStyle.Render(m.scoreTable.View())
	}
	return m.detail.View()
}

func (m *Model) refresh() {
	aggs, err := m.store.ListAggregates(context.Background())
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.aggs = aggs
	rows := make([]table.Row, 0, len(aggs))
	for _, agg := range aggs {
		title := agg.ScoreTitle
		if title == "" {
			title = agg.ScoreID
		}
		practiceTime := time.Duration(agg.TotalPracticeTimeMs) * time.Millisecond
		lastPlayed := ""
		if !agg.LastPlayedAt.IsZero() {
			lastPlayed = agg.LastPlayedAt.Local().Format("2006-01-02")
		}
		rows = append(rows, table.Row{
			title,
			agg.Composer,
			string(agg.Status),
			fmt.Sprintf("%d", agg.TotalSessions),
			practiceTime.Round(time.Minute).String(),
			lastPlayed,
		})
	}
	m.scoreTable.SetRows(rows)
}

// selectedScoreID returns the score under the table cursor.
func (m *Model) selectedScoreID() string {
	idx := m.scoreTable.Cursor()
	if idx < 0 || idx >= len(m.aggs) {
		return ""
	}
	return m.aggs[idx].ScoreID
}

func (m *Model) renderDetail() {
	scoreID := m.selectedScoreID()
	if scoreID == "" {
		m.detail.SetContent("No score selected.")
		return
	}
	cfg := m.cfg
	cfg.ScoreID = scoreID
	report, err := stats.BuildReport(context.Background(), m.store, cfg)
	if err != nil {
		m.detail.SetContent(fmt.Sprintf("Failed to load report: %v", err))
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	var buf bytes.Buffer
	if err := stats.RenderReport(&buf, report, cfg, width, plotHeight, true); err != nil {
		m.detail.SetContent(fmt.Sprintf("Failed to render report: %v", err))
		return
	}
	m.detail.SetContent(strings.TrimRight(buf.String(), "\n"))
}

func scoreColumns() []table.Column {
	return []table.Column{
		{Title: "Title", Width: 28},
		{Title: "Composer", Width: 16},
		{Title: "Status", Width: 16},
		{Title: "Sessions", Width: 8},
		{Title: "Practice", Width: 9},
		{Title: "Last Played", Width: 11},
	}
}

func scoreTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
