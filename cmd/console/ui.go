package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/q3a-report/internal/runner"
	"github.com/jwebster45206/q3a-report/pkg/causeofdeath"
	"github.com/jwebster45206/q3a-report/pkg/game"
	"github.com/muesli/reflow/wordwrap"
)

// ConsoleUI is the BubbleTea model that browses game reports one at a time.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	source   string
	reports  []*game.Report
	selected int
	// unfinished marks the last report as a game without a ShutdownGame line.
	unfinished bool

	updates <-chan *game.Report
	// closer releases the store a run was loaded from.
	closer io.Closer

	viewport viewport.Model
	ready    bool
	width    int
	height   int
	status   string
}

type reportMsg struct {
	report *game.Report
}

type liveClosedMsg struct{}

type copiedMsg struct {
	key string
	err error
}

var (
	panelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3).
			PaddingRight(3)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	positiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	negativeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func NewConsoleUI(source string, reports []*game.Report) ConsoleUI {
	vp := viewport.New(60, 20)
	vp.MouseWheelEnabled = true

	return ConsoleUI{
		source:   source,
		reports:  reports,
		viewport: vp,
	}
}

// Close releases the report store, if any. It is called once the program
// has exited.
func (m ConsoleUI) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.updates != nil {
		return waitForReport(m.updates)
	}
	return nil
}

func waitForReport(updates <-chan *game.Report) tea.Cmd {
	return func() tea.Msg {
		report, ok := <-updates
		if !ok {
			return liveClosedMsg{}
		}
		return reportMsg{report: report}
	}
}

func copyReport(report *game.Report) tea.Cmd {
	return func() tea.Msg {
		data, err := runner.FormatReport(report)
		if err == nil {
			err = clipboard.WriteAll(string(data))
		}
		return copiedMsg{key: report.Key(), err: err}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-6, 10)
		m.viewport.Height = max(msg.Height-6, 3)
		m.ready = true
		m.refresh()
		return m, nil

	case reportMsg:
		m.addReport(msg.report)
		return m, waitForReport(m.updates)

	case liveClosedMsg:
		m.updates = nil
		m.status = "Live updates stopped"
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Copied " + msg.key + " to clipboard"
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "left", "h":
			m.selectReport(m.selected - 1)
			return m, nil
		case "right", "l":
			m.selectReport(m.selected + 1)
			return m, nil
		case "home", "g":
			m.selectReport(0)
			return m, nil
		case "end", "G":
			m.selectReport(len(m.reports) - 1)
			return m, nil
		case "c":
			if r := m.current(); r != nil {
				return m, copyReport(r)
			}
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// addReport appends a live report. Reports already listed are ignored, and
// the selection follows the newest game when it was on the last one.
func (m *ConsoleUI) addReport(r *game.Report) {
	if r == nil {
		return
	}
	for _, existing := range m.reports {
		if existing.Game == r.Game {
			return
		}
	}

	follow := len(m.reports) == 0 || m.selected == len(m.reports)-1
	m.reports = append(m.reports, r)
	m.status = "Received " + r.Key()
	if follow {
		m.selected = len(m.reports) - 1
	}
	m.refresh()
}

func (m *ConsoleUI) selectReport(i int) {
	if i < 0 || i >= len(m.reports) || i == m.selected {
		return
	}
	m.selected = i
	m.status = ""
	m.refresh()
	m.viewport.GotoTop()
}

func (m ConsoleUI) current() *game.Report {
	if m.selected < 0 || m.selected >= len(m.reports) {
		return nil
	}
	return m.reports[m.selected]
}

func (m *ConsoleUI) refresh() {
	r := m.current()
	if r == nil {
		m.viewport.SetContent("Waiting for the first game to finish...")
		return
	}
	unfinished := m.unfinished && m.selected == len(m.reports)-1
	m.viewport.SetContent(renderReport(r, m.viewport.Width, unfinished))
}

func renderReport(r *game.Report, width int, unfinished bool) string {
	var content strings.Builder

	title := r.Key()
	if unfinished {
		title += " (no ShutdownGame)"
	}
	content.WriteString(titleStyle.Render(title) + "\n\n")
	content.WriteString(fmt.Sprintf("Total kills: %d\n\n", r.TotalKills))

	content.WriteString(headingStyle.Render("Players") + "\n")
	if len(r.Players) == 0 {
		content.WriteString("None\n")
	} else {
		content.WriteString(wordwrap.String(strings.Join(r.Players, ", "), max(width, 10)) + "\n")
	}
	content.WriteString("\n")

	content.WriteString(headingStyle.Render("Scores") + "\n")
	for _, k := range rankedScores(r) {
		score := fmt.Sprintf("%6d", k.Score)
		switch {
		case k.Score > 0:
			score = positiveStyle.Render(score)
		case k.Score < 0:
			score = negativeStyle.Render(score)
		}
		content.WriteString(score + "  " + k.Name + "\n")
	}
	content.WriteString("\n")

	content.WriteString(headingStyle.Render("Kills by means") + "\n")
	var peak uint32
	for _, n := range r.KillsByMeans {
		peak = max(peak, n)
	}
	if peak == 0 {
		content.WriteString("None\n")
		return content.String()
	}

	barWidth := max(width-30, 5)
	for _, c := range causeofdeath.All() {
		n := r.KillsBy(c)
		if n == 0 {
			continue
		}
		filled := max(int(uint64(n)*uint64(barWidth)/uint64(peak)), 1)
		content.WriteString(fmt.Sprintf("%-18s %5d ", c.Title(), n))
		content.WriteString(barStyle.Render(strings.Repeat("█", filled)) + "\n")
	}
	return content.String()
}

// rankedScores orders players by score, highest first, keeping first-seen
// order among equal scores.
func rankedScores(r *game.Report) []game.PlayerScore {
	ranked := append([]game.PlayerScore(nil), r.Kills...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := titleStyle.Render("Q3A REPORT") + "  " + separatorStyle.Render(m.source)
	if len(m.reports) > 0 {
		header += separatorStyle.Render(fmt.Sprintf("  %d/%d", m.selected+1, len(m.reports)))
	}
	if m.updates != nil {
		header += positiveStyle.Render("  live")
	}

	footer := helpStyle.Render("←/→ game • c copy JSON • q quit")
	if m.status != "" {
		footer = m.status + "  " + footer
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		separatorStyle.Render(strings.Repeat("─", max(m.width-6, 10))),
		m.viewport.View(),
		"",
		footer,
	))
}
