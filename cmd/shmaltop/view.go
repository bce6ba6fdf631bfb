package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// View renders the entire UI
func (m Model) View() string {
	if m.showHelp {
		help := m.help
		help.ShowAll = true
		fg := &staticView{content: helpBoxStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				headerStyle.Render("Keys"),
				"",
				help.View(m.keys),
				"",
				labelStyle.Render("esc or ? to close"),
			))}
		return overlay.New(fg, &mainView{model: &m}, overlay.Center, overlay.Center, 0, 0).View()
	}
	return m.renderMain()
}

func (m Model) renderMain() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderStats(),
		m.renderUsage(),
		m.table.View(),
		m.renderStatus(),
	)
}

func (m Model) renderHeader() string {
	seg := m.a.Segment()
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		headerStyle.Render("Slab Segment Monitor"),
		"  ",
		pathStyle.Render(seg.Store().String()),
	)
}

func (m Model) renderStats() string {
	seg := m.a.Segment()
	policy := "backward"
	if seg.ForwardCoalesce() {
		policy = "backward+forward"
	}
	field := func(label string, v any) string {
		return labelStyle.Render(label+": ") + valueStyle.Render(fmt.Sprint(v))
	}
	pct := 0.0
	if n := seg.CellsNum(); n > 0 {
		pct = 100 * float64(m.stats.CellsTaken) / float64(n)
	}
	line1 := fmt.Sprintf("%s   %s   %s",
		field("Cells", fmt.Sprintf("%d x %d B", seg.CellsNum(), seg.CellSize())),
		field("Taken", fmt.Sprintf("%d (%.1f%%)", m.stats.CellsTaken, pct)),
		field("Coalescing", policy))
	line2 := fmt.Sprintf("%s   %s   %s",
		field("Allocs", fmt.Sprintf("%d (%d failed)", m.stats.AllocCalls, m.stats.AllocFails)),
		field("Frees", fmt.Sprintf("%d (%d failed)", m.stats.FreeCalls, m.stats.FreeFails)),
		field("Runs", len(m.runs)))
	return lipgloss.JoinVertical(lipgloss.Left, line1, line2)
}

func (m Model) renderUsage() string {
	width := m.width - 4
	bar := usageBar(m.runs, m.a.Segment().CellsNum(), width)
	return paneStyle.Width(max(1, width)).Render(renderBar(bar))
}

func (m Model) renderStatus() string {
	var left string
	switch {
	case m.err != nil:
		left = errorStyle.Render("Error: " + m.err.Error())
	case m.statusMessage != "" && m.statusIsError:
		left = errorStyle.Render(m.statusMessage)
	case m.statusMessage != "":
		left = okStyle.Render(m.statusMessage)
	case m.paused:
		left = pausedStyle.Render("PAUSED")
	case !m.updated.IsZero():
		left = fmt.Sprintf("Updated %s, every %s, %s runs", m.updated.Format("15:04:05"), m.interval, m.filter)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		statusStyle.Render(left),
		statusStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())),
	)
}

// mainView wraps the main UI for use as the overlay background.
type mainView struct {
	model *Model
}

func (v *mainView) Init() tea.Cmd                       { return nil }
func (v *mainView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }
func (v *mainView) View() string                        { return v.model.renderMain() }

// staticView renders fixed content as the overlay foreground.
type staticView struct {
	content string
}

func (v *staticView) Init() tea.Cmd                       { return nil }
func (v *staticView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }
func (v *staticView) View() string                        { return v.content }
