package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/slabshm/alloc"
	"github.com/joshuapare/slabshm/internal/logger"
)

const statusTimeout = 2 * time.Second

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width - 4))
		m.table.SetHeight(max(minTableRows, msg.Height-chromeHeight))
		return m, nil

	case tickMsg:
		if m.paused {
			return m, m.tick()
		}
		return m, tea.Batch(m.refresh(), m.tick())

	case refreshMsg:
		m.err = msg.err
		if msg.err != nil {
			logger.L.Warn("refresh failed", "error", msg.err)
			return m, nil
		}
		m.stats, m.runs, m.updated = msg.stats, msg.runs, msg.at
		m.applyFilter()
		return m, nil

	case verifyMsg:
		if msg.err != nil {
			return m.setStatus("Verify failed: "+msg.err.Error(), true)
		}
		return m.setStatus("Descriptor array OK", false)

	case clearStatusMsg:
		m.statusMessage, m.statusIsError = "", false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Esc, m.keys.Help, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.Verify):
		return m, m.verify()
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if m.paused {
			return m.setStatus("Paused", false)
		}
		return m.setStatus("Resumed", false)
	case key.Matches(msg, m.keys.Filter):
		m.filter = (m.filter + 1) % 3
		m.applyFilter()
		m.table.SetCursor(0)
		return m.setStatus("Showing "+m.filter.String()+" runs", false)
	case key.Matches(msg, m.keys.Copy):
		return m.copySelected()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) copySelected() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m.setStatus("Nothing selected", true)
	}
	text := fmt.Sprintf("%#x", int64(r.Offset))
	if err := writeClipboard(text); err != nil {
		logger.L.Debug("clipboard write failed", "error", err)
		return m.setStatus("Copy failed: "+err.Error(), true)
	}
	return m.setStatus("Copied "+text, false)
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusMessage, m.statusIsError = text, isErr
	return m, tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// applyFilter rebuilds the table rows from the last reading, keeping the
// cursor in range.
func (m *Model) applyFilter() {
	cs := uint64(m.a.Segment().CellSize())
	m.visible = make([]alloc.Run, 0, len(m.runs))
	rows := make([]table.Row, 0, len(m.runs))
	for _, r := range m.runs {
		if !m.filter.keep(r) {
			continue
		}
		m.visible = append(m.visible, r)
		state := "used"
		if r.Free {
			state = "free"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%#x", int64(r.Offset)),
			strconv.FormatUint(uint64(r.Start), 10),
			strconv.FormatUint(uint64(r.Len), 10),
			strconv.FormatUint(uint64(r.Len)*cs, 10),
			state,
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}
