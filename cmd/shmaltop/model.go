package main

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/slabshm/alloc"
	"github.com/joshuapare/slabshm/segment"
)

// Filter selects which runs the table lists.
type Filter int

const (
	FilterAll Filter = iota
	FilterUsed
	FilterFree
)

func (f Filter) String() string {
	switch f {
	case FilterUsed:
		return "used"
	case FilterFree:
		return "free"
	default:
		return "all"
	}
}

func (f Filter) keep(r alloc.Run) bool {
	switch f {
	case FilterUsed:
		return !r.Free
	case FilterFree:
		return r.Free
	default:
		return true
	}
}

// Layout constants
const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeHeight  = 14 // header, stats, usage bar and status lines
	minTableRows  = 3
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

type tickMsg time.Time

// refreshMsg carries one reading of the segment.
type refreshMsg struct {
	stats segment.Stats
	runs  []alloc.Run
	err   error
	at    time.Time
}

type verifyMsg struct{ err error }

type clearStatusMsg struct{}

// Model is the main application model
type Model struct {
	a        *alloc.Allocator
	interval time.Duration
	keys     KeyMap
	help     help.Model
	table    table.Model

	width  int
	height int

	stats   segment.Stats
	runs    []alloc.Run
	visible []alloc.Run
	updated time.Time
	filter  Filter
	paused  bool

	showHelp      bool
	statusMessage string
	statusIsError bool

	err error
}

// NewModel creates a model watching a.
func NewModel(a *alloc.Allocator, interval time.Duration) Model {
	t := table.New(
		table.WithColumns(columns(defaultWidth)),
		table.WithFocused(true),
		table.WithHeight(defaultHeight-chromeHeight),
	)
	t.SetStyles(tableStyles())
	return Model{
		a:        a,
		interval: interval,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		table:    t,
		width:    defaultWidth,
		height:   defaultHeight,
	}
}

func columns(width int) []table.Column {
	state := 6
	rest := width - state - 12
	if rest < 40 {
		rest = 40
	}
	w := rest / 4
	return []table.Column{
		{Title: "Offset", Width: w},
		{Title: "Cell", Width: w},
		{Title: "Cells", Width: w},
		{Title: "Bytes", Width: w},
		{Title: "State", Width: state},
	}
}

// Init starts the first reading and the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh reads counters and runs. Each takes the segment lock briefly; the
// two readings may straddle a concurrent operation.
func (m Model) refresh() tea.Cmd {
	a := m.a
	return func() tea.Msg {
		stats, err := a.Segment().Stats()
		if err != nil {
			return refreshMsg{err: err, at: time.Now()}
		}
		runs, err := a.Runs()
		return refreshMsg{stats: stats, runs: runs, err: err, at: time.Now()}
	}
}

func (m Model) verify() tea.Cmd {
	a := m.a
	return func() tea.Msg {
		return verifyMsg{err: a.Verify()}
	}
}

// selected returns the run under the cursor.
func (m Model) selected() (alloc.Run, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return alloc.Run{}, false
	}
	return m.visible[i], true
}
