package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabshm/alloc"
	"github.com/joshuapare/slabshm/segment"
	"github.com/joshuapare/slabshm/segment/store"
)

// newWatched creates an 8 x 16 segment holding one 2-cell run at 0 and one
// 1-cell run at 0x30, leaving free runs at 0x20 and 0x40.
func newWatched(t *testing.T) (*alloc.Allocator, string) {
	t.Helper()
	spec := "file:" + filepath.Join(t.TempDir(), "seg")
	st, err := store.ParseSpec(spec)
	require.NoError(t, err)
	seg, err := segment.Create(st, 16, 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = seg.Destroy() })

	a, err := alloc.New(seg)
	require.NoError(t, err)
	_, err = a.Alloc(32)
	require.NoError(t, err)
	_, err = a.AllocAt(16, 0x30)
	require.NoError(t, err)
	return a, spec
}

func stubClipboard(t *testing.T, err error) *string {
	t.Helper()
	var got string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		got = s
		return err
	}
	t.Cleanup(func() { writeClipboard = orig })
	return &got
}

func TestRefreshPopulatesTable(t *testing.T) {
	a, _ := newWatched(t)
	h := NewTestHelper(NewModel(a, time.Second)).SendWindowSize(100, 30).Refresh()

	m := h.GetModel()
	require.NoError(t, m.err)
	require.EqualValues(t, 3, m.stats.CellsTaken)
	require.Len(t, m.visible, 4)
	require.Equal(t, []alloc.Run{
		{Offset: 0x00, Start: 0, Len: 2},
		{Offset: 0x20, Start: 2, Len: 1, Free: true},
		{Offset: 0x30, Start: 3, Len: 1},
		{Offset: 0x40, Start: 4, Len: 4, Free: true},
	}, m.visible)

	view := h.GetView()
	for _, want := range []string{"Slab Segment Monitor", "8 x 16 B", "0x30", "free"} {
		require.Contains(t, view, want)
	}
}

func TestFilterCycles(t *testing.T) {
	a, _ := newWatched(t)
	h := NewTestHelper(NewModel(a, time.Second)).Refresh()

	h.SendKeyRune('f')
	m := h.GetModel()
	require.Equal(t, FilterUsed, m.filter)
	require.Len(t, m.visible, 2)
	require.Contains(t, m.statusMessage, "used")

	h.SendKeyRune('f')
	m = h.GetModel()
	require.Equal(t, FilterFree, m.filter)
	require.Len(t, m.visible, 2)
	for _, r := range m.visible {
		require.True(t, r.Free)
	}

	h.SendKeyRune('f')
	require.Equal(t, FilterAll, h.GetModel().filter)
	require.Len(t, h.GetModel().visible, 4)
}

func TestCopySelectedOffset(t *testing.T) {
	a, _ := newWatched(t)
	got := stubClipboard(t, nil)
	h := NewTestHelper(NewModel(a, time.Second)).Refresh()

	h.SendKey(tea.KeyDown).SendKey(tea.KeyDown).SendKeyRune('y')
	require.Equal(t, "0x30", *got)
	require.Equal(t, "Copied 0x30", h.GetModel().statusMessage)
	require.NotNil(t, h.LastCmd(), "status should clear itself")

	h.Send(clearStatusMsg{})
	require.Empty(t, h.GetModel().statusMessage)
}

func TestCopyFailure(t *testing.T) {
	a, _ := newWatched(t)
	stubClipboard(t, errors.New("no clipboard"))
	h := NewTestHelper(NewModel(a, time.Second)).Refresh().SendKeyRune('y')

	m := h.GetModel()
	require.True(t, m.statusIsError)
	require.Contains(t, m.statusMessage, "no clipboard")
}

func TestCopyWithoutRuns(t *testing.T) {
	a, _ := newWatched(t)
	got := stubClipboard(t, nil)
	h := NewTestHelper(NewModel(a, time.Second)).SendKeyRune('y')
	require.Empty(t, *got)
	require.Equal(t, "Nothing selected", h.GetModel().statusMessage)
}

func TestPauseSkipsRefresh(t *testing.T) {
	a, _ := newWatched(t)
	h := NewTestHelper(NewModel(a, time.Second)).Refresh().SendKeyRune('p')
	require.True(t, h.GetModel().paused)

	// A new allocation is not picked up while paused, only on resume.
	_, err := a.Alloc(16)
	require.NoError(t, err)
	h.Send(tickMsg(time.Now()))
	require.EqualValues(t, 3, h.GetModel().stats.CellsTaken)

	h.SendKeyRune('p')
	require.False(t, h.GetModel().paused)
	h.SendKeyRune('r')
	h.Send(h.LastCmd()())
	require.EqualValues(t, 4, h.GetModel().stats.CellsTaken)
}

func TestVerify(t *testing.T) {
	a, _ := newWatched(t)
	h := NewTestHelper(NewModel(a, time.Second)).SendKeyRune('v')
	h.Send(h.LastCmd()())
	require.Equal(t, "Descriptor array OK", h.GetModel().statusMessage)

	h.Send(verifyMsg{err: segment.ErrCorrupted})
	require.True(t, h.GetModel().statusIsError)
	require.Contains(t, h.GetModel().statusMessage, "Verify failed")
}

func TestRefreshErrorShown(t *testing.T) {
	a, _ := newWatched(t)
	h := NewTestHelper(NewModel(a, time.Second)).Send(refreshMsg{err: segment.ErrNotAttached})
	require.ErrorIs(t, h.GetModel().err, segment.ErrNotAttached)
	require.Contains(t, h.GetView(), "Error:")
}

func TestHelpOverlay(t *testing.T) {
	a, _ := newWatched(t)
	h := NewTestHelper(NewModel(a, time.Second)).SendWindowSize(100, 30).Refresh()

	h.SendKeyRune('?')
	require.True(t, h.GetModel().showHelp)
	view := h.GetView()
	require.Contains(t, view, "esc or ? to close")
	require.Contains(t, view, "copy offset")

	// Keys other than close are swallowed.
	h.SendKeyRune('f')
	require.Equal(t, FilterAll, h.GetModel().filter)

	h.SendKey(tea.KeyEsc)
	require.False(t, h.GetModel().showHelp)
}

func TestQuit(t *testing.T) {
	a, _ := newWatched(t)
	h := NewTestHelper(NewModel(a, time.Second)).SendKeyRune('q')
	require.NotNil(t, h.LastCmd())
	require.IsType(t, tea.QuitMsg{}, h.LastCmd()())
}

func TestOpen(t *testing.T) {
	_, spec := newWatched(t)
	a, err := open(spec)
	require.NoError(t, err)
	defer a.Segment().Detach()
	require.EqualValues(t, 16, a.Segment().CellSize())
	require.EqualValues(t, 8, a.Segment().CellsNum())

	_, err = open("file:" + filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, segment.ErrNotFound)
}

func TestParseArgs(t *testing.T) {
	t.Setenv(envStore, "file:/dev/shm/env")

	opts, err := parseArgs(nil)
	require.NoError(t, err)
	require.Equal(t, "file:/dev/shm/env", opts.spec)
	require.Equal(t, time.Second, opts.interval)

	opts, err = parseArgs([]string{"-d", "--interval", "250ms", "sysv:0x5eed"})
	require.NoError(t, err)
	require.True(t, opts.debug)
	require.Equal(t, 250*time.Millisecond, opts.interval)
	require.Equal(t, "sysv:0x5eed", opts.spec)

	for _, args := range [][]string{{"-i"}, {"-i", "soon"}, {"-i", "-1s"}} {
		_, err := parseArgs(args)
		require.Error(t, err, strings.Join(args, " "))
	}
}
