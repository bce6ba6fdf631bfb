package main

import (
	tea "github.com/charmbracelet/bubbletea"
)

// TestHelper provides utilities for testing TUI components
type TestHelper struct {
	model Model
	cmd   tea.Cmd
}

// NewTestHelper wraps a model.
func NewTestHelper(m Model) *TestHelper {
	return &TestHelper{model: m}
}

// Send delivers msg and keeps the returned command without running it.
func (h *TestHelper) Send(msg tea.Msg) *TestHelper {
	updated, cmd := h.model.Update(msg)
	h.model = updated.(Model)
	h.cmd = cmd
	return h
}

// SendKey simulates a special key press
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	return h.Send(tea.KeyMsg{Type: keyType})
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	return h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	return h.Send(tea.WindowSizeMsg{Width: width, Height: height})
}

// Refresh reads the segment synchronously and applies the result.
func (h *TestHelper) Refresh() *TestHelper {
	return h.Send(h.model.refresh()())
}

// LastCmd returns the command produced by the last message.
func (h *TestHelper) LastCmd() tea.Cmd {
	return h.cmd
}

// GetModel returns the current model
func (h *TestHelper) GetModel() Model {
	return h.model
}

// GetView returns the rendered view
func (h *TestHelper) GetView() string {
	return h.model.View()
}
