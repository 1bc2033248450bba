package main

import (
	tea "github.com/charmbracelet/bubbletea"
)

// TestHelper provides utilities for testing TUI components
type TestHelper struct {
	model Model
	cmd   tea.Cmd
}

// NewTestHelper wraps a model
func NewTestHelper(m Model) *TestHelper {
	return &TestHelper{model: m}
}

// SendKey simulates a special key press
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	return h.send(tea.KeyMsg{Type: keyType})
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	return h.send(tea.WindowSizeMsg{Width: width, Height: height})
}

func (h *TestHelper) send(msg tea.Msg) *TestHelper {
	updated, cmd := h.model.Update(msg)
	h.model = updated.(Model)
	h.cmd = cmd
	return h
}

// Model returns the current model
func (h *TestHelper) Model() Model {
	return h.model
}

// LastCmd returns the command returned by the last update
func (h *TestHelper) LastCmd() tea.Cmd {
	return h.cmd
}
