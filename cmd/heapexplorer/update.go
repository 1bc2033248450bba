package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/internal/logger"
)

func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		// If help is showing, handle help keys
		if m.showHelp {
			if key.Matches(msg, m.keys.Esc, m.keys.Help, m.keys.Quit) {
				m.showHelp = false
			}
			return m, nil
		}

		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.err != nil {
			return m, nil
		}
		m.statusMessage = ""

		switch {
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
		case key.Matches(msg, m.keys.Step):
			m.advance(1)
		case key.Matches(msg, m.keys.Back):
			m.advance(-1)
		case key.Matches(msg, m.keys.Jump):
			m.advance(jumpSize)
		case key.Matches(msg, m.keys.JumpBack):
			m.advance(-jumpSize)
		case key.Matches(msg, m.keys.Start):
			m.seek(0)
		case key.Matches(msg, m.keys.End):
			m.seek(m.stepper.Len())
		case key.Matches(msg, m.keys.PrevBlock):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.NextBlock):
			if m.cursor < len(m.blocks)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Copy):
			if err := m.CopySelected(); err != nil {
				logger.Warn("explorer: copy failed", "error", err)
				m.statusMessage = "Copy failed: " + err.Error()
			} else {
				m.statusMessage = "Copied block to clipboard"
			}
		case key.Matches(msg, m.keys.Check):
			if err := m.heap.Check(); err != nil {
				m.statusMessage = "Check failed: " + err.Error()
			} else {
				m.statusMessage = "Heap OK"
			}
		}
	}
	return m, nil
}
