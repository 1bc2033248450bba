package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MainViewModel wraps the main UI for use as overlay background
type MainViewModel struct {
	model *Model
}

func NewMainViewModel(m *Model) *MainViewModel {
	return &MainViewModel{model: m}
}

func (m *MainViewModel) Init() tea.Cmd {
	return nil
}

func (m *MainViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Updates are handled in the parent Model's Update
	return m, nil
}

func (m *MainViewModel) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.model.renderHeader(),
		m.model.renderContent(),
		m.model.renderStatus(),
	)
}

// HelpViewModel renders the key reference shown over the main UI
type HelpViewModel struct {
	model *Model
}

func (h *HelpViewModel) Init() tea.Cmd {
	return nil
}

func (h *HelpViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return h, nil
}

func (h *HelpViewModel) View() string {
	body := lipgloss.JoinVertical(
		lipgloss.Left,
		modalTitleStyle.Render("Keyboard Shortcuts"),
		h.model.help.FullHelpView(h.model.keys.FullHelp()),
	)
	return modalStyle.Render(body)
}
