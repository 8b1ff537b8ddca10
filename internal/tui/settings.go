package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/candemir/studydeck/internal/focus"
	"github.com/candemir/studydeck/internal/storage"
)

type settingsModel struct {
	deps   Deps
	width  int
	height int

	settings []storage.Setting
	cursor   int

	formActive bool
	form       *huh.Form
	formValue  *string
	editingKey string
}

func newSettingsModel(deps Deps) settingsModel {
	v := ""
	return settingsModel{deps: deps, formValue: &v}
}

func (m *settingsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m settingsModel) capturing() bool {
	return m.formActive
}

type settingsDataMsg struct {
	settings []storage.Setting
}

func (m settingsModel) refresh() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		settings, err := deps.DB.GetAllSettings()
		if err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		return settingsDataMsg{settings: settings}
	}
}

func (m settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		m.settings = msg.settings
		if m.cursor >= len(m.settings) {
			m.cursor = max(0, len(m.settings)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.settings)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			if len(m.settings) > 0 {
				return m.showEditForm()
			}
		}
	}
	return m, nil
}

func (m settingsModel) showEditForm() (settingsModel, tea.Cmd) {
	s := m.settings[m.cursor]
	*m.formValue = s.Value
	m.editingKey = s.Key

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(s.Key).Value(m.formValue),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.formActive = false
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		if err := m.deps.DB.SetSetting(m.editingKey, *m.formValue); err != nil {
			return m, errStatus(err)
		}
		applySessionSettings(m.deps)
		return m, tea.Batch(m.refresh(), status("Setting saved"))
	}
	return m, cmd
}

// applySessionSettings pushes the persisted interval settings into the
// scheduler. Called at startup and after every settings edit; a running
// countdown is not interrupted, new lengths apply from the next phase.
func applySessionSettings(deps Deps) {
	deps.Scheduler.SetDurations(
		deps.DB.GetSettingInt("focus_seconds", deps.Config.FocusSeconds),
		deps.DB.GetSettingInt("break_seconds", deps.Config.BreakSeconds),
		deps.DB.GetSettingInt("session_minutes", focus.SessionMinutes),
	)
}

func (m settingsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(m.form.View())
	}

	header := titleStyle.Render("Settings")

	var rows []string
	for i, s := range m.settings {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, fmt.Sprintf("%s%-20s %s", cursor, style.Render(s.Key), mutedStyle.Render(s.Value)))
	}
	if len(rows) == 0 {
		rows = append(rows, mutedStyle.Render("No settings"))
	}

	nav := mutedStyle.Render("enter: edit")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			append(append([]string{header, ""}, rows...), "", nav)...,
		),
	)
}
