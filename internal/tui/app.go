// Package tui renders the studydeck terminal interface. Views dispatch
// operations to the task store, ledger, and scheduler; they hold no task
// state of their own.
package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/candemir/studydeck/internal/config"
	"github.com/candemir/studydeck/internal/focus"
	"github.com/candemir/studydeck/internal/history"
	"github.com/candemir/studydeck/internal/storage"
	"github.com/candemir/studydeck/internal/task"
)

// Deps carries the wired core components into the UI. Config holds the
// file/env-level defaults; the settings table in DB takes precedence for
// keys the user has edited in the Settings view.
type Deps struct {
	Store     *task.Store
	Ledger    *history.Ledger
	Scheduler *focus.Scheduler
	DB        *storage.Store
	Clock     task.Clock
	Logger    *slog.Logger
	Config    config.Config
}

// App is the root Bubble Tea model.
type App struct {
	deps   Deps
	width  int
	height int

	activeView viewState
	showHelp   bool

	tasks    tasksModel
	focus    focusModel
	progress progressModel
	history  historyModel
	settings settingsModel

	help   help.Model
	status string
	isErr  bool
}

func NewApp(deps Deps) App {
	h := help.New()
	h.ShowAll = false

	return App{
		deps:       deps,
		activeView: viewTasks,
		tasks:      newTasksModel(deps),
		focus:      newFocusModel(deps),
		progress:   newProgressModel(deps),
		history:    newHistoryModel(deps),
		settings:   newSettingsModel(deps),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.tasks.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.tasks.setSize(a.width, contentHeight)
		a.focus.setSize(a.width, contentHeight)
		a.progress.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// A capturing child (form, confirm prompt) sees keys first.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTasks
			return a, a.tasks.refresh()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewFocus
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewProgress
			return a, a.progress.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 5
			return a, a.refreshCurrentView()
		}
		return a.updateActiveView(msg)

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// The tick is the scheduler's only driver.
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		a.isErr = msg.isError
		return a, nil

	case focusStartedMsg:
		a.activeView = viewFocus
		a.status = "Focus session started: " + msg.taskTitle
		a.isErr = false
		return a, nil

	case sessionDoneMsg:
		a.status = "Session complete: " + msg.taskTitle
		a.isErr = false
		return a, tea.Batch(a.tasks.refresh(), a.progress.refresh())

	case badgesUnlockedMsg:
		if len(msg.badges) > 0 {
			a.status = "🏅 Badge unlocked: " + msg.badges[0]
			a.isErr = false
		}
		return a, nil

	case tasksChangedMsg:
		return a, a.tasks.refresh()
	}

	return a.updateActiveView(msg)
}

func (a App) isCapturing() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.capturing()
	case viewHistory:
		return a.history.capturing()
	case viewSettings:
		return a.settings.capturing()
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTasks:
		return a.tasks.refresh()
	case viewProgress:
		return a.progress.refresh()
	case viewHistory:
		return a.history.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewFocus:
		a.focus, cmd = a.focus.update(msg)
	case viewProgress:
		a.progress, cmd = a.progress.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	header := a.renderTabs()

	var content string
	switch a.activeView {
	case viewTasks:
		content = a.tasks.view()
	case viewFocus:
		content = a.focus.view()
	case viewProgress:
		content = a.progress.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}

	status := a.status
	if a.isErr {
		status = errorStyle.Render(status)
	} else {
		status = mutedStyle.Render(status)
	}
	footer := footerStyle.Render(a.help.View(keys)) + "\n" + headerStyle.Render(status)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderTabs() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	return headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...))
}
