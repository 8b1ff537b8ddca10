package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/candemir/studydeck/internal/focus"
)

// focusModel renders the scheduler state. All timing decisions live in
// focus.Scheduler; this view only forwards ticks and key presses.
type focusModel struct {
	deps   Deps
	width  int
	height int

	lastPhase focus.Phase
	lastTitle string
}

func newFocusModel(deps Deps) focusModel {
	return focusModel{deps: deps, lastPhase: deps.Scheduler.Phase()}
}

func (m *focusModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	sched := m.deps.Scheduler

	switch msg := msg.(type) {
	case tickMsg:
		_, title := sched.BoundTask()
		if title != "" {
			m.lastTitle = title
		}
		sched.Tick()

		phase := sched.Phase()
		if phase == m.lastPhase {
			return m, nil
		}
		m.lastPhase = phase

		switch phase {
		case focus.PhaseComplete:
			done := m.lastTitle
			return m, tea.Batch(
				func() tea.Msg { return sessionDoneMsg{taskTitle: done} },
				saveSessionCmd(m.deps),
			)
		case focus.PhaseBreak:
			return m, status("Break time \a")
		case focus.PhaseFocus:
			return m, status("Back to focus \a")
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Pause):
			sched.Toggle()
			return m, saveSessionCmd(m.deps)
		case key.Matches(msg, keys.Reset):
			sched.Reset()
			return m, saveSessionCmd(m.deps)
		case key.Matches(msg, keys.Cancel):
			if sched.Phase() != focus.PhaseIdle {
				sched.Cancel()
				m.lastPhase = focus.PhaseIdle
				return m, tea.Batch(saveSessionCmd(m.deps), status("Session cancelled — no credit"))
			}
		}
	}
	return m, nil
}

// saveSessionCmd persists the resume snapshot after every user-visible
// scheduler change so a crash mid-session can restore it.
func saveSessionCmd(deps Deps) tea.Cmd {
	snap := deps.Scheduler.Snapshot()
	return func() tea.Msg {
		if err := deps.DB.SaveActiveSession(snap); err != nil {
			deps.Logger.Error("save active session failed", "err", err)
		}
		return nil
	}
}

func (m focusModel) view() string {
	w := m.width - 4
	sched := m.deps.Scheduler

	title := titleStyle.Render("Focus Session")
	_, taskTitle := sched.BoundTask()

	var timeDisplay, phaseLabel, taskLine string
	switch sched.Phase() {
	case focus.PhaseIdle:
		timeDisplay = countdownStyle.Width(w - 6).Render("--:--")
		phaseLabel = mutedStyle.Render("No session — pick a task and press p")
	case focus.PhaseFocus:
		style := countdownStyle
		if !sched.Running() {
			style = warningStyle.Bold(true).Align(lipgloss.Center)
		}
		timeDisplay = style.Width(w - 6).Render(formatCountdown(sched.Remaining()))
		phaseLabel = highlightStyle.Bold(true).Render("FOCUS")
		taskLine = mutedStyle.Render(taskTitle)
	case focus.PhaseBreak:
		timeDisplay = breakStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatCountdown(sched.Remaining()))
		phaseLabel = breakStyle.Bold(true).Render("BREAK")
		taskLine = mutedStyle.Render(taskTitle)
	case focus.PhaseComplete:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render("Done!")
		phaseLabel = successStyle.Bold(true).Render("ALL SESSIONS COMPLETE")
	}

	if !sched.Running() && (sched.Phase() == focus.PhaseFocus || sched.Phase() == focus.PhaseBreak) {
		phaseLabel += warningStyle.Render("  (paused)")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel,
		taskLine,
		"",
		m.renderProgress(),
	)

	var controls string
	switch sched.Phase() {
	case focus.PhaseIdle, focus.PhaseComplete:
		controls = mutedStyle.Render("1: tasks  q: quit")
	default:
		controls = mutedStyle.Render("space: pause/resume  r: reset  x: cancel")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (m focusModel) renderProgress() string {
	sched := m.deps.Scheduler
	total := sched.TotalSessions()
	remaining := sched.SessionsRemaining()
	if total == 0 {
		return ""
	}

	var parts []string
	done := total - remaining
	for i := 0; i < total; i++ {
		switch {
		case i < done:
			parts = append(parts, successStyle.Render("●"))
		case i == done && sched.Phase() == focus.PhaseFocus:
			parts = append(parts, highlightStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d sessions", done, total))
	return strings.Join(parts, " ") + counter
}
