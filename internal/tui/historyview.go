package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/candemir/studydeck/internal/history"
)

// historyModel shows recent completions from the ledger. Restoring a task
// flips its live state back; the ledger entry itself survives everything
// short of an explicit permanent delete.
type historyModel struct {
	deps   Deps
	width  int
	height int

	entries []history.Entry
	cursor  int

	confirmingDelete bool
	pendingTaskID    string
}

func newHistoryModel(deps Deps) historyModel {
	return historyModel{deps: deps}
}

func (m *historyModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m historyModel) capturing() bool {
	return m.confirmingDelete
}

type historyDataMsg struct {
	entries []history.Entry
}

func (m historyModel) refresh() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		from := deps.Clock.Now().AddDate(0, 0, -7)
		entries := deps.Ledger.Query(history.Filter{From: &from, Descending: true})
		return historyDataMsg{entries: entries}
	}
}

func (m historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if m.confirmingDelete {
		return m.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case historyDataMsg:
		m.entries = msg.entries
		if m.cursor >= len(m.entries) {
			m.cursor = max(0, len(m.entries)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Restore):
			return m.restoreSelected()
		case key.Matches(msg, keys.Delete):
			if e := m.selected(); e != nil {
				m.confirmingDelete = true
				m.pendingTaskID = e.TaskID
			}
		case key.Matches(msg, keys.Purge):
			return m.purgeAged()
		}
	}
	return m, nil
}

// restoreSelected undoes the live completion state of the selected entry's
// task. The ledger keeps the record: history reflects "was completed".
func (m historyModel) restoreSelected() (historyModel, tea.Cmd) {
	e := m.selected()
	if e == nil {
		return m, nil
	}
	t, err := m.deps.Store.Get(e.TaskID)
	if err != nil {
		return m, status("Task no longer in the live list")
	}
	if !t.Completed {
		return m, status("Task is already active")
	}
	if _, err := m.deps.Store.RestoreCompleted(e.TaskID); err != nil {
		return m, errStatus(err)
	}
	return m, tea.Batch(m.refresh(), func() tea.Msg { return tasksChangedMsg{} }, status("Task restored"))
}

// purgeAged prunes completed tasks and ledger entries older than the
// retention window. The two prunes are independent.
func (m historyModel) purgeAged() (historyModel, tea.Cmd) {
	retention := time.Duration(m.deps.DB.GetSettingInt("retention_days", m.deps.Config.RetentionDays)) * 24 * time.Hour
	prunedTasks := m.deps.Store.PruneCompletedOlderThan(retention)
	prunedEntries := m.deps.Ledger.PurgeOlderThan(retention, m.deps.Clock.Now())
	return m, tea.Batch(
		m.refresh(),
		status(fmt.Sprintf("Pruned %d tasks, %d history entries", prunedTasks, prunedEntries)),
	)
}

func (m historyModel) updateConfirm(msg tea.Msg) (historyModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		id := m.pendingTaskID
		m.confirmingDelete = false
		m.pendingTaskID = ""
		m.deps.Store.Delete(id)
		removed := m.deps.Ledger.DeleteTask(id)
		return m, tea.Batch(
			m.refresh(),
			func() tea.Msg { return tasksChangedMsg{} },
			status(fmt.Sprintf("Permanently deleted task and %d history entries", removed)),
		)
	case "n", "N", "esc":
		m.confirmingDelete = false
		m.pendingTaskID = ""
	}
	return m, nil
}

func (m historyModel) view() string {
	w := m.width - 4

	if m.confirmingDelete {
		prompt := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Permanently delete?"),
			"",
			mutedStyle.Render("This removes the task AND all of its history entries."),
			"",
			errorStyle.Render("y: delete forever   n: keep"),
		)
		return panelStyle.Width(w).Render(prompt)
	}

	header := titleStyle.Render("Completed (last 7 days)")

	if len(m.entries) == 0 {
		empty := mutedStyle.Render("No completions in the last 7 days.")
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", empty))
	}

	var rows []string
	for i, e := range m.entries {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		when := successStyle.Render(e.CompletedAt.Local().Format("Jan 02 15:04"))
		tags := ""
		if len(e.Tags) > 0 {
			tags = mutedStyle.Render("  [" + strings.Join(e.Tags, ", ") + "]")
		}
		rows = append(rows, fmt.Sprintf("%s%s  %s%s", cursor, style.Render(truncate(e.Title, w/2)), when, tags))
	}

	nav := mutedStyle.Render("u: restore  d: delete permanently  P: purge aged")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			append(append([]string{header, ""}, rows...), "", nav)...,
		),
	)
}

func (m historyModel) selected() *history.Entry {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return nil
	}
	return &m.entries[m.cursor]
}
