package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/candemir/studydeck/internal/task"
)

type tasksModel struct {
	deps   Deps
	width  int
	height int

	tasks  []*task.Task
	cursor int

	// Subtask drilldown
	viewingSubtasks bool
	subtaskCursor   int

	// Forms
	formActive bool
	form       *huh.Form
	formType   string // "new", "edit", "subtask"
	editingID  string

	formTitle      *string
	formNote       *string
	formEstimate   *string
	formDue        *string
	formPriority   *string
	formRecurrence *string
	formTags       *[]string

	// Delete confirmation (request/response, never a blocking prompt)
	confirmingDelete bool
	pendingDeleteID  string
}

func newTasksModel(deps Deps) tasksModel {
	title, note, estimate, due, priority, recurrence := "", "", "", "", string(task.PriorityMedium), string(task.RecurNone)
	tags := []string{}
	return tasksModel{
		deps:           deps,
		formTitle:      &title,
		formNote:       &note,
		formEstimate:   &estimate,
		formDue:        &due,
		formPriority:   &priority,
		formRecurrence: &recurrence,
		formTags:       &tags,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m tasksModel) capturing() bool {
	return m.formActive || m.confirmingDelete
}

type tasksDataMsg struct {
	tasks []*task.Task
}

func (m tasksModel) refresh() tea.Cmd {
	store := m.deps.Store
	return func() tea.Msg {
		all := store.Tasks()
		live := make([]*task.Task, 0, len(all))
		for _, t := range all {
			if !t.Completed {
				live = append(live, t)
			}
		}
		sort.SliceStable(live, func(i, j int) bool {
			return live[i].CreatedAt.After(live[j].CreatedAt)
		})
		return tasksDataMsg{tasks: live}
	}
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}
	if m.confirmingDelete {
		return m.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		m.tasks = msg.tasks
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, nil

	case tea.KeyMsg:
		if m.viewingSubtasks {
			return m.updateSubtasks(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		return m.showTaskForm("new", nil)
	case key.Matches(msg, keys.Edit):
		if t := m.selected(); t != nil {
			return m.showTaskForm("edit", t)
		}
	case key.Matches(msg, keys.Toggle):
		if t := m.selected(); t != nil {
			return m.toggleComplete(t.ID)
		}
	case key.Matches(msg, keys.Subtask):
		if m.selected() != nil {
			return m.showSubtaskForm()
		}
	case key.Matches(msg, keys.Enter):
		if t := m.selected(); t != nil && len(t.Subtasks) > 0 {
			m.viewingSubtasks = true
			m.subtaskCursor = 0
		}
	case key.Matches(msg, keys.Delete):
		if t := m.selected(); t != nil {
			m.confirmingDelete = true
			m.pendingDeleteID = t.ID
		}
	case key.Matches(msg, keys.Focus):
		if t := m.selected(); t != nil {
			m.deps.Scheduler.Start(t)
			title := t.Title
			return m, func() tea.Msg { return focusStartedMsg{taskTitle: title} }
		}
	}
	return m, nil
}

func (m tasksModel) updateSubtasks(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	t := m.selected()
	if t == nil {
		m.viewingSubtasks = false
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Back):
		m.viewingSubtasks = false
	case key.Matches(msg, keys.Up):
		if m.subtaskCursor > 0 {
			m.subtaskCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.subtaskCursor < len(t.Subtasks)-1 {
			m.subtaskCursor++
		}
	case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
		if _, err := m.deps.Store.ToggleSubtask(t.ID, m.subtaskCursor); err != nil {
			return m, errStatus(err)
		}
		return m, m.refresh()
	case key.Matches(msg, keys.Subtask):
		return m.showSubtaskForm()
	}
	return m, nil
}

func (m tasksModel) updateConfirm(msg tea.Msg) (tasksModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		id := m.pendingDeleteID
		m.confirmingDelete = false
		m.pendingDeleteID = ""
		// Deleting the task bound to a running session abandons the
		// session; no partial credit.
		if bound, _ := m.deps.Scheduler.BoundTask(); bound == id {
			m.deps.Scheduler.Cancel()
		}
		m.deps.Store.Delete(id)
		return m, tea.Batch(m.refresh(), status("Task deleted (history kept)"))
	case "n", "N", "esc":
		m.confirmingDelete = false
		m.pendingDeleteID = ""
	}
	return m, nil
}

func (m tasksModel) toggleComplete(id string) (tasksModel, tea.Cmd) {
	t, err := m.deps.Store.ToggleComplete(id, m.deps.Ledger)
	if err != nil {
		return m, errStatus(err)
	}
	msg := "Task completed"
	if !t.Completed {
		msg = "Completion undone"
	} else if t.Recurrence != task.RecurNone && t.DueDate != nil {
		msg = fmt.Sprintf("Task completed, next due %s", t.DueDate.Format("Jan 02"))
	}
	return m, tea.Batch(m.refresh(), status(msg))
}

// --- Forms ---

func (m tasksModel) showTaskForm(formType string, t *task.Task) (tasksModel, tea.Cmd) {
	if t != nil {
		*m.formTitle = t.Title
		*m.formNote = t.Note
		*m.formEstimate = strconv.Itoa(t.EstimatedMinutes)
		*m.formDue = ""
		if t.DueDate != nil {
			*m.formDue = t.DueDate.Format("2006-01-02")
		}
		*m.formPriority = string(t.Priority)
		*m.formRecurrence = string(t.Recurrence)
		*m.formTags = append([]string(nil), t.Tags...)
		m.editingID = t.ID
	} else {
		*m.formTitle = ""
		*m.formNote = ""
		*m.formEstimate = ""
		*m.formDue = ""
		*m.formPriority = string(task.PriorityMedium)
		*m.formRecurrence = string(task.RecurNone)
		*m.formTags = nil
		m.editingID = ""
	}
	m.formType = formType

	priorityOpts := []huh.Option[string]{
		huh.NewOption("Low", string(task.PriorityLow)),
		huh.NewOption("Medium", string(task.PriorityMedium)),
		huh.NewOption("High", string(task.PriorityHigh)),
	}
	recurrenceOpts := []huh.Option[string]{
		huh.NewOption("None", string(task.RecurNone)),
		huh.NewOption("Daily", string(task.RecurDaily)),
		huh.NewOption("Weekly", string(task.RecurWeekly)),
		huh.NewOption("Monthly", string(task.RecurMonthly)),
	}
	tagOpts := make([]huh.Option[string], len(task.TagVocabulary))
	for i, tag := range task.TagVocabulary {
		tagOpts[i] = huh.NewOption(tag, tag)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle),
			huh.NewInput().Title("Note").Value(m.formNote),
			huh.NewInput().Title("Estimated minutes").Value(m.formEstimate),
			huh.NewInput().Title("Due date (YYYY-MM-DD)").Value(m.formDue),
			huh.NewSelect[string]().Title("Priority").Options(priorityOpts...).Value(m.formPriority),
			huh.NewSelect[string]().Title("Recurrence").Options(recurrenceOpts...).Value(m.formRecurrence),
			huh.NewMultiSelect[string]().Title("Tags").Options(tagOpts...).Value(m.formTags),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) showSubtaskForm() (tasksModel, tea.Cmd) {
	*m.formTitle = ""
	m.formType = "subtask"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Subtask").Value(m.formTitle),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
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
		switch m.formType {
		case "subtask":
			if t := m.selected(); t != nil {
				if _, err := m.deps.Store.AddSubtask(t.ID, *m.formTitle); err != nil {
					return m, errStatus(err)
				}
			}
			return m, m.refresh()
		case "new", "edit":
			return m.submitTaskForm()
		}
	}
	return m, cmd
}

func (m tasksModel) submitTaskForm() (tasksModel, tea.Cmd) {
	estimate := 0
	if s := strings.TrimSpace(*m.formEstimate); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return m, status("Estimate must be a number")
		}
		estimate = n
	}
	var due *time.Time
	if s := strings.TrimSpace(*m.formDue); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return m, status("Due date must be YYYY-MM-DD")
		}
		due = &d
	}

	if m.formType == "edit" {
		title := *m.formTitle
		note := *m.formNote
		priority := task.Priority(*m.formPriority)
		recurrence := task.Recurrence(*m.formRecurrence)
		tags := append([]string(nil), (*m.formTags)...)
		patch := task.Patch{
			Title:        &title,
			Note:         &note,
			Priority:     &priority,
			Recurrence:   &recurrence,
			Tags:         &tags,
			DueDate:      due,
			ClearDueDate: due == nil,
		}
		patch.EstimatedMinutes = &estimate
		if _, err := m.deps.Store.Update(m.editingID, patch); err != nil {
			return m, errStatus(err)
		}
		return m, tea.Batch(m.refresh(), status("Task updated"))
	}

	_, err := m.deps.Store.Create(task.Draft{
		Title:            *m.formTitle,
		Note:             *m.formNote,
		EstimatedMinutes: estimate,
		DueDate:          due,
		Priority:         task.Priority(*m.formPriority),
		Tags:             append([]string(nil), (*m.formTags)...),
		Recurrence:       task.Recurrence(*m.formRecurrence),
	})
	if err != nil {
		return m, errStatus(err)
	}
	return m, tea.Batch(m.refresh(), status("Task created"))
}

// --- View ---

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(m.form.View())
	}

	if m.confirmingDelete {
		prompt := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Delete task?"),
			"",
			mutedStyle.Render("The live task is removed; its completion history is kept."),
			"",
			warningStyle.Render("y: delete   n: keep"),
		)
		return panelStyle.Width(w).Render(prompt)
	}

	header := titleStyle.Render(fmt.Sprintf("Tasks (%d)", len(m.tasks)))

	if len(m.tasks) == 0 {
		empty := mutedStyle.Render("No tasks yet. Press n to create one.")
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", empty))
	}

	now := m.deps.Clock.Now()
	var rows []string
	for i, t := range m.tasks {
		rows = append(rows, m.renderTask(t, i == m.cursor, now, w))
		if i == m.cursor {
			rows = append(rows, m.renderSubtasks(t)...)
		}
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, append([]string{header, ""}, rows...)...),
	)
}

func (m tasksModel) renderTask(t *task.Task, selected bool, now time.Time, w int) string {
	cursor := "  "
	style := normalItemStyle
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}

	var badges []string
	switch t.Priority {
	case task.PriorityHigh:
		badges = append(badges, errorStyle.Render("!"))
	case task.PriorityLow:
		badges = append(badges, mutedStyle.Render("·"))
	}
	if t.Recurrence != task.RecurNone {
		badges = append(badges, highlightStyle.Render("↻"))
	}

	var due string
	switch {
	case t.Overdue(now):
		due = errorStyle.Render(" overdue")
	case t.DueToday(now):
		due = warningStyle.Render(" today")
	case t.DueDate != nil:
		due = mutedStyle.Render(" due " + t.DueDate.Format("Jan 02"))
	}

	meta := ""
	if t.EstimatedMinutes > 0 {
		meta = mutedStyle.Render(fmt.Sprintf("  %s · %d session(s)", formatMinutes(t.EstimatedMinutes), t.Sessions))
	}
	if len(t.Tags) > 0 {
		meta += mutedStyle.Render("  [" + strings.Join(t.Tags, ", ") + "]")
	}

	line := cursor + style.Render(truncate(t.Title, w/2)) + " " + strings.Join(badges, "") + due + meta
	return line
}

func (m tasksModel) renderSubtasks(t *task.Task) []string {
	var rows []string
	for i, st := range t.Subtasks {
		box := "☐"
		style := normalItemStyle
		if st.Done {
			box = "☑"
			style = doneItemStyle
		}
		cursor := "    "
		if m.viewingSubtasks && i == m.subtaskCursor {
			cursor = "  > "
		}
		rows = append(rows, cursor+mutedStyle.Render(box)+" "+style.Render(st.Title))
	}
	return rows
}

func (m tasksModel) selected() *task.Task {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return nil
	}
	return m.tasks[m.cursor]
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errStatus(err error) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
}
