// Package task defines the core domain model: tasks, their lifecycle
// rules, recurrence rollover, and the store that owns all task state.
package task

import "time"

// Priority levels for a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Order returns a sortable rank, highest priority first.
func (p Priority) Order() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Recurrence determines how a task's due date rolls forward on completion.
type Recurrence string

const (
	RecurNone    Recurrence = "None"
	RecurDaily   Recurrence = "Daily"
	RecurWeekly  Recurrence = "Weekly"
	RecurMonthly Recurrence = "Monthly"
)

// Status is the board column a task sits in, independent of Completed.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// TagVocabulary is the fixed set of tags a task may carry.
var TagVocabulary = []string{"Work", "Personal", "Urgent", "Low Priority", "Learning"}

// ValidTag reports whether name is part of the fixed vocabulary.
func ValidTag(name string) bool {
	for _, t := range TagVocabulary {
		if t == name {
			return true
		}
	}
	return false
}

// Subtask is one checklist item inside a task.
type Subtask struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Task is the central domain entity. Owned exclusively by Store; the UI
// holds read-only copies.
type Task struct {
	ID               string
	Title            string
	Note             string
	EstimatedMinutes int
	DueDate          *time.Time // calendar date at midnight UTC, nil when unset
	Priority         Priority
	Tags             []string
	Recurrence       Recurrence
	Subtasks         []Subtask
	Status           Status
	Completed        bool
	CompletedAt      *time.Time // non-nil iff Completed
	CreatedAt        time.Time
	Sessions         int // ceil(EstimatedMinutes / 25), derived at creation
}

// Overdue reports whether the task is past due and not completed.
func (t *Task) Overdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(DayStart(now))
}

// DueToday reports whether the task is due on now's calendar day.
func (t *Task) DueToday(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Equal(DayStart(now))
}

// clone returns a deep copy so callers can never mutate store-owned state.
func (t *Task) clone() *Task {
	c := *t
	c.Tags = append([]string(nil), t.Tags...)
	c.Subtasks = append([]Subtask(nil), t.Subtasks...)
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// DayStart truncates ts to midnight UTC.
func DayStart(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats ts as the canonical calendar-day key.
func DayKey(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}
