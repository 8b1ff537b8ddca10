package task

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Persister saves the full live task set. Saves are fire-and-forget: a
// failed save is logged and the in-memory mutation stands.
type Persister interface {
	SaveTasks(tasks []*Task) error
}

// CompletionRecorder receives a completion event. Implemented by the
// history ledger, which deduplicates per (task, calendar day).
type CompletionRecorder interface {
	RecordCompletion(t *Task, at time.Time) bool
}

// Draft is the input to Create.
type Draft struct {
	Title            string
	Note             string
	EstimatedMinutes int
	DueDate          *time.Time
	Priority         Priority
	Tags             []string
	Recurrence       Recurrence
}

// Patch is a partial update. Nil fields are left untouched; ID and
// CreatedAt can never be patched.
type Patch struct {
	Title            *string
	Note             *string
	EstimatedMinutes *int
	DueDate          *time.Time
	ClearDueDate     bool
	Priority         *Priority
	Tags             *[]string
	Recurrence       *Recurrence
	Status           *Status
}

// Store owns the live task collection. It is the single writer of task
// state; all other components read copies or call back through it.
type Store struct {
	tasks     []*Task
	byID      map[string]*Task
	clock     Clock
	persister Persister
	logger    *slog.Logger
}

// NewStore returns an empty store. persister may be nil (no persistence).
func NewStore(clock Clock, persister Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		byID:      make(map[string]*Task),
		clock:     clock,
		persister: persister,
		logger:    logger,
	}
}

// Load replaces the store contents with previously persisted tasks.
// Called once at startup, before any mutation.
func (s *Store) Load(tasks []*Task) {
	s.tasks = s.tasks[:0]
	s.byID = make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		c := t.clone()
		s.tasks = append(s.tasks, c)
		s.byID[c.ID] = c
	}
}

// Tasks returns copies of all live tasks in store order.
func (s *Store) Tasks() []*Task {
	out := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.clone())
	}
	return out
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (*Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{TaskID: id}
	}
	return t.clone(), nil
}

// Create validates the draft and adds a new task. Sessions is derived as
// ceil(estimated / 25).
func (s *Store) Create(d Draft) (*Task, error) {
	if strings.TrimSpace(d.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if d.EstimatedMinutes < 0 {
		return nil, &ValidationError{Field: "estimatedMinutes", Reason: "must not be negative"}
	}
	if err := validateTags(d.Tags); err != nil {
		return nil, err
	}

	t := &Task{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(d.Title),
		Note:             d.Note,
		EstimatedMinutes: d.EstimatedMinutes,
		Priority:         d.Priority,
		Tags:             append([]string(nil), d.Tags...),
		Recurrence:       d.Recurrence,
		Status:           StatusToDo,
		CreatedAt:        s.clock.Now(),
		Sessions:         sessionCount(d.EstimatedMinutes),
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Recurrence == "" {
		t.Recurrence = RecurNone
	}
	if d.DueDate != nil {
		due := DayStart(*d.DueDate)
		t.DueDate = &due
	}

	s.tasks = append(s.tasks, t)
	s.byID[t.ID] = t
	s.persist()
	return t.clone(), nil
}

// Update merges the patch into the task with the given id.
func (s *Store) Update(id string, p Patch) (*Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{TaskID: id}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.EstimatedMinutes != nil && *p.EstimatedMinutes < 0 {
		return nil, &ValidationError{Field: "estimatedMinutes", Reason: "must not be negative"}
	}
	if p.Tags != nil {
		if err := validateTags(*p.Tags); err != nil {
			return nil, err
		}
	}

	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	if p.EstimatedMinutes != nil {
		t.EstimatedMinutes = *p.EstimatedMinutes
		t.Sessions = sessionCount(t.EstimatedMinutes)
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		due := DayStart(*p.DueDate)
		t.DueDate = &due
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Recurrence != nil {
		t.Recurrence = *p.Recurrence
	}
	if p.Status != nil {
		t.Status = *p.Status
	}

	s.persist()
	return t.clone(), nil
}

// Delete removes the task from the live set. Deleting an absent id is a
// no-op. History entries for the task are never touched here.
func (s *Store) Delete(id string) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	s.persist()
}

// ToggleComplete flips the completion state of a task.
//
// false -> true marks the task done, stamps CompletedAt, and records a
// completion in the ledger (at most once per task per calendar day). A
// recurring task rolls its due date forward and stays in the live set.
//
// true -> false clears the live completion state but never retracts the
// history entry: the ledger records "was completed", not current state.
func (s *Store) ToggleComplete(id string, recorder CompletionRecorder) (*Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{TaskID: id}
	}

	if t.Completed {
		t.Completed = false
		t.CompletedAt = nil
		t.Status = StatusToDo
		s.persist()
		return t.clone(), nil
	}

	now := s.clock.Now()
	t.Completed = true
	t.CompletedAt = &now
	t.Status = StatusDone

	if next, ok := NextDueDate(dueOrZero(t), t.Recurrence, s.clock); ok {
		t.DueDate = &next
	}
	if recorder != nil {
		recorder.RecordCompletion(t.clone(), now)
	}

	s.persist()
	return t.clone(), nil
}

// Complete performs only the incomplete to complete transition. A task
// that is already completed is left alone. The focus scheduler finishes
// sessions through this so it can never undo a manual completion.
func (s *Store) Complete(id string, recorder CompletionRecorder) (*Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{TaskID: id}
	}
	if t.Completed {
		return t.clone(), nil
	}
	return s.ToggleComplete(id, recorder)
}

// RestoreCompleted clears a task's completion state, returning it to the
// active list. The ledger entry for the completion is left alone.
func (s *Store) RestoreCompleted(id string) (*Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{TaskID: id}
	}
	if !t.Completed {
		return t.clone(), nil
	}
	t.Completed = false
	t.CompletedAt = nil
	t.Status = StatusToDo
	s.persist()
	return t.clone(), nil
}

// AddSubtask appends a checklist item to the task.
func (s *Store) AddSubtask(id, title string) (*Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{TaskID: id}
	}
	if strings.TrimSpace(title) == "" {
		return nil, &ValidationError{Field: "subtask", Reason: "must not be empty"}
	}
	t.Subtasks = append(t.Subtasks, Subtask{Title: strings.TrimSpace(title)})
	s.persist()
	return t.clone(), nil
}

// ToggleSubtask flips the done flag of the subtask at index.
func (s *Store) ToggleSubtask(id string, index int) (*Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{TaskID: id}
	}
	if index < 0 || index >= len(t.Subtasks) {
		return nil, &IndexError{TaskID: id, Index: index, Len: len(t.Subtasks)}
	}
	t.Subtasks[index].Done = !t.Subtasks[index].Done
	s.persist()
	return t.clone(), nil
}

// PruneCompletedOlderThan drops tasks that are completed and whose
// completion is older than window. Their ledger entries remain; the live
// list and the ledger are pruned independently.
func (s *Store) PruneCompletedOlderThan(window time.Duration) int {
	cutoff := s.clock.Now().Add(-window)
	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if t.Completed && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			delete(s.byID, t.ID)
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	if removed > 0 {
		s.persist()
	}
	return removed
}

func (s *Store) persist() {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveTasks(s.tasks); err != nil {
		s.logger.Error("save tasks failed", "err", err)
	}
}

func validateTags(tags []string) error {
	for _, tag := range tags {
		if !ValidTag(tag) {
			return &ValidationError{Field: "tags", Reason: "unknown tag " + tag}
		}
	}
	return nil
}

func sessionCount(estimatedMinutes int) int {
	if estimatedMinutes <= 0 {
		return 0
	}
	return (estimatedMinutes + 24) / 25
}

func dueOrZero(t *Task) time.Time {
	if t.DueDate == nil {
		return time.Time{}
	}
	return *t.DueDate
}
