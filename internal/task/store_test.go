package task

import (
	"errors"
	"testing"
	"time"
)

// fakeRecorder captures completion events the way the ledger would,
// including per-(task, day) deduplication.
type fakeRecorder struct {
	events []string
	seen   map[string]bool
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{seen: make(map[string]bool)}
}

func (r *fakeRecorder) RecordCompletion(t *Task, at time.Time) bool {
	key := t.ID + "|" + DayKey(at)
	if r.seen[key] {
		return false
	}
	r.seen[key] = true
	r.events = append(r.events, key)
	return true
}

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	return NewStore(FixedClock{T: now}, nil, nil)
}

func mustCreate(t *testing.T, s *Store, d Draft) *Task {
	t.Helper()
	created, err := s.Create(d)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return created
}

// ============================================================
// Create / Update / Delete
// ============================================================

func TestCreateValidatesTitle(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	for _, title := range []string{"", "   ", "\t"} {
		_, err := s.Create(Draft{Title: title})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("title %q: expected ValidationError, got %v", title, err)
		}
	}
	if len(s.Tasks()) != 0 {
		t.Fatal("rejected create must not mutate state")
	}
}

func TestCreateRejectsNegativeEstimate(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	_, err := s.Create(Draft{Title: "x", EstimatedMinutes: -5})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateRejectsUnknownTag(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	_, err := s.Create(Draft{Title: "x", Tags: []string{"Bogus"}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateDerivesSessions(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	tests := []struct {
		minutes  int
		sessions int
	}{
		{0, 0},
		{1, 1},
		{25, 1},
		{26, 2},
		{50, 2},
		{70, 3},
	}
	for _, tt := range tests {
		created := mustCreate(t, s, Draft{Title: "t", EstimatedMinutes: tt.minutes})
		if created.Sessions != tt.sessions {
			t.Fatalf("estimate %d: sessions = %d, want %d", tt.minutes, created.Sessions, tt.sessions)
		}
	}
}

func TestCreateDefaults(t *testing.T) {
	now := date(2024, 6, 1)
	s := newTestStore(t, now)
	created := mustCreate(t, s, Draft{Title: "  read chapter 3  "})

	if created.ID == "" {
		t.Fatal("expected generated ID")
	}
	if created.Title != "read chapter 3" {
		t.Fatalf("title not trimmed: %q", created.Title)
	}
	if created.Status != StatusToDo || created.Completed {
		t.Fatalf("unexpected initial state: %+v", created)
	}
	if created.Priority != PriorityMedium || created.Recurrence != RecurNone {
		t.Fatalf("unexpected defaults: %+v", created)
	}
	if !created.CreatedAt.Equal(now) {
		t.Fatalf("createdAt = %v, want %v", created.CreatedAt, now)
	}
	if created.CompletedAt != nil {
		t.Fatal("completedAt must be nil while not completed")
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	_, err := s.Update("missing", Patch{})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdatePatchesFieldsAndRecomputesSessions(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	created := mustCreate(t, s, Draft{Title: "t", EstimatedMinutes: 25})

	title := "renamed"
	minutes := 60
	prio := PriorityHigh
	updated, err := s.Update(created.ID, Patch{Title: &title, EstimatedMinutes: &minutes, Priority: &prio})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "renamed" || updated.EstimatedMinutes != 60 || updated.Priority != PriorityHigh {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Sessions != 3 {
		t.Fatalf("sessions not recomputed: %d", updated.Sessions)
	}
	if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("id/createdAt must be immutable")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	created := mustCreate(t, s, Draft{Title: "t"})

	s.Delete(created.ID)
	s.Delete(created.ID) // absent id is a no-op
	s.Delete("never-existed")

	if len(s.Tasks()) != 0 {
		t.Fatal("task should be gone")
	}
}

func TestReturnedTasksAreCopies(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	created := mustCreate(t, s, Draft{Title: "t"})

	created.Title = "mutated outside the store"
	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "t" {
		t.Fatal("external mutation leaked into store state")
	}
}

// ============================================================
// ToggleComplete
// ============================================================

func TestToggleCompleteMarksDone(t *testing.T) {
	now := date(2024, 6, 1)
	s := newTestStore(t, now)
	rec := newFakeRecorder()
	created := mustCreate(t, s, Draft{Title: "t"})

	got, err := s.ToggleComplete(created.ID, rec)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completed || got.Status != StatusDone {
		t.Fatalf("unexpected state: %+v", got)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(now) {
		t.Fatalf("completedAt = %v, want %v", got.CompletedAt, now)
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected 1 completion event, got %d", len(rec.events))
	}
}

// Toggling twice returns the task to completed=false while leaving at
// most one history event for the (task, day) pair.
func TestDoubleToggleIsIdempotentInHistory(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	rec := newFakeRecorder()
	created := mustCreate(t, s, Draft{Title: "t"})

	s.ToggleComplete(created.ID, rec)
	got, err := s.ToggleComplete(created.ID, rec)
	if err != nil {
		t.Fatal(err)
	}
	if got.Completed || got.CompletedAt != nil {
		t.Fatalf("undo should clear completion: %+v", got)
	}
	if got.Status != StatusToDo {
		t.Fatalf("undo should reset status, got %s", got.Status)
	}

	// Complete again the same day: the recorder dedupes.
	s.ToggleComplete(created.ID, rec)
	if len(rec.events) != 1 {
		t.Fatalf("expected exactly 1 event for the day, got %d", len(rec.events))
	}
}

func TestToggleCompleteRecurringKeepsTaskLive(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	rec := newFakeRecorder()
	due := date(2024, 6, 1)
	created := mustCreate(t, s, Draft{Title: "t", DueDate: &due, Recurrence: RecurDaily})

	got, err := s.ToggleComplete(created.ID, rec)
	if err != nil {
		t.Fatal(err)
	}
	if got.DueDate == nil || !got.DueDate.Equal(date(2024, 6, 2)) {
		t.Fatalf("dueDate = %v, want 2024-06-02", got.DueDate)
	}
	if len(s.Tasks()) != 1 {
		t.Fatal("recurring task must stay in the live set")
	}
	if len(rec.events) != 1 {
		t.Fatal("completion must still be recorded once")
	}
}

func TestToggleCompleteNonRecurringKeepsDueDate(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	due := date(2024, 6, 5)
	created := mustCreate(t, s, Draft{Title: "t", DueDate: &due})

	got, _ := s.ToggleComplete(created.ID, newFakeRecorder())
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("non-recurring dueDate changed: %v", got.DueDate)
	}
}

func TestToggleCompleteNotFound(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	_, err := s.ToggleComplete("missing", newFakeRecorder())
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

// Complete only ever moves a task forward: calling it on an already
// completed task changes nothing and records nothing.
func TestCompleteIsForwardOnly(t *testing.T) {
	now := date(2024, 6, 1)
	s := newTestStore(t, now)
	rec := newFakeRecorder()
	created := mustCreate(t, s, Draft{Title: "t"})

	got, err := s.Complete(created.ID, rec)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completed || got.Status != StatusDone {
		t.Fatalf("unexpected state: %+v", got)
	}

	got, err = s.Complete(created.ID, rec)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completed {
		t.Fatal("second Complete must not undo the first")
	}
	if len(rec.events) != 1 {
		t.Fatalf("events = %d, want 1", len(rec.events))
	}

	_, err = s.Complete("missing", rec)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRestoreCompleted(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	rec := newFakeRecorder()
	created := mustCreate(t, s, Draft{Title: "t"})
	s.ToggleComplete(created.ID, rec)

	got, err := s.RestoreCompleted(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Completed || got.CompletedAt != nil || got.Status != StatusToDo {
		t.Fatalf("restore should clear completion: %+v", got)
	}
	if len(rec.events) != 1 {
		t.Fatal("restore must not touch recorded history")
	}

	// Restoring an already-active task is a no-op.
	if _, err := s.RestoreCompleted(created.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.RestoreCompleted("missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

// ============================================================
// Subtasks
// ============================================================

func TestSubtasks(t *testing.T) {
	s := newTestStore(t, date(2024, 6, 1))
	created := mustCreate(t, s, Draft{Title: "t"})

	if _, err := s.AddSubtask(created.ID, "outline"); err != nil {
		t.Fatal(err)
	}
	got, err := s.ToggleSubtask(created.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Subtasks) != 1 || !got.Subtasks[0].Done {
		t.Fatalf("unexpected subtasks: %+v", got.Subtasks)
	}

	_, err = s.ToggleSubtask(created.ID, 5)
	var ie *IndexError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IndexError, got %v", err)
	}
	_, err = s.AddSubtask("missing", "x")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

// ============================================================
// Pruning
// ============================================================

func TestPruneCompletedOlderThan(t *testing.T) {
	now := date(2024, 6, 15)
	s := newTestStore(t, now)
	rec := newFakeRecorder()

	old := mustCreate(t, s, Draft{Title: "old"})
	fresh := mustCreate(t, s, Draft{Title: "fresh"})
	open := mustCreate(t, s, Draft{Title: "open"})

	s.ToggleComplete(old.ID, rec)
	s.ToggleComplete(fresh.ID, rec)

	// Backdate the first completion past the window.
	stale := now.AddDate(0, 0, -10)
	s.byID[old.ID].CompletedAt = &stale

	removed := s.PruneCompletedOlderThan(7 * 24 * time.Hour)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := s.Get(old.ID); err == nil {
		t.Fatal("stale completed task should be pruned")
	}
	if _, err := s.Get(fresh.ID); err != nil {
		t.Fatal("recent completion should survive")
	}
	if _, err := s.Get(open.ID); err != nil {
		t.Fatal("incomplete task should survive")
	}
}
