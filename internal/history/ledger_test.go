package history

import (
	"testing"
	"time"

	"github.com/candemir/studydeck/internal/task"
)

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func entry(taskID string, completed time.Time) Entry {
	return Entry{
		TaskID:      taskID,
		Title:       "t-" + taskID,
		CompletedAt: completed,
		Day:         task.DayKey(completed),
	}
}

func TestRecordDeduplicatesPerTaskAndDay(t *testing.T) {
	l := NewLedger(nil, nil)

	if !l.Record(entry("a", at(2024, 6, 1, 9))) {
		t.Fatal("first record should succeed")
	}
	// Same task, same calendar day, different time of day.
	if l.Record(entry("a", at(2024, 6, 1, 17))) {
		t.Fatal("duplicate (task, day) must be a no-op")
	}
	if !l.Record(entry("a", at(2024, 6, 2, 9))) {
		t.Fatal("next day must record")
	}
	if !l.Record(entry("b", at(2024, 6, 1, 9))) {
		t.Fatal("other task same day must record")
	}
	if got := len(l.All()); got != 3 {
		t.Fatalf("entries = %d, want 3", got)
	}
}

func TestRecordCompletionSnapshotsTask(t *testing.T) {
	l := NewLedger(nil, nil)
	now := at(2024, 6, 1, 9)
	tk := &task.Task{
		ID:               "a",
		Title:            "write report",
		Tags:             []string{"Work"},
		EstimatedMinutes: 50,
		Priority:         task.PriorityHigh,
	}
	if !l.RecordCompletion(tk, now) {
		t.Fatal("expected record")
	}

	got := l.All()[0]
	if got.Title != "write report" || got.EstimatedMinutes != 50 || got.Priority != task.PriorityHigh {
		t.Fatalf("snapshot mismatch: %+v", got)
	}
	if got.Day != "2024-06-01" {
		t.Fatalf("day = %q", got.Day)
	}

	// Later edits to the task must not reach the stored entry.
	tk.Title = "renamed"
	tk.Tags[0] = "Personal"
	got = l.All()[0]
	if got.Title != "write report" || got.Tags[0] != "Work" {
		t.Fatalf("entry mutated after record: %+v", got)
	}
}

func TestLoadDropsLegacyDuplicates(t *testing.T) {
	l := NewLedger(nil, nil)
	l.Load([]Entry{
		entry("a", at(2024, 6, 1, 9)),
		entry("a", at(2024, 6, 1, 15)),
		entry("b", at(2024, 6, 1, 9)),
	})
	if got := len(l.All()); got != 2 {
		t.Fatalf("entries = %d, want 2", got)
	}
	// The guard survives the load: re-recording is still a no-op.
	if l.Record(entry("a", at(2024, 6, 1, 20))) {
		t.Fatal("dedup guard lost across Load")
	}
}

func TestQueryFiltersAndOrders(t *testing.T) {
	l := NewLedger(nil, nil)
	l.Record(entry("a", at(2024, 6, 3, 9)))
	l.Record(entry("b", at(2024, 6, 1, 9)))
	l.Record(entry("a", at(2024, 6, 2, 9)))

	asc := l.Query(Filter{})
	if len(asc) != 3 || !asc[0].CompletedAt.Before(asc[1].CompletedAt) || !asc[1].CompletedAt.Before(asc[2].CompletedAt) {
		t.Fatalf("ascending order broken: %+v", asc)
	}

	desc := l.Query(Filter{Descending: true})
	if !desc[0].CompletedAt.After(desc[1].CompletedAt) {
		t.Fatalf("descending order broken: %+v", desc)
	}

	byTask := l.Query(Filter{TaskID: "a"})
	if len(byTask) != 2 {
		t.Fatalf("task filter: got %d entries", len(byTask))
	}

	from := at(2024, 6, 2, 0)
	to := at(2024, 6, 3, 0)
	window := l.Query(Filter{From: &from, To: &to})
	if len(window) != 1 || window[0].Day != "2024-06-02" {
		t.Fatalf("window filter: %+v", window)
	}
}

func TestDaysAreDistinctAndSorted(t *testing.T) {
	l := NewLedger(nil, nil)
	l.Record(entry("a", at(2024, 6, 3, 9)))
	l.Record(entry("b", at(2024, 6, 1, 9)))
	l.Record(entry("c", at(2024, 6, 3, 11)))

	days := l.Days()
	if len(days) != 2 || days[0] != "2024-06-01" || days[1] != "2024-06-03" {
		t.Fatalf("days = %v", days)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	l := NewLedger(nil, nil)
	now := at(2024, 6, 15, 12)
	l.Record(entry("old", now.AddDate(0, 0, -10)))
	l.Record(entry("fresh", now.AddDate(0, 0, -2)))

	removed := l.PurgeOlderThan(7*24*time.Hour, now)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	rest := l.All()
	if len(rest) != 1 || rest[0].TaskID != "fresh" {
		t.Fatalf("remaining = %+v", rest)
	}
	// Purged slots are free for re-recording.
	if !l.Record(entry("old", now.AddDate(0, 0, -10))) {
		t.Fatal("dedup key should be released on purge")
	}
}

// Removing a task from the live store never reaches the ledger; only the
// ledger's own DeleteTask does.
func TestStoreDeleteLeavesLedgerIntact(t *testing.T) {
	l := NewLedger(nil, nil)
	s := task.NewStore(task.FixedClock{T: at(2024, 6, 1, 9)}, nil, nil)

	created, err := s.Create(task.Draft{Title: "t"})
	if err != nil {
		t.Fatal(err)
	}
	s.ToggleComplete(created.ID, l)
	s.Delete(created.ID)

	if len(l.All()) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(l.All()))
	}
	if l.All()[0].TaskID != created.ID {
		t.Fatal("entry should still reference the deleted task")
	}
}

func TestDeleteTask(t *testing.T) {
	l := NewLedger(nil, nil)
	l.Record(entry("a", at(2024, 6, 1, 9)))
	l.Record(entry("a", at(2024, 6, 2, 9)))
	l.Record(entry("b", at(2024, 6, 1, 9)))

	if removed := l.DeleteTask("a"); removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	rest := l.All()
	if len(rest) != 1 || rest[0].TaskID != "b" {
		t.Fatalf("remaining = %+v", rest)
	}
	if l.DeleteTask("a") != 0 {
		t.Fatal("second delete must remove nothing")
	}
}
