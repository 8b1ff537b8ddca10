// Package history keeps the append-only ledger of task completions. The
// ledger is independent of the live task list: a task can be deleted while
// its completion record survives.
package history

import (
	"log/slog"
	"sort"
	"time"

	"github.com/candemir/studydeck/internal/task"
)

// Entry is a snapshot of a task at the moment it was completed. Entries
// are never mutated after insertion.
type Entry struct {
	TaskID           string
	Title            string
	Tags             []string
	EstimatedMinutes int
	Priority         task.Priority
	CompletedAt      time.Time
	Day              string // calendar-day key, "2006-01-02"
}

// Persister saves the full ledger. Failures are logged, not returned.
type Persister interface {
	SaveHistory(entries []Entry) error
}

// Filter narrows a Query.
type Filter struct {
	TaskID     string
	From       *time.Time
	To         *time.Time
	Descending bool
}

// Ledger is the in-memory ledger, loaded once at startup and persisted on
// every append.
type Ledger struct {
	entries   []Entry
	seen      map[string]struct{} // dedup key: taskID + "|" + day
	persister Persister
	logger    *slog.Logger
}

func NewLedger(persister Persister, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		seen:      make(map[string]struct{}),
		persister: persister,
		logger:    logger,
	}
}

// Load replaces the ledger contents with persisted entries, dropping any
// duplicates that predate the dedup guard.
func (l *Ledger) Load(entries []Entry) {
	l.entries = l.entries[:0]
	l.seen = make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Day == "" {
			e.Day = task.DayKey(e.CompletedAt)
		}
		key := dedupKey(e.TaskID, e.Day)
		if _, dup := l.seen[key]; dup {
			continue
		}
		l.seen[key] = struct{}{}
		l.entries = append(l.entries, e)
	}
}

// Record appends an entry unless one already exists for the same
// (task, calendar day) pair. Duplicates are a silent no-op, reported by
// the false return.
func (l *Ledger) Record(e Entry) bool {
	if e.Day == "" {
		e.Day = task.DayKey(e.CompletedAt)
	}
	key := dedupKey(e.TaskID, e.Day)
	if _, dup := l.seen[key]; dup {
		return false
	}
	l.seen[key] = struct{}{}
	l.entries = append(l.entries, e)
	l.persist()
	return true
}

// RecordCompletion adapts a task snapshot into a ledger entry. Satisfies
// task.CompletionRecorder.
func (l *Ledger) RecordCompletion(t *task.Task, at time.Time) bool {
	return l.Record(Entry{
		TaskID:           t.ID,
		Title:            t.Title,
		Tags:             append([]string(nil), t.Tags...),
		EstimatedMinutes: t.EstimatedMinutes,
		Priority:         t.Priority,
		CompletedAt:      at,
		Day:              task.DayKey(at),
	})
}

// Query returns entries matching the filter, ordered by completion time.
func (l *Ledger) Query(f Filter) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if f.TaskID != "" && e.TaskID != f.TaskID {
			continue
		}
		if f.From != nil && e.CompletedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.CompletedAt.Before(*f.To) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Descending {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	return out
}

// All returns every entry in insertion order.
func (l *Ledger) All() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Days returns the distinct completion days in ascending order.
func (l *Ledger) Days() []string {
	set := make(map[string]struct{})
	for _, e := range l.entries {
		set[e.Day] = struct{}{}
	}
	days := make([]string, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// PurgeOlderThan drops entries completed before now-window and returns the
// number removed. Used for explicit retention pruning only; normal task
// deletion never reaches the ledger.
func (l *Ledger) PurgeOlderThan(window time.Duration, now time.Time) int {
	cutoff := now.Add(-window)
	return l.remove(func(e Entry) bool { return e.CompletedAt.Before(cutoff) })
}

// DeleteTask permanently removes all entries for the given task. This is
// the only path that deletes history for a live reason: an explicit
// user-requested permanent delete.
func (l *Ledger) DeleteTask(taskID string) int {
	return l.remove(func(e Entry) bool { return e.TaskID == taskID })
}

func (l *Ledger) remove(drop func(Entry) bool) int {
	kept := l.entries[:0]
	removed := 0
	for _, e := range l.entries {
		if drop(e) {
			delete(l.seen, dedupKey(e.TaskID, e.Day))
			removed++
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
	if removed > 0 {
		l.persist()
	}
	return removed
}

func (l *Ledger) persist() {
	if l.persister == nil {
		return
	}
	if err := l.persister.SaveHistory(l.entries); err != nil {
		l.logger.Error("save history failed", "err", err)
	}
}

func dedupKey(taskID, day string) string {
	return taskID + "|" + day
}
