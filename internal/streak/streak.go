// Package streak derives progress metrics and badge unlocks from the
// completion ledger. Everything here is pure computation: a Snapshot is
// replaced wholesale, never mutated.
package streak

import (
	"sort"
	"time"

	"github.com/candemir/studydeck/internal/history"
)

// Snapshot is the derived progress state at one point in time.
type Snapshot struct {
	CurrentStreak     int
	LongestStreak     int
	TotalCompletions  int
	PerDayCompletions map[string]int // day key -> completions
	MinutesPerDay     map[string]int // day key -> tracked study minutes
	Unlocked          []string
	NewlyUnlocked     []string
}

// Compute builds a snapshot from ledger entries, the tag sets of all live
// tasks, and the previously persisted unlocked-badge set.
//
// Unlocks are monotonic: prevUnlocked is always carried into Unlocked even
// if the underlying condition no longer holds, and NewlyUnlocked lists
// only the delta for one-time notification.
func Compute(entries []history.Entry, taskTags [][]string, prevUnlocked []string) Snapshot {
	snap := Snapshot{
		PerDayCompletions: make(map[string]int),
		MinutesPerDay:     make(map[string]int),
		TotalCompletions:  len(entries),
	}

	for _, e := range entries {
		snap.PerDayCompletions[e.Day]++
		snap.MinutesPerDay[e.Day] += e.EstimatedMinutes
	}

	days := make([]string, 0, len(snap.PerDayCompletions))
	for d := range snap.PerDayCompletions {
		days = append(days, d)
	}
	sort.Strings(days)
	snap.CurrentStreak, snap.LongestStreak = streaks(days)

	snap.Unlocked, snap.NewlyUnlocked = unlockBadges(snap, taskTags, prevUnlocked)
	return snap
}

// streaks walks sorted day keys and returns the run ending at the most
// recent day and the longest run seen. A gap of more than one calendar day
// resets the running count to 1.
func streaks(days []string) (current, longest int) {
	var prev time.Time
	run := 0
	for i, key := range days {
		day, err := time.Parse("2006-01-02", key)
		if err != nil {
			continue
		}
		if i == 0 || day.Sub(prev) > 24*time.Hour {
			run = 1
		} else {
			run++
		}
		if run > longest {
			longest = run
		}
		prev = day
	}
	return run, longest
}
