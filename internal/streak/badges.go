package streak

import "github.com/candemir/studydeck/internal/task"

// Badge identifiers. The emoji is part of the identifier and of the
// persisted unlocked set.
const (
	BadgeFirstTask    = "🐣 First Task"
	BadgeOverachiever = "🚀 Overachiever"
	BadgeStreak3      = "🔥 3-Day Streak"
	BadgeStreak7      = "🗓️ 7-Day Warrior"
	BadgeFocusRookie  = "👶 Focus Rookie"
	BadgePlannerPro   = "🗂️ Planner Pro"
)

// AllBadges in display order, with their unlock descriptions.
var AllBadges = []struct {
	ID   string
	Desc string
}{
	{BadgeFirstTask, "Complete your first task"},
	{BadgeOverachiever, "Complete 5 or more tasks"},
	{BadgeStreak3, "Complete tasks 3 days in a row"},
	{BadgeStreak7, "Complete tasks 7 days in a row"},
	{BadgeFocusRookie, "Study 60+ minutes in one day"},
	{BadgePlannerPro, "Use all 5 tags at least once"},
}

// unlockBadges evaluates every rule independently (all thresholds
// inclusive) and merges with the previously persisted set so a badge is
// never revoked.
func unlockBadges(snap Snapshot, taskTags [][]string, prevUnlocked []string) (unlocked, newly []string) {
	earned := make(map[string]bool)

	if snap.TotalCompletions >= 1 {
		earned[BadgeFirstTask] = true
	}
	if snap.TotalCompletions >= 5 {
		earned[BadgeOverachiever] = true
	}
	if snap.CurrentStreak >= 3 {
		earned[BadgeStreak3] = true
	}
	if snap.CurrentStreak >= 7 {
		earned[BadgeStreak7] = true
	}
	for _, minutes := range snap.MinutesPerDay {
		if minutes >= 60 {
			earned[BadgeFocusRookie] = true
			break
		}
	}
	if usesFullVocabulary(taskTags) {
		earned[BadgePlannerPro] = true
	}

	prev := make(map[string]bool, len(prevUnlocked))
	for _, b := range prevUnlocked {
		prev[b] = true
		earned[b] = true // monotonic: once unlocked, always unlocked
	}

	for _, b := range AllBadges {
		if !earned[b.ID] {
			continue
		}
		unlocked = append(unlocked, b.ID)
		if !prev[b.ID] {
			newly = append(newly, b.ID)
		}
	}
	return unlocked, newly
}

func usesFullVocabulary(taskTags [][]string) bool {
	seen := make(map[string]bool)
	for _, tags := range taskTags {
		for _, t := range tags {
			seen[t] = true
		}
	}
	for _, want := range task.TagVocabulary {
		if !seen[want] {
			return false
		}
	}
	return true
}
