package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/candemir/studydeck/internal/streak"
	"github.com/candemir/studydeck/internal/task"
)

const progressDays = 14 // chart window

type progressModel struct {
	deps   Deps
	width  int
	height int

	snapshot  streak.Snapshot
	total     int
	completed int

	completionsChart barchart.Model
	minutesChart     barchart.Model
}

func newProgressModel(deps Deps) progressModel {
	return progressModel{
		deps:             deps,
		completionsChart: barchart.New(60, 8),
		minutesChart:     barchart.New(60, 8),
	}
}

func (m *progressModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type progressDataMsg struct {
	snapshot  streak.Snapshot
	total     int
	completed int
	newly     []string
}

// refresh recomputes the snapshot and persists any newly unlocked badges
// so each unlocks notification fires exactly once.
func (m progressModel) refresh() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		prev, err := deps.DB.LoadBadges()
		if err != nil {
			deps.Logger.Error("load badges failed", "err", err)
		}

		tasks := deps.Store.Tasks()
		tags := make([][]string, 0, len(tasks))
		completed := 0
		for _, t := range tasks {
			tags = append(tags, t.Tags)
			if t.Completed {
				completed++
			}
		}

		snap := streak.Compute(deps.Ledger.All(), tags, prev)
		if len(snap.NewlyUnlocked) > 0 {
			if err := deps.DB.SaveBadges(snap.Unlocked); err != nil {
				deps.Logger.Error("save badges failed", "err", err)
			}
		}

		return progressDataMsg{
			snapshot:  snap,
			total:     len(tasks),
			completed: completed,
			newly:     snap.NewlyUnlocked,
		}
	}
}

func (m progressModel) update(msg tea.Msg) (progressModel, tea.Cmd) {
	switch msg := msg.(type) {
	case progressDataMsg:
		m.snapshot = msg.snapshot
		m.total = msg.total
		m.completed = msg.completed
		m.buildCharts()
		if len(msg.newly) > 0 {
			newly := msg.newly
			return m, func() tea.Msg { return badgesUnlockedMsg{badges: newly} }
		}
		return m, nil
	}
	return m, nil
}

func (m *progressModel) buildCharts() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}

	m.completionsChart = barchart.New(chartWidth, 8)
	m.minutesChart = barchart.New(chartWidth, 8)

	now := task.DayStart(m.deps.Clock.Now())
	start := now.AddDate(0, 0, -(progressDays - 1))

	var completionBars, minuteBars []barchart.BarData
	for d := start; !d.After(now); d = d.AddDate(0, 0, 1) {
		day := d.Format("2006-01-02")
		label := d.Format("02")

		completionBars = append(completionBars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  day,
				Value: float64(m.snapshot.PerDayCompletions[day]),
				Style: lipgloss.NewStyle().Foreground(colorSuccess),
			}},
		})
		minuteBars = append(minuteBars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  day,
				Value: float64(m.snapshot.MinutesPerDay[day]),
				Style: lipgloss.NewStyle().Foreground(colorHighlight),
			}},
		})
	}

	m.completionsChart.PushAll(completionBars)
	m.completionsChart.Draw()
	m.minutesChart.PushAll(minuteBars)
	m.minutesChart.Draw()
}

func (m progressModel) view() string {
	w := m.width - 4
	snap := m.snapshot

	header := titleStyle.Render("Progress")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.completed) / float64(m.total) * 100
	}
	statsLine := fmt.Sprintf("%s   %s   %s",
		mutedStyle.Render(fmt.Sprintf("%.0f%% of %d tasks completed", percent, m.total)),
		warningStyle.Render(fmt.Sprintf("🔥 %d-day streak", snap.CurrentStreak)),
		mutedStyle.Render(fmt.Sprintf("(longest %d)", snap.LongestStreak)),
	)

	badges := m.renderBadges()

	completionsTitle := mutedStyle.Render(fmt.Sprintf("Completions per day (last %d days)", progressDays))
	minutesTitle := mutedStyle.Render("Study minutes per day")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			statsLine,
			"",
			badges,
			"",
			completionsTitle,
			m.completionsChart.View(),
			"",
			minutesTitle,
			m.minutesChart.View(),
		),
	)
}

func (m progressModel) renderBadges() string {
	unlocked := make(map[string]bool, len(m.snapshot.Unlocked))
	for _, b := range m.snapshot.Unlocked {
		unlocked[b] = true
	}

	var items []string
	for _, b := range streak.AllBadges {
		if unlocked[b.ID] {
			items = append(items, successStyle.Render(b.ID))
		} else {
			items = append(items, mutedStyle.Render("🔒 "+b.Desc))
		}
	}
	return titleStyle.Render("Badges  ") + strings.Join(items, "   ")
}
