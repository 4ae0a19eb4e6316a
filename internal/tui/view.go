package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/aitracker/internal/analytics"
	"github.com/fentz26/aitracker/internal/models"
	"github.com/fentz26/aitracker/internal/tracker"
)

var (
	tabStyle       = lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Foreground(fgColor).Background(secondaryColor).Bold(true).Padding(0, 1)
	xpStyle        = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	streakStyle    = lipgloss.NewStyle().Foreground(cyanColor).Bold(true)
	doneStyle      = lipgloss.NewStyle().Foreground(successColor)
	struggleStyle  = lipgloss.NewStyle().Foreground(warningColor)
)

// View implements tea.Model
func (a *App) View() string {
	if !a.hydrated {
		return titleStyle.Render("AI Engineer Tracker") + "\n\n  Loading progress..."
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.renderTabs())
	b.WriteString("\n\n")

	if a.mode == modeToday {
		b.WriteString(a.renderToday())
	} else {
		b.WriteString(panelStyle.Width(max(20, a.width-4)).Render(a.viewport.View()))
	}
	b.WriteString("\n")

	if a.celebration != nil {
		b.WriteString(celebrationStyle.Render(fmt.Sprintf("🎉 Task complete! %d XP today", a.celebration.DailyXP)))
		b.WriteString("\n")
	}
	if a.message != "" {
		b.WriteString(helpStyle.Render(a.message))
		b.WriteString("\n")
	}
	if a.editing {
		b.WriteString(inputBoxStyle.Width(max(20, a.width-4)).Render(a.input.View()))
		b.WriteString("\n")
	}
	b.WriteString(a.renderStatusBar())
	return b.String()
}

func (a *App) renderHeader() string {
	snap := a.session.Snapshot()

	store := offlineStyle.Render("○ offline")
	if a.storeOnline {
		store = onlineStyle.Render("● synced")
	}

	title := titleStyle.Render("AI Engineer Tracker")
	stats := fmt.Sprintf("%s  %s  today %s  difficulty %s",
		xpStyle.Render(fmt.Sprintf("%d XP", snap.TotalXP)),
		streakStyle.Render(fmt.Sprintf("🔥 %d", snap.Streak)),
		xpStyle.Render(fmt.Sprintf("+%d", snap.DailyXP)),
		string(snap.DifficultyLevel),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", store) + "\n" + "  " + stats
}

func (a *App) renderTabs() string {
	tabs := make([]string, len(modeNames))
	for i, name := range modeNames {
		if mode(i) == a.mode {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderToday() string {
	var (
		snap     *models.Snapshot
		tasks    []models.Task
		weekPct  float64
		weekName string
		dayName  string
	)
	a.session.View(func(t *tracker.Tracker) {
		snap = t.Snapshot()
		cur := t.Curriculum()
		tasks = cur.DayTasks(snap.CurrentWeek, snap.CurrentDay)
		weekPct = t.WeekProgress()
		if w, ok := cur.Week(snap.CurrentWeek); ok {
			weekName = w.Title
			for _, d := range w.Days {
				if d.Day == snap.CurrentDay {
					dayName = d.Title
				}
			}
		}
	})

	var b strings.Builder
	heading := fmt.Sprintf("Week %d · Day %d", snap.CurrentWeek, snap.CurrentDay)
	if weekName != "" {
		heading += "  " + mutedStyle.Render(weekName)
	}
	b.WriteString(titleStyle.Render(heading))
	b.WriteString("\n")
	b.WriteString("  " + a.bar.ViewAs(weekPct/100) + fmt.Sprintf(" %.0f%% of week", weekPct))
	b.WriteString("\n")
	if dayName != "" {
		b.WriteString("  " + mutedStyle.Render(dayName) + "\n")
	}
	b.WriteString("\n")

	if len(tasks) == 0 {
		b.WriteString(helpStyle.Render("  No tasks scheduled for this day."))
		b.WriteString("\n")
		return b.String()
	}

	for i, task := range tasks {
		mark := "[ ]"
		if snap.IsCompleted(task.ID) {
			mark = doneStyle.Render("[✓]")
		}
		line := fmt.Sprintf("%s %s  %s", mark, task.Description,
			mutedStyle.Render(fmt.Sprintf("%d pts · %.1fh · %s", task.Points, task.EstimatedHours, task.Difficulty)))
		if snap.IsStruggled(task.ID) {
			line += " " + struggleStyle.Render("⚑")
		}
		if note := snap.Notes[task.ID]; note != "" {
			line += " " + mutedStyle.Render("✎")
		}
		if i == a.selectedIdx {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(taskItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if task, ok := a.selectedTask(); ok {
		if note := snap.Notes[task.ID]; note != "" {
			b.WriteString("\n")
			b.WriteString(helpStyle.Render("  Note: " + note))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a *App) renderReview() string {
	var items []tracker.ReviewItem
	a.session.View(func(t *tracker.Tracker) {
		items = t.ReviewQueue()
	})

	var b strings.Builder
	b.WriteString(titleStyle.Render("Spaced Repetition"))
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString(helpStyle.Render("Nothing to review today."))
		return b.String()
	}
	for _, item := range items {
		desc := item.Description
		if desc == "" {
			desc = item.TaskID
		}
		fmt.Fprintf(&b, "  ↻ %s %s\n", desc, mutedStyle.Render(fmt.Sprintf("(%d days ago)", item.DaysSince)))
	}
	return b.String()
}

func (a *App) renderPortfolio() string {
	snap := a.session.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Certifications"))
	b.WriteString("\n\n")
	for _, c := range analytics.SortedCertifications(snap) {
		pct := snap.CertificationProgress[c]
		fmt.Fprintf(&b, "  %-20s %s %3d%%\n", c, a.bar.ViewAs(float64(pct)/100), pct)
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Portfolio"))
	b.WriteString("\n\n")
	if len(snap.PortfolioItems) == 0 {
		b.WriteString(helpStyle.Render("Complete a project or capstone to add it here."))
		return b.String()
	}
	for _, p := range snap.PortfolioItems {
		fmt.Fprintf(&b, "  ★ %s %s\n", p.Name,
			mutedStyle.Render(fmt.Sprintf("%s · %d XP · %s", p.Type, p.XP, p.CompletedDate.Format("2006-01-02"))))
	}
	return b.String()
}

func (a *App) renderAchievements() string {
	var achievements []tracker.Achievement
	a.session.View(func(t *tracker.Tracker) {
		achievements = t.Achievements()
	})

	var b strings.Builder
	b.WriteString(titleStyle.Render("Achievements"))
	b.WriteString("\n\n")
	for _, ach := range achievements {
		if ach.Unlocked {
			fmt.Fprintf(&b, "  %s %s %s\n", doneStyle.Render("🏆"), ach.Name, mutedStyle.Render(ach.Description))
		} else {
			fmt.Fprintf(&b, "  %s %s %s\n", mutedStyle.Render("🔒"), mutedStyle.Render(ach.Name), mutedStyle.Render(ach.Description))
		}
	}
	return b.String()
}

func (a *App) renderStatusBar() string {
	var help string
	switch {
	case a.editing:
		help = "enter save • esc cancel"
	case a.mode == modeToday:
		help = "↑↓ select • enter done • s hard • n note • ←→ day • [] week • d new day • tab view • q quit"
	default:
		help = "↑↓ scroll • tab view • r reload • q quit"
	}
	return statusBarStyle.Width(max(20, a.width)).Render(help)
}
