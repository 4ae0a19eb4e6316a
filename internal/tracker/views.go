package tracker

import (
	"time"

	"github.com/fentz26/aitracker/internal/models"
)

// ReviewIntervals are the whole-day offsets at which a completed task comes back for review.
var ReviewIntervals = []int{1, 3, 7, 14}

// ReviewItem is a completed task due for spaced-repetition review.
type ReviewItem struct {
	TaskID      string `json:"taskId"`
	Description string `json:"description,omitempty"`
	DaysSince   int    `json:"daysSince"`
}

// ReviewQueue returns completed tasks whose whole days since completion
// match a review interval, in completion order.
func (t *Tracker) ReviewQueue() []ReviewItem {
	items := ReviewQueue(t.snap, t.now())
	for i := range items {
		if task, _, ok := t.cur.Task(items[i].TaskID); ok {
			items[i].Description = task.Description
		}
	}
	return items
}

// ReviewQueue computes the review set for snap at now.
func ReviewQueue(snap *models.Snapshot, now time.Time) []ReviewItem {
	var items []ReviewItem
	for _, id := range snap.CompletedTasks {
		done, ok := snap.CompletionDates[id]
		if !ok {
			continue
		}
		elapsed := now.Sub(done)
		if elapsed < 0 {
			continue
		}
		days := int(elapsed / (24 * time.Hour))
		if isReviewDay(days) {
			items = append(items, ReviewItem{TaskID: id, DaysSince: days})
		}
	}
	return items
}

func isReviewDay(days int) bool {
	for _, d := range ReviewIntervals {
		if d == days {
			return true
		}
	}
	return false
}

// WeekProgress is the percentage of the current week's tasks completed.
func (t *Tracker) WeekProgress() float64 {
	tasks := t.cur.WeekTasks(t.snap.CurrentWeek)
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, task := range tasks {
		if t.snap.IsCompleted(task.ID) {
			done++
		}
	}
	return float64(done) / float64(len(tasks)) * 100
}

// Achievement is an unlockable badge and whether the snapshot has earned it.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Unlocked    bool
}

// AchievementDef defines an achievement's unlock predicate. Predicates only
// read fields that never decrease, so an unlocked achievement stays unlocked.
type AchievementDef struct {
	ID          string
	Name        string
	Description string
	Predicate   func(*models.Snapshot) bool
}

// Achievements is the achievement table in display order.
var Achievements = []AchievementDef{
	{
		ID:          "first_task",
		Name:        "First Steps",
		Description: "Complete your first task",
		Predicate:   func(s *models.Snapshot) bool { return len(s.CompletedTasks) > 0 },
	},
	{
		ID:          "error_handler",
		Name:        "Error Handler",
		Description: "Complete three tasks",
		Predicate:   func(s *models.Snapshot) bool { return len(s.CompletedTasks) >= 3 },
	},
	{
		ID:          "pipeline_builder",
		Name:        "Pipeline Builder",
		Description: "Add a project to your portfolio",
		Predicate:   func(s *models.Snapshot) bool { return len(s.PortfolioItems) > 0 },
	},
	{
		ID:          "persistent_learner",
		Name:        "Persistent Learner",
		Description: "Flag a task you found hard",
		Predicate:   func(s *models.Snapshot) bool { return len(s.StruggledTasks) > 0 },
	},
	{
		ID:          "xp_hunter",
		Name:        "XP Hunter",
		Description: "Earn 1000 XP",
		Predicate:   func(s *models.Snapshot) bool { return s.TotalXP >= 1000 },
	},
	{
		ID:          "certification_ready",
		Name:        "Exam Ready",
		Description: "Reach 80% on any certification",
		Predicate: func(s *models.Snapshot) bool {
			for _, pct := range s.CertificationProgress {
				if pct >= 80 {
					return true
				}
			}
			return false
		},
	},
}

// Achievements evaluates the achievement table against the snapshot.
func (t *Tracker) Achievements() []Achievement {
	return EvaluateAchievements(t.snap)
}

// EvaluateAchievements evaluates the achievement table against snap.
func EvaluateAchievements(snap *models.Snapshot) []Achievement {
	out := make([]Achievement, len(Achievements))
	for i, def := range Achievements {
		out[i] = Achievement{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Unlocked:    def.Predicate(snap),
		}
	}
	return out
}
