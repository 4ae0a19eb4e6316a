package tracker

import (
	"time"

	"github.com/fentz26/aitracker/internal/models"
)

// Struggle thresholds for the adaptive difficulty heuristic.
const (
	easeOffAbove = 3
	pushUpBelow  = 2
)

// CompleteTask marks a task done and awards XP. Completing a task twice is a
// no-op. The multiplier, portfolio eligibility and certification credit follow
// the curriculum category of the task, not Category.
type CompleteTask struct {
	TaskID   string
	Points   int
	Category models.Category
}

func (a CompleteTask) apply(t *Tracker, now time.Time) (Result, error) {
	task, _, ok := t.cur.Task(a.TaskID)
	if !ok {
		return Result{}, ErrUnknownTask
	}
	if a.Points <= 0 {
		return Result{}, ErrInvalidPoints
	}
	s := t.snap
	if s.IsCompleted(a.TaskID) {
		return Result{}, nil
	}

	earned := EarnedXP(a.Points, task.Category)
	s.CompletedTasks = append(s.CompletedTasks, a.TaskID)
	s.CompletionDates[a.TaskID] = now.UTC()
	s.TotalXP += earned
	s.DailyXP += earned

	if task.Category.IsPortfolio() && !s.HasPortfolioItem(a.TaskID) {
		s.PortfolioItems = append(s.PortfolioItems, models.PortfolioItem{
			TaskID:        a.TaskID,
			Name:          task.Description,
			CompletedDate: now.UTC(),
			Type:          task.Category,
			XP:            earned,
		})
	}

	cert := t.cur.CertificationFor(task)
	s.CertificationProgress[cert] = models.ClampPercent(s.CertificationProgress[cert] + CertificationIncrement(task.Category))

	return Result{
		Changed:     true,
		EarnedXP:    earned,
		Celebration: &Celebration{DailyXP: s.DailyXP, Until: now.Add(CelebrationDuration)},
	}, nil
}

// EarnedXP applies the category multiplier: capstone x1.5, project x1.2.
// Integer arithmetic keeps the result an exact floor.
func EarnedXP(points int, category models.Category) int {
	switch category {
	case models.CategoryCapstone:
		return points * 3 / 2
	case models.CategoryProject:
		return points * 6 / 5
	default:
		return points
	}
}

// CertificationIncrement is the certification progress a completion adds.
func CertificationIncrement(category models.Category) int {
	switch category {
	case models.CategoryAI:
		return 5
	case models.CategoryProduction:
		return 3
	default:
		return 1
	}
}

// MarkStruggled adds a task to the struggled set and re-evaluates difficulty.
type MarkStruggled struct {
	TaskID string
}

func (a MarkStruggled) apply(t *Tracker, _ time.Time) (Result, error) {
	if !t.cur.Has(a.TaskID) {
		return Result{}, ErrUnknownTask
	}
	s := t.snap
	if s.IsStruggled(a.TaskID) {
		return Result{}, nil
	}
	s.StruggledTasks = append(s.StruggledTasks, a.TaskID)

	switch n := len(s.StruggledTasks); {
	case n > easeOffAbove:
		s.DifficultyLevel = models.DifficultyEasy
	case n < pushUpBelow:
		s.DifficultyLevel = models.DifficultyHard
	}
	return Result{Changed: true}, nil
}

// UpdateNotes stores free text against a task, last write wins.
type UpdateNotes struct {
	TaskID string
	Text   string
}

func (a UpdateNotes) apply(t *Tracker, _ time.Time) (Result, error) {
	if !t.cur.Has(a.TaskID) {
		return Result{}, ErrUnknownTask
	}
	t.snap.Notes[a.TaskID] = a.Text
	return Result{Changed: true}, nil
}

// AdvanceDay moves the day cursor, clamped to the week. The week never changes.
type AdvanceDay struct {
	Delta int
}

func (a AdvanceDay) apply(t *Tracker, _ time.Time) (Result, error) {
	next := models.ClampDay(t.snap.CurrentDay + a.Delta)
	if next == t.snap.CurrentDay {
		return Result{}, nil
	}
	t.snap.CurrentDay = next
	return Result{Changed: true}, nil
}

// AdvanceWeek moves the week cursor within the declared curriculum and rewinds to day one.
type AdvanceWeek struct {
	Delta int
}

func (a AdvanceWeek) apply(t *Tracker, _ time.Time) (Result, error) {
	last := t.cur.WeekCount()
	if last < 1 {
		last = 1
	}
	next := t.snap.CurrentWeek + a.Delta
	if next < 1 {
		next = 1
	}
	if next > last {
		next = last
	}
	if next == t.snap.CurrentWeek {
		return Result{}, nil
	}
	t.snap.CurrentWeek = next
	t.snap.CurrentDay = models.MinDay
	return Result{Changed: true}, nil
}

// StartNewDay closes the previous learning day: it settles the streak and
// resets daily XP. It only runs when the learner asks for it.
type StartNewDay struct{}

func (StartNewDay) apply(t *Tracker, now time.Time) (Result, error) {
	s := t.snap
	today := now.Format(dateLayout)
	if s.LastActiveDate == today {
		return Result{}, nil
	}

	productive := s.DailyXP > 0
	switch {
	case s.LastActiveDate == "":
		if productive {
			s.Streak++
		}
	case !productive:
		s.Streak = 0
	case isDayBefore(s.LastActiveDate, today):
		s.Streak++
	default:
		// days between the closed day and today earned nothing
		s.Streak = 0
	}

	s.DailyXP = 0
	s.LastActiveDate = today
	return Result{Changed: true}, nil
}

const dateLayout = "2006-01-02"

func isDayBefore(prev, today string) bool {
	p, err := time.Parse(dateLayout, prev)
	if err != nil {
		return false
	}
	d, err := time.Parse(dateLayout, today)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Equal(d)
}
