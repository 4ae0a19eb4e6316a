// Package tracker implements the progress-tracking state machine: task
// completion, XP and streak accounting, adaptive difficulty and the derived
// views (review queue, week progress, achievements).
//
// A Tracker owns exactly one snapshot. Every mutation goes through Dispatch;
// callers persist the snapshot themselves whenever a Result reports Changed.
package tracker

import (
	"errors"
	"time"

	"github.com/fentz26/aitracker/internal/curriculum"
	"github.com/fentz26/aitracker/internal/models"
)

// ErrUnknownTask is returned for task ids absent from the curriculum.
var ErrUnknownTask = errors.New("task not in curriculum")

// ErrInvalidPoints is returned when a completion carries no positive points.
var ErrInvalidPoints = errors.New("task points must be positive")

// CelebrationDuration is how long a completion celebration stays visible.
const CelebrationDuration = 3 * time.Second

// Celebration is the transient signal raised by a completion.
type Celebration struct {
	DailyXP int
	Until   time.Time
}

// Result describes the effect of a dispatched action.
type Result struct {
	// Changed is true when the snapshot was mutated and should be persisted.
	Changed     bool
	EarnedXP    int
	Celebration *Celebration
}

// Action is a single state transition.
type Action interface {
	apply(t *Tracker, now time.Time) (Result, error)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker holds the learner's snapshot and the curriculum it is scored against.
type Tracker struct {
	snap *models.Snapshot
	cur  *curriculum.Curriculum
	now  func() time.Time
}

// New creates a tracker over snap. A nil snap starts a fresh snapshot.
func New(cur *curriculum.Curriculum, snap *models.Snapshot, opts ...Option) *Tracker {
	if snap == nil {
		snap = models.NewSnapshot()
	}
	snap.Normalize()
	t := &Tracker{snap: snap, cur: cur, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dispatch applies a to the snapshot.
func (t *Tracker) Dispatch(a Action) (Result, error) {
	now := t.now()
	res, err := a.apply(t, now)
	if err != nil {
		return Result{}, err
	}
	if res.Changed {
		stamp := now.UTC()
		t.snap.LastUpdated = &stamp
	}
	return res, nil
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() *models.Snapshot {
	return t.snap.Clone()
}

// Replace swaps in a new snapshot, e.g. after hydrating from storage.
func (t *Tracker) Replace(snap *models.Snapshot) {
	if snap == nil {
		snap = models.NewSnapshot()
	}
	snap.Normalize()
	t.snap = snap
}

// Curriculum returns the curriculum the tracker scores against.
func (t *Tracker) Curriculum() *curriculum.Curriculum {
	return t.cur
}

// Now returns the tracker's current time.
func (t *Tracker) Now() time.Time {
	return t.now()
}

// CompleteTask dispatches a completion with explicit points and category.
func (t *Tracker) CompleteTask(taskID string, points int, category models.Category) (Result, error) {
	return t.Dispatch(CompleteTask{TaskID: taskID, Points: points, Category: category})
}

// Complete dispatches a completion scored from the curriculum entry.
func (t *Tracker) Complete(taskID string) (Result, error) {
	task, _, ok := t.cur.Task(taskID)
	if !ok {
		return Result{}, ErrUnknownTask
	}
	return t.CompleteTask(task.ID, task.Points, task.Category)
}

// MarkStruggled flags a task as difficult.
func (t *Tracker) MarkStruggled(taskID string) (Result, error) {
	return t.Dispatch(MarkStruggled{TaskID: taskID})
}

// UpdateNotes overwrites the note for a task.
func (t *Tracker) UpdateNotes(taskID, text string) (Result, error) {
	return t.Dispatch(UpdateNotes{TaskID: taskID, Text: text})
}

// AdvanceDay moves the day cursor by delta.
func (t *Tracker) AdvanceDay(delta int) Result {
	res, _ := t.Dispatch(AdvanceDay{Delta: delta})
	return res
}

// AdvanceWeek moves the week cursor by delta.
func (t *Tracker) AdvanceWeek(delta int) Result {
	res, _ := t.Dispatch(AdvanceWeek{Delta: delta})
	return res
}

// StartNewDay closes the previous learning day.
func (t *Tracker) StartNewDay() Result {
	res, _ := t.Dispatch(StartNewDay{})
	return res
}
