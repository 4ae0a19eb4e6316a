// Package session ties a tracker to its storage on the client side: it
// hydrates the snapshot once and persists it after every accepted mutation.
// Persistence failures are logged and never surface to the caller.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/fentz26/aitracker/internal/models"
	"github.com/fentz26/aitracker/internal/storage"
	"github.com/fentz26/aitracker/internal/tracker"
)

// Session is the single owner of a learner's in-memory progress.
type Session struct {
	mu      sync.Mutex
	tracker *tracker.Tracker
	store   storage.Storage
	syncer  *storage.Syncer
	logger  *slog.Logger
}

// New creates a session over t persisting to store.
func New(t *tracker.Tracker, store storage.Storage, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		tracker: t,
		store:   store,
		syncer:  storage.NewSyncer(store, logger),
		logger:  logger,
	}
}

// Hydrate replaces the tracker state with the stored snapshot. Saves still
// in flight finish first so a reload never reads state older than memory.
// When no source has data the tracker keeps a fresh snapshot. Load errors
// are logged and treated the same way.
func (s *Session) Hydrate(ctx context.Context) {
	_ = s.syncer.Wait()

	snap, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNoData) {
			s.logger.Error("load progress failed, starting fresh", "error", err)
		}
		snap = models.NewSnapshot()
	}
	s.mu.Lock()
	s.tracker.Replace(snap)
	s.mu.Unlock()
}

// Dispatch applies a and schedules a save when the snapshot changed.
func (s *Session) Dispatch(a tracker.Action) (tracker.Result, error) {
	s.mu.Lock()
	res, err := s.tracker.Dispatch(a)
	var snap *models.Snapshot
	if err == nil && res.Changed {
		snap = s.tracker.Snapshot()
	}
	s.mu.Unlock()

	if err != nil {
		return res, err
	}
	if snap != nil {
		s.syncer.Schedule(snap)
	}
	return res, nil
}

// Complete completes a curriculum task.
func (s *Session) Complete(taskID string) (tracker.Result, error) {
	task, _, ok := s.tracker.Curriculum().Task(taskID)
	if !ok {
		return tracker.Result{}, tracker.ErrUnknownTask
	}
	return s.Dispatch(tracker.CompleteTask{TaskID: task.ID, Points: task.Points, Category: task.Category})
}

// MarkStruggled flags a task as hard.
func (s *Session) MarkStruggled(taskID string) (tracker.Result, error) {
	return s.Dispatch(tracker.MarkStruggled{TaskID: taskID})
}

// UpdateNotes overwrites a task note.
func (s *Session) UpdateNotes(taskID, text string) (tracker.Result, error) {
	return s.Dispatch(tracker.UpdateNotes{TaskID: taskID, Text: text})
}

// AdvanceDay moves the day cursor.
func (s *Session) AdvanceDay(delta int) tracker.Result {
	res, _ := s.Dispatch(tracker.AdvanceDay{Delta: delta})
	return res
}

// AdvanceWeek moves the week cursor.
func (s *Session) AdvanceWeek(delta int) tracker.Result {
	res, _ := s.Dispatch(tracker.AdvanceWeek{Delta: delta})
	return res
}

// StartNewDay closes the previous learning day.
func (s *Session) StartNewDay() tracker.Result {
	res, _ := s.Dispatch(tracker.StartNewDay{})
	return res
}

// View runs fn with the tracker under the session lock. fn must not
// dispatch.
func (s *Session) View(fn func(t *tracker.Tracker)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.tracker)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Snapshot()
}

// Flush waits for scheduled saves and reports the last save error.
func (s *Session) Flush() error {
	return s.syncer.Wait()
}
