package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fentz26/aitracker/internal/models"
)

// DefaultSaveTimeout bounds a single background save.
const DefaultSaveTimeout = 15 * time.Second

// Syncer persists snapshots off the caller's goroutine. Saves run one at a
// time in scheduling order; while a save is in flight only the newest
// pending snapshot is kept.
type Syncer struct {
	store   Storage
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending *models.Snapshot
	running bool
	lastErr error
	wg      sync.WaitGroup
}

// NewSyncer creates a syncer writing to store.
func NewSyncer(store Storage, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, logger: logger, timeout: DefaultSaveTimeout}
}

// Schedule queues a copy of snap for saving and returns immediately.
func (s *Syncer) Schedule(snap *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = snap.Clone()
	if s.running {
		return
	}
	s.running = true
	s.wg.Add(1)
	go s.drain()
}

func (s *Syncer) drain() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		snap := s.pending
		s.pending = nil
		if snap == nil {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.store.Save(ctx, snap)
		cancel()

		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		if err != nil {
			s.logger.Error("persist progress failed", "error", err)
		}
	}
}

// Wait blocks until every scheduled save has finished and returns the
// result of the last one.
func (s *Syncer) Wait() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
