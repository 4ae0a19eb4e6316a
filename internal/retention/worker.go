package retention

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fentz26/aitracker/internal/store"
)

// Worker periodically deletes history older than the retention window.
type Worker struct {
	repo   store.Repository
	config *Config
	logger *slog.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new retention worker.
func New(repo store.Repository, cfg *Config, logger *slog.Logger) *Worker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		repo:   repo,
		config: cfg,
		logger: logger,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the prune loop. The first prune runs immediately.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
	w.logger.Info("retention worker started", "retention_days", w.config.RetentionDays, "interval", w.config.Interval)
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
	w.logger.Info("retention worker stopped")
}

func (w *Worker) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.prune()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.prune()
		}
	}
}

func (w *Worker) prune() {
	if _, err := w.RunOnce(w.ctx); err != nil && w.ctx.Err() == nil {
		w.logger.Error("prune history failed", "error", err)
	}
}

// RunOnce prunes history recorded before now minus the retention window.
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.config.Window())
	n, err := w.repo.PruneHistory(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		w.logger.Info("pruned progress history", "rows", n, "cutoff", cutoff.UTC().Format(time.RFC3339))
	} else {
		w.logger.Debug("no progress history to prune")
	}
	return n, nil
}
