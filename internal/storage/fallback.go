package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fentz26/aitracker/internal/models"
)

// Fallback prefers the primary store and keeps the cache as a mirror.
//
// Load returns the primary's snapshot when it has one, refreshing the cache
// with it; otherwise the cached snapshot. Save writes both; it fails only
// when neither write succeeded.
type Fallback struct {
	Primary Storage
	Cache   Storage
	Logger  *slog.Logger
}

// NewFallback combines a primary store with a local cache.
func NewFallback(primary, cache Storage, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{Primary: primary, Cache: cache, Logger: logger}
}

// Load returns the best available snapshot or ErrNoData.
func (f *Fallback) Load(ctx context.Context) (*models.Snapshot, error) {
	snap, err := f.Primary.Load(ctx)
	if err == nil {
		if cerr := f.Cache.Save(ctx, snap); cerr != nil {
			f.Logger.Warn("refresh cache failed", "error", cerr)
		}
		return snap, nil
	}
	if !errors.Is(err, ErrNoData) {
		f.Logger.Warn("progress store unavailable, using local cache", "error", err)
	}

	cached, cerr := f.Cache.Load(ctx)
	if cerr != nil {
		if errors.Is(cerr, ErrNoData) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("load progress: store: %v; cache: %w", err, cerr)
	}
	return cached, nil
}

// Save writes snap to both stores.
func (f *Fallback) Save(ctx context.Context, snap *models.Snapshot) error {
	perr := f.Primary.Save(ctx, snap)
	if perr != nil {
		f.Logger.Warn("save to progress store failed, keeping local copy", "error", perr)
	}
	cerr := f.Cache.Save(ctx, snap)
	if cerr != nil {
		f.Logger.Warn("save to local cache failed", "error", cerr)
	}
	if perr != nil && cerr != nil {
		return fmt.Errorf("save progress: store: %v; cache: %w", perr, cerr)
	}
	return nil
}
