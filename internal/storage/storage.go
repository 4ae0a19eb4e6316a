// Package storage persists progress snapshots for the tracker client. The
// remote Progress Store and the local cache implement the same Storage
// capability; Fallback selects between them.
package storage

import (
	"context"
	"errors"

	"github.com/fentz26/aitracker/internal/models"
)

// ErrNoData means the source holds no snapshot.
var ErrNoData = errors.New("no progress data")

// Storage loads and saves full progress snapshots.
type Storage interface {
	// Load returns the latest snapshot or ErrNoData.
	Load(ctx context.Context) (*models.Snapshot, error)
	// Save overwrites the stored snapshot.
	Save(ctx context.Context, snap *models.Snapshot) error
}
