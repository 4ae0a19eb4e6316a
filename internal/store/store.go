// Package store provides server-side persistence for the Progress Store.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fentz26/aitracker/internal/models"
)

// ErrInvalidDocument is returned when a progress document is not a JSON object.
var ErrInvalidDocument = errors.New("progress document must be a JSON object")

// Repository is the storage contract of the Progress Store. Progress
// documents are opaque JSON: the repository never interprets them.
type Repository interface {
	// LoadProgress returns the stored document for userID, or nil when none exists.
	LoadProgress(ctx context.Context, userID string) ([]byte, error)
	// SaveProgress overwrites the document for userID and appends it to the history.
	SaveProgress(ctx context.Context, userID string, doc []byte) error
	SaveDailyLog(ctx context.Context, userID string, log *models.DailyLog) error
	// ListDailyLogs returns the newest logs first. limit <= 0 means all.
	ListDailyLogs(ctx context.Context, userID string, limit int) ([]models.DailyLog, error)
	WriteDecision(ctx context.Context, d *models.Decision) error
	ListDecisions(ctx context.Context, limit int) ([]models.Decision, error)
	// PruneHistory deletes history rows recorded before cutoff and reports how many went.
	PruneHistory(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open picks a repository from a database URL: postgres:// and postgresql://
// URLs use Postgres, anything else is a SQLite file path.
func Open(ctx context.Context, databaseURL string) (Repository, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresStore(ctx, PostgresConfig{DSN: databaseURL})
	default:
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		return NewSQLiteStore(path)
	}
}

// Driver names the backend behind a repository for health output.
func Driver(r Repository) string {
	switch r.(type) {
	case *PostgresStore:
		return "postgres"
	case *SQLiteStore:
		return "sqlite"
	default:
		return "unknown"
	}
}
