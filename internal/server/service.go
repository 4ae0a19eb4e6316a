// Package server provides the Progress Store HTTP API and its service layer.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fentz26/aitracker/internal/analytics"
	"github.com/fentz26/aitracker/internal/audit"
	"github.com/fentz26/aitracker/internal/curriculum"
	"github.com/fentz26/aitracker/internal/models"
	"github.com/fentz26/aitracker/internal/store"
	"github.com/fentz26/aitracker/internal/tracker"
)

// Version is reported by the info, health and backup endpoints.
const Version = "1.0.0"

// DefaultUserID is used when a request names no user.
const DefaultUserID = "default_user"

// FrontendConfig is the client-facing configuration served at /config.
type FrontendConfig struct {
	APIURL                  string `json:"api_url"`
	Debug                   bool   `json:"debug"`
	Environment             string `json:"environment"`
	AnalyticsEnabled        bool   `json:"analytics_enabled"`
	SpacedRepetitionEnabled bool   `json:"spaced_repetition_enabled"`
}

// Backup is the downloadable progress envelope.
type Backup struct {
	BackupDate time.Time       `json:"backup_date"`
	UserID     string          `json:"user_id"`
	Progress   json.RawMessage `json:"progress"`
	Version    string          `json:"version"`
}

// Health is the result of a store health check.
type Health struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Version     string `json:"version,omitempty"`
	Environment string `json:"environment,omitempty"`
	Timestamp   string `json:"timestamp"`
	Error       string `json:"error,omitempty"`
}

// Healthy reports whether the check succeeded.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}

// ReviewQueueResponse lists tasks due for review.
type ReviewQueueResponse struct {
	Items []tracker.ReviewItem `json:"items"`
	Count int                  `json:"count"`
}

// Service provides the Progress Store business logic.
type Service struct {
	repo     store.Repository
	recorder *audit.Recorder
	cur      *curriculum.Curriculum
	frontend FrontendConfig
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a new Progress Store service. cur is used to describe
// review items and may be nil.
func NewService(repo store.Repository, recorder *audit.Recorder, cur *curriculum.Curriculum, frontend FrontendConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		recorder: recorder,
		cur:      cur,
		frontend: frontend,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// --- Progress ---

// GetProgress returns the stored document for userID.
func (s *Service) GetProgress(ctx context.Context, userID string) ([]byte, error) {
	doc, err := s.repo.LoadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// SaveProgress stamps lastUpdated on the document and overwrites the
// stored copy. The rest of the document is stored as received.
func (s *Service) SaveProgress(ctx context.Context, userID string, body []byte) (time.Time, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return time.Time{}, ErrInvalidDocument
	}

	stamp := s.now().UTC()
	ts, _ := json.Marshal(stamp)
	doc["lastUpdated"] = ts

	data, err := json.Marshal(doc)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode progress: %w", err)
	}

	if err := s.repo.SaveProgress(ctx, userID, data); err != nil {
		s.record(ctx, audit.ActionProgressSave, data, audit.OutcomeFailure, userID, err.Error())
		return time.Time{}, err
	}
	s.record(ctx, audit.ActionProgressSave, data, audit.OutcomeSuccess, userID, "")
	return stamp, nil
}

func (s *Service) loadSnapshot(ctx context.Context, userID string) ([]byte, *models.Snapshot, error) {
	doc, err := s.GetProgress(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	snap, err := models.DecodeSnapshot(doc)
	if err != nil {
		return nil, nil, err
	}
	return doc, snap, nil
}

// --- Daily logs ---

// SaveDailyLog validates and stores a journal entry.
func (s *Service) SaveDailyLog(ctx context.Context, userID string, log *models.DailyLog) error {
	if err := s.validate.Struct(log); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLog, err)
	}
	if err := s.repo.SaveDailyLog(ctx, userID, log); err != nil {
		s.record(ctx, audit.ActionDailyLogSave, log, audit.OutcomeFailure, userID, err.Error())
		return err
	}
	s.record(ctx, audit.ActionDailyLogSave, log, audit.OutcomeSuccess, userID, log.ID)
	return nil
}

// ListDailyLogs returns a user's journal, newest first.
func (s *Service) ListDailyLogs(ctx context.Context, userID string, limit int) ([]models.DailyLog, error) {
	logs, err := s.repo.ListDailyLogs(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.DailyLog{}
	}
	return logs, nil
}

// --- Derived views ---

// Analytics computes the analytics report for userID.
func (s *Service) Analytics(ctx context.Context, userID string) (*analytics.Report, error) {
	_, snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	rep := analytics.Analyze(snap)
	return &rep, nil
}

// ReviewQueue returns the tasks due for spaced-repetition review.
func (s *Service) ReviewQueue(ctx context.Context, userID string) (*ReviewQueueResponse, error) {
	_, snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := tracker.ReviewQueue(snap, s.now())
	if items == nil {
		items = []tracker.ReviewItem{}
	}
	if s.cur != nil {
		for i := range items {
			if task, _, ok := s.cur.Task(items[i].TaskID); ok {
				items[i].Description = task.Description
			}
		}
	}
	return &ReviewQueueResponse{Items: items, Count: len(items)}, nil
}

// Backup wraps the stored document in a backup envelope.
func (s *Service) Backup(ctx context.Context, userID string) (*Backup, error) {
	doc, err := s.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Backup{
		BackupDate: s.now().UTC(),
		UserID:     userID,
		Progress:   json.RawMessage(compact(doc)),
		Version:    Version,
	}, nil
}

// --- Misc ---

// Health pings the repository.
func (s *Service) Health(ctx context.Context) Health {
	h := Health{
		Status:      "healthy",
		Database:    store.Driver(s.repo),
		Version:     Version,
		Environment: s.frontend.Environment,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Error("health check failed", "error", err)
		h.Status = "unhealthy"
		h.Error = err.Error()
	}
	return h
}

// Frontend returns the client configuration.
func (s *Service) Frontend() FrontendConfig {
	return s.frontend
}

func (s *Service) record(ctx context.Context, action string, inputs interface{}, outcome, userID, details string) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.Record(ctx, action, inputs, outcome, userID, details); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

func compact(doc []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, doc); err != nil {
		return doc
	}
	return buf.Bytes()
}
