package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fentz26/aitracker/internal/models"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

const maxUserIDLen = 128

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool     `json:"success"`
	Error   apiError `json:"error"`
}

type saveResponse struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

// respondServiceError maps service errors onto HTTP statuses.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrInvalidDocument):
		s.respondError(w, http.StatusBadRequest, "invalid_document", err.Error())
	case errors.Is(err, ErrInvalidLog):
		s.respondError(w, http.StatusBadRequest, "invalid_log", err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// userID reads the user_id query parameter.
func userID(r *http.Request) (string, error) {
	id := r.URL.Query().Get("user_id")
	if id == "" {
		return DefaultUserID, nil
	}
	if len(id) > maxUserIDLen {
		return "", ErrInvalidUser
	}
	return id, nil
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := userID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_user", err.Error())
		return "", false
	}
	return id, true
}

// --- Info ---

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	fc := s.service.Frontend()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "AI Engineer Progress Tracker API",
		"version":     Version,
		"environment": fc.Environment,
		"debug":       fc.Debug,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.service.Health(r.Context())
	status := http.StatusOK
	if !h.Healthy() {
		status = http.StatusServiceUnavailable
	}
	s.respondJSON(w, status, h)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.Frontend())
}

// --- Progress ---

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	doc, err := s.service.GetProgress(r.Context(), uid)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		return
	}
	stamp, err := s.service.SaveProgress(r.Context(), uid, body)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, saveResponse{
		Success:     true,
		Message:     "Progress saved successfully",
		LastUpdated: &stamp,
	})
}

// --- Daily logs ---

func (s *Server) handleSaveDailyLog(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var log models.DailyLog
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&log); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	// The store assigns identity; a client id would collide on resend.
	log.ID = ""
	log.CreatedAt = time.Time{}
	if err := s.service.SaveDailyLog(r.Context(), uid, &log); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, log)
}

func (s *Server) handleListDailyLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	logs, err := s.service.ListDailyLogs(r.Context(), uid, limit)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, logs)
}

// --- Derived views ---

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	rep, err := s.service.Analytics(r.Context(), uid)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	q, err := s.service.ReviewQueue(r.Context(), uid)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	b, err := s.service.Backup(r.Context(), uid)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="progress_backup_`+b.BackupDate.Format("20060102")+`.json"`)
	s.respondJSON(w, http.StatusOK, b)
}
