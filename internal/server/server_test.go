package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/aitracker/internal/analytics"
	"github.com/fentz26/aitracker/internal/audit"
	"github.com/fentz26/aitracker/internal/curriculum"
	"github.com/fentz26/aitracker/internal/models"
	"github.com/fentz26/aitracker/internal/store"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	repo    *store.SQLiteStore
	service *Service
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	svc := NewService(repo, audit.NewRecorder(repo), curriculum.Default(), FrontendConfig{
		APIURL:      "http://127.0.0.1:8000",
		Environment: "test",
	}, nil)
	svc.now = func() time.Time { return testNow }

	srv := NewServer(svc, Config{Addr: "127.0.0.1:0"}, nil)
	return &testEnv{repo: repo, service: svc, handler: srv.Router()}
}

func (e *testEnv) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestProgress_NotFoundThenRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/progress", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	doc := []byte(`{"currentWeek":1,"currentDay":2,"totalXP":150,"completedTasks":["w1d1-env-setup"],"custom":{"kept":true}}`)
	rec = env.do(t, http.MethodPost, "/api/progress", doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var saved saveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, saved.Success)
	require.NotNil(t, saved.LastUpdated)
	assert.True(t, testNow.Equal(*saved.LastUpdated))

	rec = env.do(t, http.MethodGet, "/api/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(150), got["totalXP"])
	assert.Equal(t, map[string]interface{}{"kept": true}, got["custom"])
	assert.Equal(t, "2026-03-10T12:00:00Z", got["lastUpdated"])
}

func TestProgress_UsersAreIsolated(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/progress?user_id=alice", []byte(`{"totalXP":1}`))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/progress", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/progress?user_id=alice", nil).Code)

	long := strings.Repeat("x", maxUserIDLen+1)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/progress?user_id="+long, nil).Code)
}

func TestProgress_RejectsNonObjects(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{`[1,2]`, `null`, `"x"`, `{broken`} {
		rec := env.do(t, http.MethodPost, "/api/progress", []byte(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestProgress_SaveIsAudited(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/progress", []byte(`{}`)).Code)

	decisions, err := env.repo.ListDecisions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, audit.ActionProgressSave, decisions[0].Action)
	assert.Equal(t, audit.OutcomeSuccess, decisions[0].Outcome)
	assert.Equal(t, DefaultUserID, decisions[0].UserID)
}

func TestDailyLog(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/daily-log", []byte(`{"date":"2026-03-09","hoursSpent":2.5,"xpEarned":200,"learnings":"retries"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.DailyLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "neutral", created.Mood)

	rec = env.do(t, http.MethodGet, "/api/daily-log?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []models.DailyLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "retries", logs[0].Learnings)

	rec = env.do(t, http.MethodPost, "/api/daily-log", []byte(`{"hoursSpent":30}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/daily-log", []byte(`{"date":"yesterday"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/daily-log?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailyLog_ClientIDIgnored(t *testing.T) {
	env := newTestEnv(t)
	body := []byte(`{"id":"dup","date":"2026-03-09","hoursSpent":1,"learnings":"resend"}`)

	ids := map[string]bool{}
	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/daily-log", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created models.DailyLog
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.NotEqual(t, "dup", created.ID)
		ids[created.ID] = true
	}
	assert.Len(t, ids, 2)

	rec := env.do(t, http.MethodGet, "/api/daily-log", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []models.DailyLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Len(t, logs, 2)
}

func TestDailyLog_EmptyListIsArray(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/daily-log", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/analytics", nil).Code)

	doc := `{"totalXP":600,"completedTasks":["a","b","c","d","e","f"],"certificationProgress":{"Google Cloud AI":90}}`
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/progress", []byte(doc)).Code)

	rec := env.do(t, http.MethodGet, "/api/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rep analytics.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.InDelta(t, 300, rep.LearningVelocity.XPPerDay, 0.001)
	assert.Equal(t, "high", rep.CertificationReadiness["Google Cloud AI"].ConfidenceLevel)
	assert.LessOrEqual(t, len(rep.Recommendations), analytics.MaxRecommendations)
}

func TestReviewQueue(t *testing.T) {
	env := newTestEnv(t)

	doc := map[string]interface{}{
		"completedTasks": []string{"w1d1-env-setup", "w1d2-first-api-call"},
		"completionDates": map[string]time.Time{
			"w1d1-env-setup":      testNow.AddDate(0, 0, -3),
			"w1d2-first-api-call": testNow.AddDate(0, 0, -2),
		},
	}
	body, _ := json.Marshal(doc)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/progress", body).Code)

	rec := env.do(t, http.MethodGet, "/api/spaced-repetition", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var q ReviewQueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	require.Equal(t, 1, q.Count)
	assert.Equal(t, "w1d1-env-setup", q.Items[0].TaskID)
	assert.Equal(t, 3, q.Items[0].DaysSince)
	assert.NotEmpty(t, q.Items[0].Description)
}

func TestBackup(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/backup?user_id=bob", nil).Code)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/progress?user_id=bob", []byte(`{"totalXP":7}`)).Code)

	rec := env.do(t, http.MethodGet, "/api/backup?user_id=bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "progress_backup_20260310")

	var b Backup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, "bob", b.UserID)
	assert.Equal(t, Version, b.Version)
	snap, err := models.DecodeSnapshot(b.Progress)
	require.NoError(t, err)
	assert.Equal(t, 7, snap.TotalXP)
}

func TestInfoAndConfig(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), Version)

	rec = env.do(t, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fc FrontendConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "test", fc.Environment)
	assert.Equal(t, "http://127.0.0.1:8000", fc.APIURL)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var h Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.True(t, h.Healthy())
	assert.Equal(t, "sqlite", h.Database)
}

// downRepo is a repository whose database is unreachable.
type downRepo struct {
	store.Repository
}

func (downRepo) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth_Unavailable(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(downRepo{env.repo}, nil, nil, FrontendConfig{}, nil)
	handler := NewServer(svc, Config{}, nil).Router()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/progress", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
