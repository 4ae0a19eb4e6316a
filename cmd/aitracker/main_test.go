package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/aitracker/internal/audit"
	"github.com/fentz26/aitracker/internal/config"
	"github.com/fentz26/aitracker/internal/curriculum"
	"github.com/fentz26/aitracker/internal/models"
	"github.com/fentz26/aitracker/internal/server"
	"github.com/fentz26/aitracker/internal/session"
	"github.com/fentz26/aitracker/internal/storage"
	"github.com/fentz26/aitracker/internal/store"
)

func TestParseDelta(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"next", 1},
		{"prev", -1},
		{"+2", 2},
		{"-3", -3},
		{"4", 4},
	}
	for _, tt := range tests {
		got, err := parseDelta(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseDelta("soon")
	assert.Error(t, err)
}

func TestIsLocalAddr(t *testing.T) {
	assert.True(t, isLocalAddr("http://127.0.0.1:8000"))
	assert.True(t, isLocalAddr("http://localhost:8000/"))
	assert.False(t, isLocalAddr("https://progress.example.com"))
	assert.False(t, isLocalAddr("://bad"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	assert.Nil(t, splitList(""))
}

// startStore runs a real Progress Store and points the CLI config at it.
func startStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	repo, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	svc := server.NewService(repo, audit.NewRecorder(repo), curriculum.Default(), server.FrontendConfig{}, nil)
	ts := httptest.NewServer(server.NewServer(svc, server.Config{}, nil).Router())
	t.Cleanup(ts.Close)

	prev := cfg
	cfg = &config.Config{
		APIURL:   ts.URL,
		UserID:   "cli_user",
		CacheDir: t.TempDir(),
	}
	t.Cleanup(func() { cfg = prev })
	return repo
}

func TestAPIClient_DailyLogRoundTrip(t *testing.T) {
	startStore(t)

	_, err := apiPost("/api/daily-log", models.DailyLog{Date: "2026-03-01", HoursSpent: 1.5, Learnings: "embeddings"})
	require.NoError(t, err)

	body, err := apiGet("/api/daily-log", url.Values{"limit": {"5"}})
	require.NoError(t, err)
	var logs []models.DailyLog
	require.NoError(t, json.Unmarshal(body, &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "embeddings", logs[0].Learnings)

	_, err = apiGet("/api/backup", nil)
	assert.ErrorContains(t, err, "404")
}

func TestWithSession_PersistsToStoreAndCache(t *testing.T) {
	repo := startStore(t)

	err := withSession(context.Background(), func(s *session.Session) error {
		_, err := s.Complete("w1d1-env-setup")
		return err
	})
	require.NoError(t, err)

	doc, err := repo.LoadProgress(context.Background(), "cli_user")
	require.NoError(t, err)
	snap, err := models.DecodeSnapshot(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"w1d1-env-setup"}, snap.CompletedTasks)

	cached, err := storage.NewFileCache(afero.NewOsFs(), cfg.CacheDir, cfg.UserID).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.TotalXP, cached.TotalXP)
}

func TestOpenTUILog_CapturesStorageWarnings(t *testing.T) {
	prev := cfg
	cfg = &config.Config{UserID: "tui_user", CacheDir: filepath.Join(t.TempDir(), "cache")}
	t.Cleanup(func() { cfg = prev })

	log, f, err := openTUILog(cfg.CacheDir)
	require.NoError(t, err)
	defer f.Close()

	offline := storage.NewRemoteStore("http://127.0.0.1:1", cfg.UserID)
	sess, err := newSession(offline, log)
	require.NoError(t, err)
	sess.Hydrate(context.Background())
	_, err = sess.Complete("w1d1-env-setup")
	require.NoError(t, err)
	_ = sess.Flush()

	data, err := os.ReadFile(filepath.Join(cfg.CacheDir, tuiLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "save to progress store failed")
	assert.True(t, sess.Snapshot().IsCompleted("w1d1-env-setup"))
}
