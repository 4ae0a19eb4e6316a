package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/aitracker/internal/curriculum"
	"github.com/fentz26/aitracker/internal/models"
	"github.com/fentz26/aitracker/internal/session"
	"github.com/fentz26/aitracker/internal/storage"
	"github.com/fentz26/aitracker/internal/tracker"
)

const testCurriculum = `
weeks:
  - week: 1
    title: Basics
    days:
      - day: 1
        title: Setup day
        tasks:
          - {id: setup, description: Setup tools, points: 100, estimatedHours: 1, category: foundation, difficulty: easy}
          - {id: demo, description: Demo app, points: 100, estimatedHours: 2, category: project, difficulty: medium}
      - day: 2
        tasks:
          - {id: prompts, description: Prompt drills, points: 50, estimatedHours: 1, category: ai, difficulty: easy}
`

type memStore struct {
	mu   sync.Mutex
	snap *models.Snapshot
}

func (m *memStore) Load(context.Context) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, storage.ErrNoData
	}
	return m.snap.Clone(), nil
}

func (m *memStore) Save(_ context.Context, s *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = s.Clone()
	return nil
}

type stubHealth struct {
	resp *storage.HealthResponse
	err  error
}

func (s stubHealth) CheckHealth(context.Context) (*storage.HealthResponse, error) {
	return s.resp, s.err
}

func newTestApp(t *testing.T, st storage.Storage, health HealthChecker) (*App, *session.Session) {
	t.Helper()
	cur, err := curriculum.Parse(strings.NewReader(testCurriculum))
	require.NoError(t, err)
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tr := tracker.New(cur, nil, tracker.WithClock(func() time.Time { return clock }))
	sess := session.New(tr, st, nil)
	return New(sess, health), sess
}

func hydrated(t *testing.T, a *App) {
	t.Helper()
	msg := a.hydrate()()
	require.IsType(t, hydratedMsg{}, msg)
	a.Update(msg)
}

func press(a *App, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = a.Update(msg)
	}
	return cmd
}

func TestApp_KeysIgnoredUntilHydrated(t *testing.T) {
	app, sess := newTestApp(t, &memStore{}, nil)

	press(app, "enter")
	assert.Empty(t, sess.Snapshot().CompletedTasks)
	assert.Contains(t, app.View(), "Loading")

	hydrated(t, app)
	press(app, "enter")
	assert.Equal(t, []string{"setup"}, sess.Snapshot().CompletedTasks)
}

func TestApp_HydrateRestoresStoredProgress(t *testing.T) {
	stored := models.NewSnapshot()
	stored.TotalXP = 420
	stored.CompletedTasks = []string{"setup"}
	stored.CompletionDates["setup"] = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	app, _ := newTestApp(t, &memStore{snap: stored}, nil)
	hydrated(t, app)

	view := app.View()
	assert.Contains(t, view, "420 XP")
	assert.Contains(t, view, "[✓]")
}

func TestApp_CompleteShowsCelebrationAndPersists(t *testing.T) {
	st := &memStore{}
	app, sess := newTestApp(t, st, nil)
	hydrated(t, app)

	cmd := press(app, "down", "enter")
	require.NotNil(t, cmd, "celebration timeout")
	require.NotNil(t, app.celebration)
	assert.Equal(t, 120, app.celebration.DailyXP)
	assert.Contains(t, app.View(), "Task complete")
	assert.Contains(t, app.message, "+120 XP")

	require.NoError(t, sess.Flush())
	saved, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, saved.TotalXP)
	assert.Len(t, saved.PortfolioItems, 1)

	press(app, "enter")
	assert.Equal(t, "Already completed", app.message)
}

func TestApp_StaleCelebrationTimeoutIsIgnored(t *testing.T) {
	app, _ := newTestApp(t, &memStore{}, nil)
	hydrated(t, app)

	press(app, "enter")
	press(app, "down", "enter")
	require.Equal(t, 2, app.celebrationSeq)

	app.Update(celebrationDoneMsg{seq: 1})
	assert.NotNil(t, app.celebration)

	app.Update(celebrationDoneMsg{seq: 2})
	assert.Nil(t, app.celebration)
	assert.NotContains(t, app.View(), "Task complete")
}

func TestApp_StruggleAndNotes(t *testing.T) {
	app, sess := newTestApp(t, &memStore{}, nil)
	hydrated(t, app)

	press(app, "s")
	assert.True(t, sess.Snapshot().IsStruggled("setup"))

	press(app, "n")
	require.True(t, app.editing)
	press(app, "u", "s", "e", " ", "u", "v")
	press(app, "enter")
	assert.False(t, app.editing)
	assert.Equal(t, "use uv", sess.Snapshot().Notes["setup"])
	assert.Contains(t, app.View(), "Note: use uv")

	press(app, "n", "x", "esc")
	assert.False(t, app.editing)
	assert.Equal(t, "use uv", sess.Snapshot().Notes["setup"])
}

func TestApp_DayNavigationResetsSelection(t *testing.T) {
	app, sess := newTestApp(t, &memStore{}, nil)
	hydrated(t, app)

	press(app, "down")
	require.Equal(t, 1, app.selectedIdx)

	press(app, "right")
	assert.Equal(t, 2, sess.Snapshot().CurrentDay)
	assert.Equal(t, 0, app.selectedIdx)
	assert.Contains(t, app.View(), "Prompt drills")

	press(app, "down")
	assert.Equal(t, 0, app.selectedIdx, "day 2 has a single task")
}

func TestApp_NewDay(t *testing.T) {
	app, sess := newTestApp(t, &memStore{}, nil)
	hydrated(t, app)

	press(app, "enter", "d")
	snap := sess.Snapshot()
	assert.Equal(t, 1, snap.Streak)
	assert.Zero(t, snap.DailyXP)

	press(app, "d")
	assert.Equal(t, "Today is already open", app.message)
}

func TestApp_Modes(t *testing.T) {
	app, _ := newTestApp(t, &memStore{}, nil)
	hydrated(t, app)
	press(app, "enter")

	press(app, "tab")
	assert.Equal(t, modeReview, app.mode)
	assert.Contains(t, app.View(), "Nothing to review")

	press(app, "tab")
	assert.Contains(t, app.View(), models.CertGoogleCloudAI)

	press(app, "tab")
	assert.Contains(t, app.View(), "First Steps")

	app.message = ""
	press(app, "s")
	assert.Empty(t, app.message, "task keys are inactive outside the today view")

	press(app, "tab")
	assert.Equal(t, modeToday, app.mode)
}

func TestApp_StoreStatus(t *testing.T) {
	app, _ := newTestApp(t, &memStore{}, stubHealth{resp: &storage.HealthResponse{Status: "healthy"}})
	hydrated(t, app)

	app.Update(app.checkStore()())
	assert.True(t, app.storeOnline)
	assert.Contains(t, app.View(), "synced")

	app.health = stubHealth{err: errors.New("connection refused")}
	app.Update(app.checkStore()())
	assert.False(t, app.storeOnline)
	assert.Contains(t, app.View(), "offline")
}

func TestApp_NoHealthCheckerSkipsProbe(t *testing.T) {
	app, _ := newTestApp(t, &memStore{}, nil)
	assert.Nil(t, app.checkStore())
}
