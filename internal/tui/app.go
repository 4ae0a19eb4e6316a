// Package tui provides the interactive learning dashboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fentz26/aitracker/internal/models"
	"github.com/fentz26/aitracker/internal/session"
	"github.com/fentz26/aitracker/internal/storage"
	"github.com/fentz26/aitracker/internal/tracker"
)

// HealthChecker pings the Progress Store.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (*storage.HealthResponse, error)
}

type mode int

const (
	modeToday mode = iota
	modeReview
	modePortfolio
	modeAchievements
)

var modeNames = []string{"TODAY", "REVIEW", "PORTFOLIO", "ACHIEVEMENTS"}

// App is the main TUI application model.
type App struct {
	session *session.Session
	health  HealthChecker

	input    textinput.Model
	viewport viewport.Model
	bar      progress.Model

	width       int
	height      int
	mode        mode
	selectedIdx int
	message     string

	editing     bool
	editingTask string

	celebration    *tracker.Celebration
	celebrationSeq int

	hydrated    bool
	storeOnline bool
}

// New creates a dashboard over sess. health may be nil when no store is configured.
func New(sess *session.Session, health HealthChecker) *App {
	ti := textinput.New()
	ti.Placeholder = "Write a note and press Enter"
	ti.CharLimit = 1024
	ti.Width = 80

	return &App{
		session:  sess,
		health:   health,
		input:    ti,
		viewport: viewport.New(80, 20),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		width:    80,
		height:   24,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.hydrate(),
		a.checkStore(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.editing {
			return a.updateEditing(msg)
		}
		if !a.hydrated {
			return a, nil
		}
		return a.updateKeys(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 6
		a.viewport.Width = msg.Width - 4
		a.viewport.Height = max(5, msg.Height-12)
		a.refreshPanel()

	case hydratedMsg:
		a.hydrated = true
		a.clampSelection()
		a.refreshPanel()

	case storeStatusMsg:
		a.storeOnline = msg.online

	case celebrationDoneMsg:
		if msg.seq == a.celebrationSeq {
			a.celebration = nil
		}
	}
	return a, nil
}

func (a *App) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := a.input.Value()
		if _, err := a.session.UpdateNotes(a.editingTask, text); err != nil {
			a.message = "Error: " + err.Error()
		} else {
			a.message = "✓ Note saved"
		}
		a.stopEditing()
		return a, nil
	case "esc":
		a.stopEditing()
		a.message = ""
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) stopEditing() {
	a.editing = false
	a.editingTask = ""
	a.input.Blur()
	a.input.SetValue("")
}

func (a *App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit

	case "tab":
		a.mode = (a.mode + 1) % mode(len(modeNames))
		a.refreshPanel()

	case "shift+tab":
		a.mode = (a.mode + mode(len(modeNames)) - 1) % mode(len(modeNames))
		a.refreshPanel()

	case "up", "k":
		if a.mode == modeToday {
			if a.selectedIdx > 0 {
				a.selectedIdx--
			}
		} else {
			a.viewport.LineUp(1)
		}

	case "down", "j":
		if a.mode == modeToday {
			if a.selectedIdx < len(a.dayTasks())-1 {
				a.selectedIdx++
			}
		} else {
			a.viewport.LineDown(1)
		}

	case "enter", " ", "c":
		if a.mode == modeToday {
			return a, a.completeSelected()
		}

	case "s":
		if task, ok := a.selectedTask(); ok {
			if _, err := a.session.MarkStruggled(task.ID); err != nil {
				a.message = "Error: " + err.Error()
			} else {
				a.message = "Flagged as hard: " + task.Description
			}
		}

	case "n":
		if task, ok := a.selectedTask(); ok {
			a.editing = true
			a.editingTask = task.ID
			a.input.SetValue(a.session.Snapshot().Notes[task.ID])
			a.input.CursorEnd()
			a.input.Focus()
			return a, textinput.Blink
		}

	case "left", "h":
		if a.session.AdvanceDay(-1).Changed {
			a.selectedIdx = 0
		}

	case "right", "l":
		if a.session.AdvanceDay(1).Changed {
			a.selectedIdx = 0
		}

	case "[":
		if a.session.AdvanceWeek(-1).Changed {
			a.selectedIdx = 0
		}

	case "]":
		if a.session.AdvanceWeek(1).Changed {
			a.selectedIdx = 0
		}

	case "d":
		if a.session.StartNewDay().Changed {
			a.message = fmt.Sprintf("New day started. Streak: %d", a.session.Snapshot().Streak)
		} else {
			a.message = "Today is already open"
		}

	case "r":
		a.hydrated = false
		a.message = "Reloading..."
		return a, tea.Batch(a.hydrate(), a.checkStore())
	}

	a.refreshPanel()
	return a, nil
}

func (a *App) completeSelected() tea.Cmd {
	task, ok := a.selectedTask()
	if !ok {
		return nil
	}
	res, err := a.session.Complete(task.ID)
	if err != nil {
		a.message = "Error: " + err.Error()
		return nil
	}
	if !res.Changed {
		a.message = "Already completed"
		return nil
	}
	a.message = fmt.Sprintf("✓ +%d XP: %s", res.EarnedXP, task.Description)
	if res.Celebration == nil {
		return nil
	}
	a.celebration = res.Celebration
	a.celebrationSeq++
	return celebrationTimeout(a.celebrationSeq, tracker.CelebrationDuration)
}

func (a *App) dayTasks() []models.Task {
	var tasks []models.Task
	a.session.View(func(t *tracker.Tracker) {
		s := t.Snapshot()
		tasks = t.Curriculum().DayTasks(s.CurrentWeek, s.CurrentDay)
	})
	return tasks
}

func (a *App) selectedTask() (models.Task, bool) {
	tasks := a.dayTasks()
	if a.mode != modeToday || a.selectedIdx < 0 || a.selectedIdx >= len(tasks) {
		return models.Task{}, false
	}
	return tasks[a.selectedIdx], true
}

func (a *App) clampSelection() {
	n := len(a.dayTasks())
	if a.selectedIdx >= n {
		a.selectedIdx = max(0, n-1)
	}
}

// refreshPanel re-renders the scrollable panel for non-today modes.
func (a *App) refreshPanel() {
	var content string
	switch a.mode {
	case modeReview:
		content = a.renderReview()
	case modePortfolio:
		content = a.renderPortfolio()
	case modeAchievements:
		content = a.renderAchievements()
	default:
		return
	}
	a.viewport.SetContent(strings.TrimRight(content, "\n"))
}

// --- Commands ---

type hydratedMsg struct{}

type storeStatusMsg struct {
	online bool
}

type celebrationDoneMsg struct {
	seq int
}

func (a *App) hydrate() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*storage.DefaultClientTimeout)
		defer cancel()
		a.session.Hydrate(ctx)
		return hydratedMsg{}
	}
}

func (a *App) checkStore() tea.Cmd {
	if a.health == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		h, err := a.health.CheckHealth(ctx)
		return storeStatusMsg{online: err == nil && h != nil && h.Healthy()}
	}
}

func celebrationTimeout(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return celebrationDoneMsg{seq: seq}
	})
}
