package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/fentz26/aitracker/internal/analytics"
	"github.com/fentz26/aitracker/internal/curriculum"
	"github.com/fentz26/aitracker/internal/session"
	"github.com/fentz26/aitracker/internal/storage"
	"github.com/fentz26/aitracker/internal/tracker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show XP, streak and today's tasks",
	RunE:  runStatus,
}

var completeCmd = &cobra.Command{
	Use:   "complete [task-id]",
	Short: "Mark a task complete",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

var struggleCmd = &cobra.Command{
	Use:   "struggle [task-id]",
	Short: "Flag a task as hard",
	Args:  cobra.ExactArgs(1),
	RunE:  runStruggle,
}

var noteCmd = &cobra.Command{
	Use:   "note [task-id] [text...]",
	Short: "Set the note for a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNote,
}

var dayCmd = &cobra.Command{
	Use:   "day next|prev|N",
	Short: "Move the day cursor",
	Args:  cobra.ExactArgs(1),
	RunE:  runDay,
}

var weekCmd = &cobra.Command{
	Use:   "week next|prev|N",
	Short: "Move the week cursor",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeek,
}

var newDayCmd = &cobra.Command{
	Use:   "newday",
	Short: "Close the previous learning day and settle the streak",
	RunE:  runNewDay,
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List tasks due for spaced-repetition review",
	RunE:  runReview,
}

func loadCurriculum() (*curriculum.Curriculum, error) {
	if cfg.CurriculumPath == "" {
		return curriculum.Default(), nil
	}
	return curriculum.LoadFile(afero.NewOsFs(), cfg.CurriculumPath)
}

// newSession wires a tracker to the remote store with a file cache fallback.
// Storage warnings go to log.
func newSession(remote *storage.RemoteStore, log *slog.Logger) (*session.Session, error) {
	cur, err := loadCurriculum()
	if err != nil {
		return nil, err
	}
	cache := storage.NewFileCache(afero.NewOsFs(), cfg.CacheDir, cfg.UserID)
	store := storage.NewFallback(remote, cache, log)
	return session.New(tracker.New(cur, nil), store, log), nil
}

// withSession hydrates a session, runs fn and waits for the resulting save.
func withSession(ctx context.Context, fn func(s *session.Session) error) error {
	sess, err := newSession(storage.NewRemoteStore(cfg.APIURL, cfg.UserID), logger)
	if err != nil {
		return err
	}
	sess.Hydrate(ctx)
	if err := fn(sess); err != nil {
		return err
	}
	if err := sess.Flush(); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(s *session.Session) error {
		s.View(func(t *tracker.Tracker) {
			snap := t.Snapshot()
			fmt.Printf("Week %d, Day %d\n", snap.CurrentWeek, snap.CurrentDay)
			fmt.Printf("XP:         %d (today +%d)\n", snap.TotalXP, snap.DailyXP)
			fmt.Printf("Streak:     %d\n", snap.Streak)
			fmt.Printf("Difficulty: %s\n", snap.DifficultyLevel)
			fmt.Printf("Week:       %.0f%%\n", t.WeekProgress())
			for _, c := range analytics.SortedCertifications(snap) {
				fmt.Printf("  %-20s %3d%%\n", c, snap.CertificationProgress[c])
			}

			tasks := t.Curriculum().DayTasks(snap.CurrentWeek, snap.CurrentDay)
			if len(tasks) == 0 {
				fmt.Println("\nNo tasks scheduled for this day")
				return
			}
			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DONE\tID\tDESCRIPTION\tPOINTS")
			for _, task := range tasks {
				mark := " "
				if snap.IsCompleted(task.ID) {
					mark = "✓"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", mark, task.ID, truncate(task.Description, 50), task.Points)
			}
			w.Flush()
		})
		return nil
	})
}

func runComplete(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(s *session.Session) error {
		res, err := s.Complete(args[0])
		if err != nil {
			return taskError(args[0], err)
		}
		if !res.Changed {
			fmt.Printf("Task %s already completed\n", args[0])
			return nil
		}
		snap := s.Snapshot()
		fmt.Printf("🎉 Completed %s: +%d XP (total %d, today %d)\n", args[0], res.EarnedXP, snap.TotalXP, snap.DailyXP)
		return nil
	})
}

func runStruggle(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(s *session.Session) error {
		if _, err := s.MarkStruggled(args[0]); err != nil {
			return taskError(args[0], err)
		}
		fmt.Printf("Flagged %s as hard. Difficulty: %s\n", args[0], s.Snapshot().DifficultyLevel)
		return nil
	})
}

func runNote(cmd *cobra.Command, args []string) error {
	text := strings.Join(args[1:], " ")
	return withSession(cmd.Context(), func(s *session.Session) error {
		if _, err := s.UpdateNotes(args[0], text); err != nil {
			return taskError(args[0], err)
		}
		fmt.Printf("Saved note for %s\n", args[0])
		return nil
	})
}

func runDay(cmd *cobra.Command, args []string) error {
	delta, err := parseDelta(args[0])
	if err != nil {
		return err
	}
	return withSession(cmd.Context(), func(s *session.Session) error {
		s.AdvanceDay(delta)
		snap := s.Snapshot()
		fmt.Printf("Week %d, Day %d\n", snap.CurrentWeek, snap.CurrentDay)
		return nil
	})
}

func runWeek(cmd *cobra.Command, args []string) error {
	delta, err := parseDelta(args[0])
	if err != nil {
		return err
	}
	return withSession(cmd.Context(), func(s *session.Session) error {
		s.AdvanceWeek(delta)
		snap := s.Snapshot()
		fmt.Printf("Week %d, Day %d\n", snap.CurrentWeek, snap.CurrentDay)
		return nil
	})
}

func runNewDay(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(s *session.Session) error {
		if !s.StartNewDay().Changed {
			fmt.Println("Today is already open")
			return nil
		}
		fmt.Printf("New day started. Streak: %d\n", s.Snapshot().Streak)
		return nil
	})
}

func runReview(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(s *session.Session) error {
		var items []tracker.ReviewItem
		s.View(func(t *tracker.Tracker) { items = t.ReviewQueue() })
		if len(items) == 0 {
			fmt.Println("Nothing to review today")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDESCRIPTION\tDAYS AGO")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%d\n", item.TaskID, truncate(item.Description, 50), item.DaysSince)
		}
		w.Flush()
		return nil
	})
}

func taskError(id string, err error) error {
	if errors.Is(err, tracker.ErrUnknownTask) {
		return fmt.Errorf("unknown task %q", id)
	}
	return err
}

// parseDelta accepts next, prev or a signed integer. Negative numbers
// need a leading "--" on the command line.
func parseDelta(s string) (int, error) {
	switch s {
	case "next":
		return 1, nil
	case "prev", "back":
		return -1, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return n, nil
}

// --- Helpers ---

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
