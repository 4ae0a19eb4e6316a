package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/aitracker/internal/analytics"
	"github.com/fentz26/aitracker/internal/models"
	"github.com/fentz26/aitracker/internal/server"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Manage the daily learning journal",
}

var logAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a journal entry",
	RunE:  runLogAdd,
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
	RunE:  runLogList,
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show learning velocity, certification readiness and recommendations",
	RunE:  runAnalytics,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Download a backup of the stored progress",
	RunE:  runBackup,
}

var (
	logDate       string
	logHours      float64
	logXP         int
	logTasks      string
	logLearnings  string
	logChallenges string
	logNotes      string
	logMood       string
	logLimit      int
	backupOut     string
)

func init() {
	logCmd.AddCommand(logAddCmd, logListCmd)

	logAddCmd.Flags().StringVar(&logDate, "date", "", "Entry date, YYYY-MM-DD (default today)")
	logAddCmd.Flags().Float64Var(&logHours, "hours", 0, "Hours spent")
	logAddCmd.Flags().IntVar(&logXP, "xp", 0, "XP earned")
	logAddCmd.Flags().StringVar(&logTasks, "tasks", "", "Comma-separated completed task ids")
	logAddCmd.Flags().StringVar(&logLearnings, "learnings", "", "What you learned")
	logAddCmd.Flags().StringVar(&logChallenges, "challenges", "", "What was hard")
	logAddCmd.Flags().StringVar(&logNotes, "notes", "", "Free-form notes")
	logAddCmd.Flags().StringVar(&logMood, "mood", "", "Mood (default neutral)")

	logListCmd.Flags().IntVar(&logLimit, "limit", 10, "Maximum entries to show (0 for all)")

	backupCmd.Flags().StringVarP(&backupOut, "output", "o", "", "Output file (default progress_backup_<date>.json)")
}

func runLogAdd(cmd *cobra.Command, args []string) error {
	if logDate == "" {
		logDate = time.Now().Format("2006-01-02")
	}
	entry := models.DailyLog{
		Date:           logDate,
		HoursSpent:     logHours,
		XPEarned:       logXP,
		TasksCompleted: splitList(logTasks),
		Learnings:      logLearnings,
		Challenges:     logChallenges,
		Notes:          logNotes,
		Mood:           logMood,
	}

	resp, err := apiPost("/api/daily-log", entry)
	if err != nil {
		return err
	}

	var created models.DailyLog
	if err := json.Unmarshal(resp, &created); err != nil {
		return err
	}
	fmt.Printf("Logged %s (%s)\n", created.Date, created.ID)
	return nil
}

func runLogList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/daily-log", url.Values{"limit": {strconv.Itoa(logLimit)}})
	if err != nil {
		return err
	}

	var logs []models.DailyLog
	if err := json.Unmarshal(resp, &logs); err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Println("No journal entries found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tHOURS\tXP\tMOOD\tLEARNINGS")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%.1f\t%d\t%s\t%s\n", l.Date, l.HoursSpent, l.XPEarned, l.Mood, truncate(l.Learnings, 50))
	}
	w.Flush()
	return nil
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/analytics", nil)
	if err != nil {
		return err
	}

	var rep analytics.Report
	if err := json.Unmarshal(resp, &rep); err != nil {
		return err
	}

	v := rep.LearningVelocity
	fmt.Printf("Velocity:    %.1f XP/day, %.2f tasks/day\n", v.XPPerDay, v.TasksPerDay)
	fmt.Printf("Efficiency:  %.1f  Consistency: %.2f\n", v.EfficiencyScore, v.ConsistencyScore)
	fmt.Printf("Completion:  %.2f  Portfolio: %d\n", rep.Summary.CompletionRate, rep.Summary.PortfolioCount)

	names := make([]string, 0, len(rep.CertificationReadiness))
	for name := range rep.CertificationReadiness {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nCertification readiness:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		r := rep.CertificationReadiness[name]
		fmt.Fprintf(w, "  %s\t%d%%\t%s\t~%.0f days\t%s\n", name, r.CurrentProgress, r.ConfidenceLevel, r.EstimatedDaysToReady, r.RecommendedFocus)
	}
	w.Flush()

	if len(rep.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range rep.Recommendations {
			fmt.Printf("  • %s\n", rec)
		}
	}
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/backup", nil)
	if err != nil {
		return err
	}

	var b server.Backup
	if err := json.Unmarshal(resp, &b); err != nil {
		return err
	}

	out := backupOut
	if out == "" {
		out = filepath.Join(".", "progress_backup_"+b.BackupDate.Format("20060102")+".json")
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Backup written to %s\n", out)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
