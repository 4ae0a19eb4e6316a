// Package analytics derives learning statistics from a progress snapshot.
package analytics

import (
	"sort"

	"github.com/fentz26/aitracker/internal/models"
)

// MaxRecommendations caps the recommendation list.
const MaxRecommendations = 3

// TasksPerWeek is the nominal number of tasks a learner completes per week.
const TasksPerWeek = 5

// WeeklyXPTarget is the cumulative XP expected per elapsed week.
const WeeklyXPTarget = 1000

// Velocity estimates how fast the learner is progressing.
type Velocity struct {
	XPPerDay         float64 `json:"xp_per_day"`
	TasksPerDay      float64 `json:"tasks_per_day"`
	EfficiencyScore  float64 `json:"efficiency_score"`
	ConsistencyScore float64 `json:"consistency_score"`
}

// Readiness is the exam-readiness forecast for one certification.
type Readiness struct {
	CurrentProgress      int     `json:"current_progress"`
	EstimatedDaysToReady float64 `json:"estimated_days_to_ready"`
	ConfidenceLevel      string  `json:"confidence_level"`
	RecommendedFocus     string  `json:"recommended_focus"`
}

// Summary holds headline ratios.
type Summary struct {
	TotalXP        int     `json:"total_xp"`
	CompletionRate float64 `json:"completion_rate"`
	StruggleRate   float64 `json:"struggle_rate"`
	PortfolioCount int     `json:"portfolio_count"`
}

// Report is the full analytics payload.
type Report struct {
	LearningVelocity       Velocity             `json:"learning_velocity"`
	CertificationReadiness map[string]Readiness `json:"certification_readiness"`
	Recommendations        []string             `json:"recommendations"`
	Summary                Summary              `json:"summary"`
}

// Analyze builds a report for snap.
func Analyze(snap *models.Snapshot) Report {
	return Report{
		LearningVelocity:       LearningVelocity(snap),
		CertificationReadiness: CertificationReadiness(snap),
		Recommendations:        Recommendations(snap),
		Summary: Summary{
			TotalXP:        snap.TotalXP,
			CompletionRate: float64(len(snap.CompletedTasks)) / float64(max(1, snap.CurrentWeek*TasksPerWeek)),
			StruggleRate:   struggleRate(snap),
			PortfolioCount: len(snap.PortfolioItems),
		},
	}
}

// activeDays estimates days of study at roughly three tasks a day.
func activeDays(snap *models.Snapshot) float64 {
	d := float64(len(snap.CompletedTasks)) / 3
	if d < 1 {
		return 1
	}
	return d
}

// LearningVelocity estimates per-day rates.
func LearningVelocity(snap *models.Snapshot) Velocity {
	days := activeDays(snap)
	return Velocity{
		XPPerDay:         float64(snap.TotalXP) / days,
		TasksPerDay:      float64(len(snap.CompletedTasks)) / days,
		EfficiencyScore:  float64(snap.TotalXP) / float64(len(snap.StruggledTasks)+1),
		ConsistencyScore: float64(snap.Streak) / days,
	}
}

// CertificationReadiness forecasts each tracked certification at two
// percentage points per day.
func CertificationReadiness(snap *models.Snapshot) map[string]Readiness {
	out := make(map[string]Readiness, len(snap.CertificationProgress))
	for cert, pct := range snap.CertificationProgress {
		days := float64(100-pct) / 2
		if days < 1 {
			days = 1
		}
		r := Readiness{
			CurrentProgress:      pct,
			EstimatedDaysToReady: days,
			ConfidenceLevel:      "low",
			RecommendedFocus:     "foundation_building",
		}
		switch {
		case pct > 70:
			r.ConfidenceLevel = "high"
		case pct > 40:
			r.ConfidenceLevel = "medium"
		}
		if pct > 60 {
			r.RecommendedFocus = "practice_exams"
		}
		out[cert] = r
	}
	return out
}

func struggleRate(snap *models.Snapshot) float64 {
	return float64(len(snap.StruggledTasks)) / float64(max(1, len(snap.CompletedTasks)))
}

// Recommendations returns up to MaxRecommendations study suggestions in
// priority order.
func Recommendations(snap *models.Snapshot) []string {
	var recs []string

	switch rate := struggleRate(snap); {
	case rate > 0.3:
		recs = append(recs, "Consider reviewing fundamentals - high struggle rate detected")
	case rate < 0.1:
		recs = append(recs, "You're doing great! Consider taking on more challenging projects")
	}

	if snap.TotalXP < snap.CurrentWeek*WeeklyXPTarget {
		recs = append(recs, "Increase daily study time to meet weekly XP targets")
	}

	if maxCertProgress(snap) > 80 {
		recs = append(recs, "You're close to certification! Schedule your exam soon")
	}

	if len(snap.PortfolioItems) < snap.CurrentWeek {
		recs = append(recs, "Focus on completing more portfolio projects")
	}

	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

func maxCertProgress(snap *models.Snapshot) int {
	best := 0
	for _, pct := range snap.CertificationProgress {
		if pct > best {
			best = pct
		}
	}
	return best
}

// SortedCertifications returns certification names in display order.
func SortedCertifications(snap *models.Snapshot) []string {
	names := make([]string, 0, len(snap.CertificationProgress))
	for name := range snap.CertificationProgress {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
