// Package models defines the core domain types for the progress tracker.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category classifies a curriculum task.
type Category string

const (
	CategoryFoundation Category = "foundation"
	CategoryAI         Category = "ai"
	CategoryCoding     Category = "coding"
	CategoryProject    Category = "project"
	CategoryProduction Category = "production"
	CategoryMonitoring Category = "monitoring"
	CategoryCapstone   Category = "capstone"
	CategoryDeployment Category = "deployment"
	CategoryPortfolio  Category = "portfolio"
	CategoryReview     Category = "review"
)

// IsPortfolio reports whether completing a task of this category produces a portfolio item.
func (c Category) IsPortfolio() bool {
	return c == CategoryProject || c == CategoryCapstone
}

// Difficulty is the authored difficulty of a curriculum task.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Task is a static unit of curriculum work.
type Task struct {
	ID             string     `json:"id" yaml:"id" validate:"required"`
	Description    string     `json:"description" yaml:"description" validate:"required"`
	Points         int        `json:"points" yaml:"points" validate:"gt=0"`
	EstimatedHours float64    `json:"estimatedHours" yaml:"estimatedHours" validate:"gt=0"`
	Category       Category   `json:"category" yaml:"category" validate:"required,oneof=foundation ai coding project production monitoring capstone deployment portfolio review"`
	Difficulty     Difficulty `json:"difficulty" yaml:"difficulty" validate:"required,oneof=easy medium hard expert"`
	Certification  string     `json:"certification,omitempty" yaml:"certification,omitempty"`
}

// PortfolioItem records a completed project or capstone task.
type PortfolioItem struct {
	TaskID        string    `json:"id"`
	Name          string    `json:"name"`
	CompletedDate time.Time `json:"completedDate"`
	Type          Category  `json:"type"`
	XP            int       `json:"xp"`
}

// Default certification names tracked by a fresh snapshot.
const (
	CertGoogleCloudAI = "Google Cloud AI"
	CertAWSML         = "AWS ML Specialty"
	CertAzureAI       = "Azure AI Engineer"
)

// Day bounds within a curriculum week.
const (
	MinDay = 1
	MaxDay = 6
)

// Snapshot is the complete serializable progress of one learner.
// Sets are kept as ordered slices; Normalize enforces set semantics.
type Snapshot struct {
	CurrentWeek           int                  `json:"currentWeek"`
	CurrentDay            int                  `json:"currentDay"`
	TotalXP               int                  `json:"totalXP"`
	DailyXP               int                  `json:"dailyXP"`
	Streak                int                  `json:"streak"`
	CompletedTasks        []string             `json:"completedTasks"`
	StruggledTasks        []string             `json:"struggledTasks"`
	Notes                 map[string]string    `json:"notes"`
	PortfolioItems        []PortfolioItem      `json:"portfolioItems"`
	CertificationProgress map[string]int       `json:"certificationProgress"`
	DifficultyLevel       Difficulty           `json:"difficultyLevel"`
	CompletionDates       map[string]time.Time `json:"completionDates"`
	LastActiveDate        string               `json:"lastActiveDate,omitempty"`
	LastUpdated           *time.Time           `json:"lastUpdated,omitempty"`
}

// NewSnapshot returns the empty snapshot a learner starts from.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		CurrentWeek:    1,
		CurrentDay:     1,
		CompletedTasks: []string{},
		StruggledTasks: []string{},
		Notes:          map[string]string{},
		PortfolioItems: []PortfolioItem{},
		CertificationProgress: map[string]int{
			CertGoogleCloudAI: 0,
			CertAWSML:         0,
			CertAzureAI:       0,
		},
		DifficultyLevel: DifficultyMedium,
		CompletionDates: map[string]time.Time{},
	}
}

// DecodeSnapshot parses a snapshot document. Fields absent from the
// document keep their fresh-snapshot defaults.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	s := NewSnapshot()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s.Normalize()
	return s, nil
}

// Normalize repairs nil collections, deduplicates sets and clamps ranges.
func (s *Snapshot) Normalize() {
	if s.CurrentWeek < 1 {
		s.CurrentWeek = 1
	}
	s.CurrentDay = ClampDay(s.CurrentDay)
	if s.TotalXP < 0 {
		s.TotalXP = 0
	}
	if s.DailyXP < 0 {
		s.DailyXP = 0
	}
	if s.Streak < 0 {
		s.Streak = 0
	}
	s.CompletedTasks = dedupe(s.CompletedTasks)
	s.StruggledTasks = dedupe(s.StruggledTasks)
	if s.Notes == nil {
		s.Notes = map[string]string{}
	}
	if s.PortfolioItems == nil {
		s.PortfolioItems = []PortfolioItem{}
	}
	if s.CertificationProgress == nil {
		s.CertificationProgress = map[string]int{}
	}
	for name, pct := range s.CertificationProgress {
		s.CertificationProgress[name] = ClampPercent(pct)
	}
	if s.DifficultyLevel == "" {
		s.DifficultyLevel = DifficultyMedium
	}
	if s.CompletionDates == nil {
		s.CompletionDates = map[string]time.Time{}
	}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.CompletedTasks = append([]string{}, s.CompletedTasks...)
	c.StruggledTasks = append([]string{}, s.StruggledTasks...)
	c.PortfolioItems = append([]PortfolioItem{}, s.PortfolioItems...)
	c.Notes = make(map[string]string, len(s.Notes))
	for k, v := range s.Notes {
		c.Notes[k] = v
	}
	c.CertificationProgress = make(map[string]int, len(s.CertificationProgress))
	for k, v := range s.CertificationProgress {
		c.CertificationProgress[k] = v
	}
	c.CompletionDates = make(map[string]time.Time, len(s.CompletionDates))
	for k, v := range s.CompletionDates {
		c.CompletionDates[k] = v
	}
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		c.LastUpdated = &t
	}
	return &c
}

// IsCompleted reports whether taskID is in the completed set.
func (s *Snapshot) IsCompleted(taskID string) bool {
	return contains(s.CompletedTasks, taskID)
}

// IsStruggled reports whether taskID is in the struggled set.
func (s *Snapshot) IsStruggled(taskID string) bool {
	return contains(s.StruggledTasks, taskID)
}

// HasPortfolioItem reports whether a portfolio entry exists for taskID.
func (s *Snapshot) HasPortfolioItem(taskID string) bool {
	for _, p := range s.PortfolioItems {
		if p.TaskID == taskID {
			return true
		}
	}
	return false
}

// ClampDay bounds a day cursor to [MinDay, MaxDay].
func ClampDay(day int) int {
	if day < MinDay {
		return MinDay
	}
	if day > MaxDay {
		return MaxDay
	}
	return day
}

// ClampPercent bounds a percentage to [0, 100].
func ClampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func contains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DailyLog is a learner's journal entry for one day.
type DailyLog struct {
	ID             string    `json:"id"`
	Date           string    `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TasksCompleted []string  `json:"tasksCompleted"`
	HoursSpent     float64   `json:"hoursSpent" validate:"gte=0,lte=24"`
	XPEarned       int       `json:"xpEarned" validate:"gte=0"`
	Notes          string    `json:"notes"`
	Challenges     string    `json:"challenges"`
	Learnings      string    `json:"learnings"`
	Mood           string    `json:"mood"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Decision is an audit record for a state-mutating store action.
type Decision struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	UserID     string    `json:"user_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
