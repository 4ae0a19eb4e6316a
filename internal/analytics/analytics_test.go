package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fentz26/aitracker/internal/models"
)

func TestLearningVelocity(t *testing.T) {
	s := models.NewSnapshot()
	s.CompletedTasks = []string{"a", "b", "c", "d", "e", "f"}
	s.StruggledTasks = []string{"a"}
	s.TotalXP = 600
	s.Streak = 4

	v := LearningVelocity(s)
	assert.InDelta(t, 300, v.XPPerDay, 0.001)
	assert.InDelta(t, 3, v.TasksPerDay, 0.001)
	assert.InDelta(t, 300, v.EfficiencyScore, 0.001)
	assert.InDelta(t, 2, v.ConsistencyScore, 0.001)
}

func TestLearningVelocity_NoTasks(t *testing.T) {
	v := LearningVelocity(models.NewSnapshot())
	assert.Equal(t, Velocity{}, v)
}

func TestCertificationReadiness(t *testing.T) {
	s := models.NewSnapshot()
	s.CertificationProgress = map[string]int{"low": 10, "mid": 50, "high": 75, "done": 100}

	r := CertificationReadiness(s)
	assert.Equal(t, "low", r["low"].ConfidenceLevel)
	assert.InDelta(t, 45, r["low"].EstimatedDaysToReady, 0.001)
	assert.Equal(t, "foundation_building", r["low"].RecommendedFocus)

	assert.Equal(t, "medium", r["mid"].ConfidenceLevel)
	assert.Equal(t, "high", r["high"].ConfidenceLevel)
	assert.Equal(t, "practice_exams", r["high"].RecommendedFocus)
	assert.InDelta(t, 1, r["done"].EstimatedDaysToReady, 0.001)
}

func TestRecommendations(t *testing.T) {
	fresh := models.NewSnapshot()
	assert.Equal(t, []string{
		"You're doing great! Consider taking on more challenging projects",
		"Increase daily study time to meet weekly XP targets",
		"Focus on completing more portfolio projects",
	}, Recommendations(fresh))

	strong := models.NewSnapshot()
	strong.CompletedTasks = []string{"a", "b", "c", "d", "e"}
	strong.StruggledTasks = []string{"a"}
	strong.TotalXP = 5000
	strong.CertificationProgress[models.CertGoogleCloudAI] = 90
	strong.PortfolioItems = []models.PortfolioItem{{TaskID: "a"}}
	assert.Equal(t, []string{"You're close to certification! Schedule your exam soon"}, Recommendations(strong))
}

func TestRecommendations_Capped(t *testing.T) {
	s := models.NewSnapshot()
	s.CurrentWeek = 3
	s.CompletedTasks = []string{"a"}
	s.StruggledTasks = []string{"a"}
	s.CertificationProgress[models.CertAWSML] = 85

	recs := Recommendations(s)
	assert.Len(t, recs, MaxRecommendations)
	assert.Equal(t, "Consider reviewing fundamentals - high struggle rate detected", recs[0])
}

func TestAnalyze_Summary(t *testing.T) {
	s := models.NewSnapshot()
	s.CurrentWeek = 2
	s.CompletedTasks = []string{"a", "b", "c", "d", "e"}
	s.StruggledTasks = []string{"b"}
	s.TotalXP = 900

	rep := Analyze(s)
	assert.Equal(t, 900, rep.Summary.TotalXP)
	assert.InDelta(t, 0.5, rep.Summary.CompletionRate, 0.001)
	assert.InDelta(t, 0.2, rep.Summary.StruggleRate, 0.001)
	assert.Len(t, rep.CertificationReadiness, 3)
}

func TestSortedCertifications(t *testing.T) {
	assert.Equal(t,
		[]string{models.CertAWSML, models.CertAzureAI, models.CertGoogleCloudAI},
		SortedCertifications(models.NewSnapshot()))
}
