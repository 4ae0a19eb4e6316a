package curriculum

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/aitracker/internal/models"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, DefaultCertification, c.PrimaryCertification)
	assert.Equal(t, 4, c.WeekCount())
	assert.Len(t, c.WeekTasks(1), 10)
	assert.Empty(t, c.WeekTasks(2), "later weeks are declared but not populated")

	task, loc, ok := c.Task("w1d6-capstone")
	require.True(t, ok)
	assert.Equal(t, models.CategoryCapstone, task.Category)
	assert.Equal(t, Location{Week: 1, Day: 6}, loc)
}

func TestDayTasks(t *testing.T) {
	c := Default()

	tasks := c.DayTasks(1, 2)
	require.Len(t, tasks, 2)
	assert.Equal(t, "w1d2-first-api-call", tasks[0].ID)

	assert.Nil(t, c.DayTasks(1, 7))
	assert.Nil(t, c.DayTasks(9, 1))
}

func TestParse_RejectsInvalidTask(t *testing.T) {
	cases := map[string]string{
		"zero points": `
weeks:
  - week: 1
    days:
      - day: 1
        tasks:
          - {id: a, description: A, points: 0, estimatedHours: 1, category: ai, difficulty: easy}
`,
		"unknown category": `
weeks:
  - week: 1
    days:
      - day: 1
        tasks:
          - {id: a, description: A, points: 10, estimatedHours: 1, category: gardening, difficulty: easy}
`,
		"day out of range": `
weeks:
  - week: 1
    days:
      - day: 7
        tasks:
          - {id: a, description: A, points: 10, estimatedHours: 1, category: ai, difficulty: easy}
`,
		"duplicate id": `
weeks:
  - week: 1
    days:
      - day: 1
        tasks:
          - {id: a, description: A, points: 10, estimatedHours: 1, category: ai, difficulty: easy}
      - day: 2
        tasks:
          - {id: a, description: B, points: 10, estimatedHours: 1, category: ai, difficulty: easy}
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `
primaryCertification: AWS ML Specialty
weeks:
  - week: 1
    days:
      - day: 1
        tasks:
          - {id: a, description: A, points: 10, estimatedHours: 1, category: ai, difficulty: easy}
          - {id: b, description: B, points: 10, estimatedHours: 1, category: ai, difficulty: easy, certification: Azure AI Engineer}
`
	require.NoError(t, afero.WriteFile(fs, "/etc/aitracker/curriculum.yaml", []byte(doc), 0644))

	c, err := LoadFile(fs, "/etc/aitracker/curriculum.yaml")
	require.NoError(t, err)

	a, _, _ := c.Task("a")
	b, _, _ := c.Task("b")
	assert.Equal(t, models.CertAWSML, c.CertificationFor(a))
	assert.Equal(t, models.CertAzureAI, c.CertificationFor(b))

	_, err = LoadFile(fs, "/missing.yaml")
	assert.Error(t, err)
}
