// Package curriculum loads the static table of weeks, days and tasks the
// tracker scores against. The table is injected configuration: a YAML file
// when one is configured, the built-in week-one table otherwise.
package curriculum

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/aitracker/internal/models"
)

//go:embed default.yaml
var defaultTable []byte

// DefaultCertification is used when the table names no primary certification.
const DefaultCertification = models.CertGoogleCloudAI

var validate = validator.New()

// Day groups the tasks scheduled for one day of a week.
type Day struct {
	Day   int           `yaml:"day" validate:"min=1,max=6"`
	Title string        `yaml:"title"`
	Tasks []models.Task `yaml:"tasks" validate:"dive"`
}

// Week is one curriculum week. A declared week may have no days yet.
type Week struct {
	Week  int    `yaml:"week" validate:"min=1"`
	Title string `yaml:"title"`
	Days  []Day  `yaml:"days" validate:"dive"`
}

// Location is where a task sits in the curriculum.
type Location struct {
	Week int
	Day  int
}

// Curriculum is an immutable, indexed curriculum table.
type Curriculum struct {
	PrimaryCertification string `yaml:"primaryCertification"`
	Weeks                []Week `yaml:"weeks" validate:"required,min=1,dive"`

	index map[string]entry
}

type entry struct {
	task models.Task
	loc  Location
}

// Default returns the built-in curriculum.
func Default() *Curriculum {
	c, err := Parse(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("built-in curriculum is invalid: %v", err))
	}
	return c
}

// LoadFile reads a curriculum table from path on fs.
func LoadFile(fs afero.Fs, path string) (*Curriculum, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open curriculum: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a YAML curriculum table.
func Parse(r io.Reader) (*Curriculum, error) {
	var c Curriculum
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate curriculum: %w", err)
	}
	if c.PrimaryCertification == "" {
		c.PrimaryCertification = DefaultCertification
	}
	if err := c.buildIndex(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Curriculum) buildIndex() error {
	c.index = make(map[string]entry)
	for _, w := range c.Weeks {
		for _, d := range w.Days {
			for _, t := range d.Tasks {
				if prev, dup := c.index[t.ID]; dup {
					return fmt.Errorf("duplicate task id %q (week %d day %d and week %d day %d)",
						t.ID, prev.loc.Week, prev.loc.Day, w.Week, d.Day)
				}
				c.index[t.ID] = entry{task: t, loc: Location{Week: w.Week, Day: d.Day}}
			}
		}
	}
	return nil
}

// Task looks up a task by id.
func (c *Curriculum) Task(id string) (models.Task, Location, bool) {
	e, ok := c.index[id]
	return e.task, e.loc, ok
}

// Has reports whether id names a curriculum task.
func (c *Curriculum) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// WeekCount returns the highest declared week number.
func (c *Curriculum) WeekCount() int {
	n := 0
	for _, w := range c.Weeks {
		if w.Week > n {
			n = w.Week
		}
	}
	return n
}

// Week returns the declared week, if any.
func (c *Curriculum) Week(week int) (Week, bool) {
	for _, w := range c.Weeks {
		if w.Week == week {
			return w, true
		}
	}
	return Week{}, false
}

// DayTasks returns the tasks scheduled for (week, day) in authored order.
func (c *Curriculum) DayTasks(week, day int) []models.Task {
	w, ok := c.Week(week)
	if !ok {
		return nil
	}
	for _, d := range w.Days {
		if d.Day == day {
			return d.Tasks
		}
	}
	return nil
}

// WeekTasks returns every task across all days of week.
func (c *Curriculum) WeekTasks(week int) []models.Task {
	w, ok := c.Week(week)
	if !ok {
		return nil
	}
	var tasks []models.Task
	for _, d := range w.Days {
		tasks = append(tasks, d.Tasks...)
	}
	return tasks
}

// CertificationFor returns the certification a task's completion counts towards.
func (c *Curriculum) CertificationFor(t models.Task) string {
	if t.Certification != "" {
		return t.Certification
	}
	return c.PrimaryCertification
}
