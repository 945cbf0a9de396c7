package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/resource"
)

// ProjectJSON is a whole project file: calendars, tasks, resources and the
// records the engine works on. The same schema is read from YAML.
type ProjectJSON struct {
	ID           string                  `json:"id" yaml:"id"`
	Name         string                  `json:"name" yaml:"name"`
	Calendar     string                  `json:"calendar,omitempty" yaml:"calendar,omitempty"`
	DefaultRate  *generic.Money          `json:"default_rate,omitempty" yaml:"default_rate,omitempty"`
	Calendars    []CalendarJSON          `json:"calendars,omitempty" yaml:"calendars,omitempty"`
	Tasks        []generic.Task          `json:"tasks" yaml:"tasks"`
	Dependencies []generic.Dependency    `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Resources    []resource.Resource     `json:"resources,omitempty" yaml:"resources,omitempty"`
	Allocations  []resource.Allocation   `json:"allocations,omitempty" yaml:"allocations,omitempty"`
	Availability []resource.Availability `json:"availability,omitempty" yaml:"availability,omitempty"`
	Constraints  []ConstraintJSON        `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Rates        []RateJSON              `json:"rates,omitempty" yaml:"rates,omitempty"`
}

// Project is a parsed and validated project file.
type Project struct {
	ID           generic.ProjectID
	Name         string
	CalendarID   generic.CalendarID
	DefaultRate  generic.Money
	Calendars    *calendar.Registry
	Tasks        []generic.Task
	Dependencies []generic.Dependency
	Resources    []resource.Resource
	Allocations  []resource.Allocation
	Availability []resource.Availability
	Constraints  []constraint.Constraint
	Rates        []rate.Record
}

// Format selects the document decoder.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadProject reads a project file from disk.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParseProject(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func ParseProject(data []byte, format Format) (*Project, error) {
	var pj ProjectJSON
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &pj); err != nil {
			return nil, fmt.Errorf("failed to parse project YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &pj); err != nil {
			return nil, fmt.Errorf("failed to parse project JSON: %w", err)
		}
	}
	return FromProjectJSON(pj)
}

// FromProjectJSON builds the project. Tasks without a status start as
// not_started; tasks without a duration get the working-day count of their
// span under their resolved calendar.
func FromProjectJSON(pj ProjectJSON) (*Project, error) {
	p := &Project{
		ID:           generic.ProjectID(pj.ID),
		Name:         pj.Name,
		CalendarID:   generic.CalendarID(pj.Calendar),
		DefaultRate:  decimal.Zero,
		Calendars:    calendar.NewRegistry(),
		Dependencies: generic.CloneDependencies(pj.Dependencies),
		Resources:    append([]resource.Resource(nil), pj.Resources...),
		Availability: append([]resource.Availability(nil), pj.Availability...),
	}
	if pj.DefaultRate != nil {
		p.DefaultRate = *pj.DefaultRate
	}

	for _, cj := range pj.Calendars {
		cal, err := FromCalendarJSON(cj)
		if err != nil {
			return nil, err
		}
		if err := p.Calendars.Add(cal); err != nil {
			return nil, err
		}
	}
	if p.CalendarID != "" {
		if _, ok := p.Calendars.Get(p.CalendarID); !ok {
			return nil, fmt.Errorf("project calendar %s: %w", p.CalendarID, generic.ErrCalendarNotFound)
		}
	}

	resolver := p.Resolver(nil)
	seen := make(map[generic.TaskID]bool, len(pj.Tasks))
	for _, t := range pj.Tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("task %q: missing id", t.Name)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("task %s: %w", t.ID, generic.ErrDuplicateID)
		}
		seen[t.ID] = true
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if t.Status == "" {
			t.Status = generic.StatusNotStarted
		}
		if !t.Status.IsValid() {
			return nil, fmt.Errorf("task %s: unknown status %q", t.ID, t.Status)
		}
		if t.Duration == 0 {
			t.Duration = resolver.ForTask(t, p.CalendarID).WorkingDuration(t.Start, t.End)
		}
		p.Tasks = append(p.Tasks, t)
	}

	for i, a := range pj.Allocations {
		if a.ID == "" {
			a.ID = fmt.Sprintf("alloc-%d", i+1)
		}
		if a.End.Before(a.Start) {
			return nil, &generic.TaskError{TaskID: a.TaskID, Reason: "allocation ends before it starts", Err: generic.ErrInvalidPeriod}
		}
		p.Allocations = append(p.Allocations, a)
	}

	for _, cj := range pj.Constraints {
		c, err := FromConstraintJSON(cj)
		if err != nil {
			return nil, err
		}
		p.Constraints = append(p.Constraints, c)
	}

	rates, err := FromRatesJSON(pj.Rates)
	if err != nil {
		return nil, err
	}
	p.Rates = rates
	return p, nil
}

// Resolver resolves calendars against the project's registry. A nil global
// falls back to the standard calendar.
func (p *Project) Resolver(global *calendar.WorkingCalendar) *calendar.Resolver {
	return calendar.NewResolver(p.Calendars, global)
}

// Task looks a task up by id.
func (p *Project) Task(id generic.TaskID) (generic.Task, bool) {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return generic.Task{}, false
}
