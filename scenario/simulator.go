package scenario

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/visualplan/schedule-engine/generic"
)

// CriticalPathMode selects how CriticalPathLength is computed.
type CriticalPathMode string

const (
	// CriticalPathMaxDuration approximates the critical path by the longest
	// single task. This is the historical behavior and the default.
	CriticalPathMaxDuration CriticalPathMode = "max_duration"

	// CriticalPathDependency runs a forward/backward pass over dependencies.
	CriticalPathDependency CriticalPathMode = "dependency"
)

// Thresholds drive Compare.
type Thresholds struct {
	CriticalDurationDays int           `json:"critical_duration_days"`
	CriticalCostDelta    generic.Money `json:"critical_cost_delta"`
	CriticalRiskDelta    float64       `json:"critical_risk_delta"`
	RiskWarning          float64       `json:"risk_warning"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalDurationDays: 7,
		CriticalCostDelta:    decimal.NewFromInt(10000),
		CriticalRiskDelta:    10,
		RiskWarning:          60,
	}
}

// DefaultCostPerDay feeds the placeholder cost model.
var DefaultCostPerDay = decimal.NewFromInt(1000)

// Simulator builds scenarios. Now and NewID are injectable so metrics and
// IDs are reproducible in tests.
type Simulator struct {
	Now          func() time.Time
	NewID        func() string
	CostPerDay   generic.Money
	Thresholds   Thresholds
	CriticalPath CriticalPathMode
}

func NewSimulator() *Simulator {
	return &Simulator{
		Now:          time.Now,
		NewID:        uuid.NewString,
		CostPerDay:   DefaultCostPerDay,
		Thresholds:   DefaultThresholds(),
		CriticalPath: CriticalPathMaxDuration,
	}
}

func (s *Simulator) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Simulator) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

// =============================================================================
// CREATE
// =============================================================================

// Create snapshots a baseline and computes its metrics.
func (s *Simulator) Create(name, description string, tasks []generic.Task, deps []generic.Dependency) Scenario {
	now := s.now()
	sc := Scenario{
		ID:           s.newID(),
		Name:         name,
		Description:  description,
		BaselineAt:   now,
		CreatedAt:    now,
		Status:       StatusDraft,
		Tasks:        generic.CloneTasks(tasks),
		Dependencies: generic.CloneDependencies(deps),
		Changes:      []Change{},
	}
	if sc.Tasks == nil {
		sc.Tasks = []generic.Task{}
	}
	sc.Metrics = s.CalculateMetrics(sc.Tasks, sc.Dependencies)
	return sc
}

// =============================================================================
// APPLY CHANGES
// =============================================================================

// ApplyChanges applies changes in order to a copy of tasks (base.Tasks when
// tasks is nil) and returns a new scenario plus the edited task set. The new
// scenario's ParentID is base.ID; base is never modified.
//
// Changes naming unknown tasks, or carrying an unusable payload, are kept
// in the record with Applied=false and zero impact.
func (s *Simulator) ApplyChanges(base Scenario, tasks []generic.Task, changes []Change) (Scenario, []generic.Task) {
	if tasks == nil {
		tasks = base.Tasks
	}
	working := generic.CloneTasks(tasks)
	deps := generic.CloneDependencies(base.Dependencies)
	idx := generic.IndexTasks(working)
	successors := generic.Successors(deps)

	current := s.CalculateMetrics(working, deps)
	recorded := make([]Change, 0, len(changes))

	for _, c := range changes {
		c.Field = c.Kind.Field()
		c.NewValue = c.newValue()
		c.Applied = false
		c.Impact = Impact{CostDelta: decimal.Zero}

		i, ok := idx[c.TaskID]
		if !ok {
			recorded = append(recorded, c)
			continue
		}
		old := working[i]
		c.OldValue = fieldValue(old, c.Kind)

		if !applyChange(&working[i], c) {
			recorded = append(recorded, c)
			continue
		}

		after := s.CalculateMetrics(working, deps)
		c.Applied = true
		c.Impact = Impact{
			AffectedTasks: len(affectedTasks(c.TaskID, successors)),
			DateShiftDays: generic.DaysBetween(old.End, working[i].End),
			CostDelta:     after.TotalCost.Sub(current.TotalCost),
		}
		current = after
		recorded = append(recorded, c)
	}

	next := base.Clone()
	next.ID = s.newID()
	next.ParentID = base.ID
	next.CreatedAt = s.now()
	next.Status = StatusDraft
	next.Tasks = generic.CloneTasks(working)
	next.Dependencies = deps
	next.Changes = append(next.Changes, recorded...)
	next.Metrics = current
	return next, working
}

// applyChange edits t in place and reports whether the change was usable.
func applyChange(t *generic.Task, c Change) bool {
	switch c.Kind {
	case ChangeDuration:
		if c.Duration < 0 {
			return false
		}
		t.Duration = c.Duration
		t.End = t.Start.AddDays(c.Duration)
		return true
	case ChangeStart:
		if c.Date.IsZero() {
			return false
		}
		shift := generic.DaysBetween(t.Start, c.Date)
		t.Start = c.Date
		t.End = t.End.AddDays(shift)
		return true
	case ChangeEnd:
		if c.Date.IsZero() || c.Date.Before(t.Start) {
			return false
		}
		t.End = c.Date
		t.Duration = generic.DaysBetween(t.Start, t.End)
		return true
	case ChangeStatus:
		if !c.Status.IsValid() {
			return false
		}
		t.Status = c.Status
		return true
	case ChangeProgress:
		p := c.Progress
		if p < 0 {
			p = 0
		}
		if p > 100 {
			p = 100
		}
		t.PercentComplete = p
		return true
	default:
		return false
	}
}

func fieldValue(t generic.Task, k ChangeKind) string {
	switch k {
	case ChangeDuration:
		return fmt.Sprintf("%d", t.Duration)
	case ChangeStart:
		return t.Start.String()
	case ChangeEnd:
		return t.End.String()
	case ChangeStatus:
		return string(t.Status)
	case ChangeProgress:
		return fmt.Sprintf("%g", t.PercentComplete)
	default:
		return ""
	}
}

// affectedTasks is the changed task plus everything reachable downstream.
func affectedTasks(root generic.TaskID, successors map[generic.TaskID][]generic.TaskID) map[generic.TaskID]bool {
	seen := map[generic.TaskID]bool{root: true}
	queue := []generic.TaskID{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range successors[id] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}
