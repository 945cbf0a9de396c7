/*
Package resource tracks who is allocated to what, detects overallocation
and levels it away.

PURPOSE:
  Allocations put units of a resource on a task over an inclusive date
  range. Availability overrides replace a resource's daily capacity over a
  range. Any day where allocated units exceed available units is a
  Conflict.

SEVERITY (overallocation / available):
  > 50%  critical
  > 30%  high
  > 10%  medium
  else   low
  Zero availability with any overallocation is critical.

LEVELING:
  Level repeatedly picks the most severe conflict and applies one strategy:

    delay_tasks        shift one task (and its allocations) forward by
                       ceil(over / available) calendar days, at least 1
    reduce_allocation  cut every affected allocation on the resource by
                       over / affected tasks, floored at zero

  The conflict set is rebuilt after every step. The best state seen is
  returned, so leveling never reports more conflicts than it was given.

SEE ALSO:
  - conflicts.go: Pure per-day queries and conflict detection
  - level.go:     Leveling loop
  - ledger.go:    Stateful, observable ledger
*/
package resource

import (
	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/generic"
)

// DefaultCapacity applies when a resource leaves Capacity at zero.
const DefaultCapacity = 8.0

// epsilon absorbs float noise when comparing unit sums.
const epsilon = 1e-9

// =============================================================================
// RESOURCE & ALLOCATION
// =============================================================================

type Resource struct {
	ID         generic.ResourceID `json:"id" yaml:"id"`
	Name       string             `json:"name" yaml:"name"`
	Role       string             `json:"role,omitempty" yaml:"role,omitempty"`
	Capacity   float64            `json:"capacity,omitempty" yaml:"capacity,omitempty"` // units/day, 0 = DefaultCapacity
	Tags       []string           `json:"tags,omitempty" yaml:"tags,omitempty"`
	CalendarID generic.CalendarID `json:"calendar_id,omitempty" yaml:"calendar_id,omitempty"`
}

func (r Resource) EffectiveCapacity() float64 {
	if r.Capacity == 0 {
		return DefaultCapacity
	}
	return r.Capacity
}

// HasTag reports whether the resource carries tag.
func (r Resource) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Allocation puts Units per day of a resource on a task over [Start, End].
type Allocation struct {
	ID         string             `json:"id" yaml:"id"`
	ResourceID generic.ResourceID `json:"resource_id" yaml:"resource_id"`
	TaskID     generic.TaskID     `json:"task_id" yaml:"task_id"`
	Start      generic.TimePoint  `json:"start" yaml:"start"`
	End        generic.TimePoint  `json:"end" yaml:"end"`
	Units      float64            `json:"units" yaml:"units"`
	UnitCost   *generic.Money     `json:"unit_cost,omitempty" yaml:"unit_cost,omitempty"`
}

func (a Allocation) Covers(d generic.TimePoint) bool {
	return d.AfterOrEqual(a.Start) && d.BeforeOrEqual(a.End)
}

func (a Allocation) Period() generic.Period { return generic.NewPeriod(a.Start, a.End) }

// Availability overrides a resource's capacity over Period.
type Availability struct {
	ResourceID generic.ResourceID `json:"resource_id" yaml:"resource_id"`
	Period     generic.Period     `json:"period" yaml:"period"`
	Units      float64            `json:"units" yaml:"units"`
}

// =============================================================================
// CONFLICT
// =============================================================================

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Conflict is one resource overallocated on one date.
type Conflict struct {
	ResourceID     generic.ResourceID `json:"resource_id"`
	Date           generic.TimePoint  `json:"date"`
	Allocated      float64            `json:"allocated"`
	Available      float64            `json:"available"`
	Overallocation float64            `json:"overallocation"`
	Severity       Severity           `json:"severity"`
	TaskIDs        []generic.TaskID   `json:"task_ids"`
}

// =============================================================================
// CALENDAR AWARENESS
// =============================================================================

// CalendarFor returns the calendar a resource works to.
// A nil CalendarFor, or a nil result, means every calendar day counts.
type CalendarFor func(res Resource) *calendar.WorkingCalendar

// ResolverCalendars resolves each resource's own calendar through r.
func ResolverCalendars(r *calendar.Resolver, project generic.CalendarID) CalendarFor {
	return func(res Resource) *calendar.WorkingCalendar {
		return r.Resolve(calendar.Scope{ResourceCalendar: res.CalendarID, ProjectCalendar: project}).Calendar
	}
}

// =============================================================================
// COPYING
// =============================================================================

func CloneAllocations(allocs []Allocation) []Allocation {
	if allocs == nil {
		return nil
	}
	out := make([]Allocation, len(allocs))
	for i, a := range allocs {
		out[i] = a
		if a.UnitCost != nil {
			c := *a.UnitCost
			out[i].UnitCost = &c
		}
	}
	return out
}

func cloneResources(rs []Resource) []Resource {
	if rs == nil {
		return nil
	}
	out := make([]Resource, len(rs))
	for i, r := range rs {
		out[i] = r
		out[i].Tags = append([]string(nil), r.Tags...)
	}
	return out
}

func cloneConflicts(cs []Conflict) []Conflict {
	out := make([]Conflict, len(cs))
	for i, c := range cs {
		out[i] = c
		out[i].TaskIDs = append([]generic.TaskID(nil), c.TaskIDs...)
	}
	return out
}
