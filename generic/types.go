/*
Package generic provides the shared primitives of the scheduling engine.

PURPOSE:
  This package contains the domain-agnostic types every subsystem speaks:
  calendar dates, periods, time-of-day values, money, identifiers and the
  Task/Dependency records the surrounding application hands to the engine.
  Calendars, constraints, resources, rates and scenarios all build on these.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A decimal amount (rates, costs, deltas)
  - Identifiers: Type-safe IDs for tasks, resources, calendars, projects
  - Task: A scheduled unit of work with start/end dates and status
  - Dependency: A precedence link between two tasks

DESIGN PRINCIPLES:
  1. Caller ownership: the engine never aliases caller slices (see Clone)
  2. Precision: money uses decimal.Decimal to avoid floating-point drift
  3. Type Safety: distinct ID types prevent mixing task/resource IDs
  4. Closed enumerations: statuses and kinds are typed constants with IsValid

USAGE:
  task := generic.Task{
      ID:       "T-100",
      Name:     "Pour foundation",
      Start:    generic.NewTimePoint(2024, time.March, 4),
      End:      generic.NewTimePoint(2024, time.March, 8),
      Duration: 5,
      Status:   generic.StatusNotStarted,
  }

SEE ALSO:
  - time.go: TimePoint and TimeOfDay
  - period.go: Inclusive date ranges
  - errors.go: Sentinel and structured errors
  - observer.go: Listener registration for stateful services
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal amounts for rates and costs
// =============================================================================

type Money = decimal.Decimal

func NewMoney(value float64) Money { return decimal.NewFromFloat(value) }

func NewMoneyFromInt(value int64) Money { return decimal.NewFromInt(value) }

// MustParseMoney parses a decimal string, returning zero on malformed input.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TaskID string
type ResourceID string
type CalendarID string
type ProjectID string

// =============================================================================
// TASK STATUS
// =============================================================================

type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not_started"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusOnHold     TaskStatus = "on_hold"
	StatusDelayed    TaskStatus = "delayed"
)

func (s TaskStatus) String() string { return string(s) }

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusOnHold, StatusDelayed:
		return true
	default:
		return false
	}
}

// =============================================================================
// TASK - Scheduled unit of work
// =============================================================================

// Task is owned by the caller. Engine operations work on copies.
//
// INVARIANT: End is never before Start. Duration is expressed in working
// days under the task's active calendar (or calendar days when none applies).
type Task struct {
	ID              TaskID     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	ProjectID       ProjectID  `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Start           TimePoint  `json:"start" yaml:"start"`
	End             TimePoint  `json:"end" yaml:"end"`
	Duration        int        `json:"duration" yaml:"duration"`
	PercentComplete float64    `json:"percent_complete" yaml:"percent_complete"`
	Status          TaskStatus `json:"status" yaml:"status"`

	// CalendarID overrides the project calendar for this task. Empty = none.
	CalendarID CalendarID `json:"calendar_id,omitempty" yaml:"calendar_id,omitempty"`
}

// SpanDays returns the calendar-day distance between Start and End.
func (t Task) SpanDays() int { return DaysBetween(t.Start, t.End) }

// Validate checks the End >= Start invariant.
func (t Task) Validate() error {
	if t.End.Before(t.Start) {
		return &TaskError{TaskID: t.ID, Reason: "end before start", Err: ErrInvalidPeriod}
	}
	return nil
}

// CloneTasks returns a copy of tasks that shares no backing array with the input.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// IndexTasks maps task IDs to positions in tasks. Later duplicates win.
func IndexTasks(tasks []Task) map[TaskID]int {
	idx := make(map[TaskID]int, len(tasks))
	for i, t := range tasks {
		idx[t.ID] = i
	}
	return idx
}

// =============================================================================
// DEPENDENCY - Precedence between tasks
// =============================================================================

type DependencyType string

const (
	FinishToStart  DependencyType = "FS"
	StartToStart   DependencyType = "SS"
	FinishToFinish DependencyType = "FF"
	StartToFinish  DependencyType = "SF"
)

type Dependency struct {
	PredecessorID TaskID         `json:"predecessor_id" yaml:"predecessor_id"`
	SuccessorID   TaskID         `json:"successor_id" yaml:"successor_id"`
	Type          DependencyType `json:"type,omitempty" yaml:"type,omitempty"`
	LagDays       int            `json:"lag_days,omitempty" yaml:"lag_days,omitempty"`
}

func CloneDependencies(deps []Dependency) []Dependency {
	if deps == nil {
		return nil
	}
	out := make([]Dependency, len(deps))
	copy(out, deps)
	return out
}

// Successors builds the adjacency list predecessor -> successors.
func Successors(deps []Dependency) map[TaskID][]TaskID {
	adj := make(map[TaskID][]TaskID)
	for _, d := range deps {
		adj[d.PredecessorID] = append(adj[d.PredecessorID], d.SuccessorID)
	}
	return adj
}
