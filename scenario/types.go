/*
Package scenario simulates what-if edits to a task set and compares the
outcomes.

PURPOSE:
  A Scenario is a snapshot of tasks and dependencies plus the changes that
  produced it and the metrics computed from it. Scenarios are immutable
  once built: ApplyChanges always returns a new scenario whose ParentID
  points at the one it started from.

METRICS (CalculateMetrics):
  TotalDuration       days from the earliest start to the latest end
  TotalCost           TotalDuration x CostPerDay (placeholder cost model)
  CriticalPathLength  longest single task (default) or the dependency
                      critical path when CriticalPath is "dependency"
  RiskScore           avg task length   > 30d +20, > 14d +10
                      deps per task     > 2 +30,  > 1 +15
                      not started/on hold fraction x 20
                      overdue fraction             x 30
                      capped at 100
  CompletionProbability = max(0, 100 - RiskScore)

SEE ALSO:
  - simulator.go: Create and ApplyChanges
  - metrics.go:   CalculateMetrics
  - compare.go:   Compare
  - cpm.go:       Dependency critical path
  - registry.go:  Observable scenario store
*/
package scenario

import (
	"fmt"
	"time"

	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived:
		return true
	default:
		return false
	}
}

// CanTransition allows draft->active, draft->archived and active->archived.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusDraft:
		return to == StatusActive || to == StatusArchived
	case StatusActive:
		return to == StatusArchived
	case StatusArchived:
		return false
	default:
		return false
	}
}

// =============================================================================
// CHANGES
// =============================================================================

type ChangeKind string

const (
	ChangeDuration ChangeKind = "task_duration"
	ChangeStart    ChangeKind = "task_start"
	ChangeEnd      ChangeKind = "task_end"
	ChangeStatus   ChangeKind = "task_status"
	ChangeProgress ChangeKind = "task_progress"
)

func (k ChangeKind) IsValid() bool {
	switch k {
	case ChangeDuration, ChangeStart, ChangeEnd, ChangeStatus, ChangeProgress:
		return true
	default:
		return false
	}
}

// Field names the task attribute a change kind edits.
func (k ChangeKind) Field() string {
	switch k {
	case ChangeDuration:
		return "duration"
	case ChangeStart:
		return "start"
	case ChangeEnd:
		return "end"
	case ChangeStatus:
		return "status"
	case ChangeProgress:
		return "percent_complete"
	default:
		return ""
	}
}

// Impact is computed when a change is applied.
type Impact struct {
	AffectedTasks int           `json:"affected_tasks"`
	DateShiftDays int           `json:"date_shift_days"`
	CostDelta     generic.Money `json:"cost_delta"`
}

// Change edits one task. Only the payload field matching Kind is read.
type Change struct {
	TaskID generic.TaskID `json:"task_id"`
	Kind   ChangeKind     `json:"kind"`

	Duration int                `json:"duration,omitempty"`
	Date     generic.TimePoint  `json:"date"`
	Status   generic.TaskStatus `json:"status,omitempty"`
	Progress float64            `json:"progress,omitempty"`

	// Filled in by ApplyChanges.
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
	Applied  bool   `json:"applied"`
	Impact   Impact `json:"impact"`
}

func (c Change) newValue() string {
	switch c.Kind {
	case ChangeDuration:
		return fmt.Sprintf("%d", c.Duration)
	case ChangeStart, ChangeEnd:
		return c.Date.String()
	case ChangeStatus:
		return string(c.Status)
	case ChangeProgress:
		return fmt.Sprintf("%g", c.Progress)
	default:
		return ""
	}
}

// =============================================================================
// SCENARIO & METRICS
// =============================================================================

type Metrics struct {
	TotalDuration         int               `json:"total_duration"`
	ProjectStart          generic.TimePoint `json:"project_start"`
	ProjectEnd            generic.TimePoint `json:"project_end"`
	TotalCost             generic.Money     `json:"total_cost"`
	ResourceUtilization   float64           `json:"resource_utilization"`
	CriticalPathLength    int               `json:"critical_path_length"`
	CriticalPath          []generic.TaskID  `json:"critical_path,omitempty"`
	RiskScore             float64           `json:"risk_score"`
	CompletionProbability float64           `json:"completion_probability"`
}

type Scenario struct {
	ID           string               `json:"id"`
	ParentID     string               `json:"parent_id,omitempty"`
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	BaselineAt   time.Time            `json:"baseline_at"`
	CreatedAt    time.Time            `json:"created_at"`
	Status       Status               `json:"status"`
	Tasks        []generic.Task       `json:"tasks"`
	Dependencies []generic.Dependency `json:"dependencies,omitempty"`
	Changes      []Change             `json:"changes"`
	Metrics      Metrics              `json:"metrics"`
}

// Clone returns a deep copy.
func (s Scenario) Clone() Scenario {
	out := s
	out.Tasks = generic.CloneTasks(s.Tasks)
	out.Dependencies = generic.CloneDependencies(s.Dependencies)
	out.Changes = append([]Change(nil), s.Changes...)
	out.Metrics.CriticalPath = append([]generic.TaskID(nil), s.Metrics.CriticalPath...)
	return out
}
