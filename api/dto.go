/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine types that
  already carry JSON tags (tasks, allocations, conflicts, level results,
  scenarios) are sent as-is; the types here wrap them into request bodies
  and add the fields the engine does not model (calendar selection, date
  windows, stored-record fallbacks).

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers

TYPES:
  Calendars:
    WorkingDaysResponse, EndDateRequest, EndDateResponse

  Constraints:
    ConstraintRunRequest, ValidateResponse

  Resources:
    ConflictsRequest, ConflictsResponse, LevelRequest

  Rates:
    CostRequest

  Scenarios:
    CreateScenarioRequest, ApplyChangesRequest, CompareRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/calendar.go: CalendarJSON document format
*/
package api

import (
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/factory"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/resource"
	"github.com/visualplan/schedule-engine/scenario"
)

// =============================================================================
// CALENDARS
// =============================================================================

// WorkingDaysResponse lists the working days of a calendar over [from, to].
type WorkingDaysResponse struct {
	CalendarID  string              `json:"calendar_id"`
	From        generic.TimePoint   `json:"from"`
	To          generic.TimePoint   `json:"to"`
	Count       int                 `json:"count"`
	Hours       float64             `json:"hours"`
	WorkingDays []generic.TimePoint `json:"working_days"`
}

// EndDateRequest asks for the last day of a task of Duration working days.
type EndDateRequest struct {
	Start    generic.TimePoint `json:"start"`
	Duration int               `json:"duration"`
}

type EndDateResponse struct {
	CalendarID string            `json:"calendar_id"`
	Start      generic.TimePoint `json:"start"`
	Duration   int               `json:"duration"`
	End        generic.TimePoint `json:"end"`
}

// =============================================================================
// CONSTRAINTS
// =============================================================================

// ConstraintRunRequest carries a task snapshot. When Constraints is empty the
// stored constraints are used.
type ConstraintRunRequest struct {
	CalendarID  string                   `json:"calendar_id,omitempty"`
	Tasks       []generic.Task           `json:"tasks"`
	Constraints []factory.ConstraintJSON `json:"constraints,omitempty"`
}

type ValidateResponse struct {
	Violations []ConstraintViolationDTO `json:"violations"`
	Count      int                      `json:"count"`
}

// ConstraintViolationDTO flattens a violation for clients.
type ConstraintViolationDTO struct {
	TaskID         string `json:"task_id"`
	Type           string `json:"type"`
	ScheduledDate  string `json:"scheduled_date"`
	ConstraintDate string `json:"constraint_date"`
	Days           int    `json:"days"`
	Severity       string `json:"severity"`
	CanAutoResolve bool   `json:"can_auto_resolve"`
	SuggestedFix   string `json:"suggested_fix"`
}

// =============================================================================
// RESOURCES
// =============================================================================

// ConflictsRequest scans [From, To]. WorkingDaysOnly skips days off under
// each resource's calendar.
type ConflictsRequest struct {
	CalendarID      string                  `json:"calendar_id,omitempty"`
	From            generic.TimePoint       `json:"from"`
	To              generic.TimePoint       `json:"to"`
	WorkingDaysOnly bool                    `json:"working_days_only,omitempty"`
	Resources       []resource.Resource     `json:"resources"`
	Allocations     []resource.Allocation   `json:"allocations"`
	Availability    []resource.Availability `json:"availability,omitempty"`
}

type ConflictsResponse struct {
	Conflicts   []resource.Conflict            `json:"conflicts"`
	Utilization map[generic.ResourceID]float64 `json:"utilization"`
}

// LevelRequest runs resource leveling. Zero-valued Options fields take the
// server's configured defaults.
type LevelRequest struct {
	Tasks        []generic.Task          `json:"tasks"`
	Resources    []resource.Resource     `json:"resources"`
	Allocations  []resource.Allocation   `json:"allocations"`
	Availability []resource.Availability `json:"availability,omitempty"`
	Options      resource.Options        `json:"options"`
}

// =============================================================================
// RATES
// =============================================================================

// CostRequest prices assignments. When Rates is empty the stored records are
// used.
type CostRequest struct {
	Assignments []rate.Assignment  `json:"assignments"`
	Rates       []factory.RateJSON `json:"rates,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type CreateScenarioRequest struct {
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	Tasks        []generic.Task       `json:"tasks"`
	Dependencies []generic.Dependency `json:"dependencies,omitempty"`
}

type ApplyChangesRequest struct {
	Changes []scenario.Change `json:"changes"`
}

type CompareRequest struct {
	ScenarioIDs []string `json:"scenario_ids"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toViolationDTOs(vs []constraint.Violation) []ConstraintViolationDTO {
	dtos := make([]ConstraintViolationDTO, len(vs))
	for i, v := range vs {
		dtos[i] = ConstraintViolationDTO{
			TaskID:         string(v.TaskID),
			Type:           v.Kind.String(),
			ScheduledDate:  v.ScheduledDate.String(),
			ConstraintDate: v.ConstraintDate.String(),
			Days:           v.Days,
			Severity:       string(v.Severity),
			CanAutoResolve: v.CanAutoResolve,
			SuggestedFix:   v.SuggestedFix,
		}
	}
	return dtos
}
