/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Subsystem packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Not-found errors - A referenced task/resource/calendar/scenario is absent
  2. Input errors - Malformed periods, constraints, durations
  3. Configuration errors - Calendars that can never yield a working day

WHAT IS NOT AN ERROR:
  Constraint violations and resource conflicts are data. They are returned
  as part of normal output and never surface through these types.

USAGE:
  if errors.Is(err, generic.ErrNoWorkingDays) {
      // calendar is misconfigured; surface to the operator
  }

SEE ALSO:
  - calendar/calendar.go: Returns SearchHorizonError
  - constraint/engine.go: Returns ConstraintError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTaskNotFound is returned when a referenced task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrResourceNotFound is returned when a referenced resource doesn't exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrCalendarNotFound is returned when a referenced calendar doesn't exist.
	ErrCalendarNotFound = errors.New("calendar not found")

	// ErrScenarioNotFound is returned when a referenced scenario doesn't exist.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidConstraint is returned for constraints that can never be evaluated.
	ErrInvalidConstraint = errors.New("invalid constraint")

	// ErrInvalidDuration is returned for negative durations.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrNoWorkingDays is returned when a calendar search exhausts its horizon.
	ErrNoWorkingDays = errors.New("no working day within search horizon")

	// ErrDuplicateID is returned when registering an ID that already exists.
	ErrDuplicateID = errors.New("duplicate id")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SearchHorizonError reports a calendar with no conforming day in range.
// It is a configuration problem, not a scheduling outcome.
type SearchHorizonError struct {
	CalendarID CalendarID
	From       TimePoint
	Direction  string
	Horizon    int
}

func (e *SearchHorizonError) Error() string {
	return fmt.Sprintf("calendar %q: no working day %s of %s within %d days",
		e.CalendarID, e.Direction, e.From, e.Horizon)
}

func (e *SearchHorizonError) Unwrap() error {
	return ErrNoWorkingDays
}

// ConstraintError describes a constraint rejected on input.
type ConstraintError struct {
	TaskID TaskID
	Kind   string
	Reason string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %s on task %s: %s", e.Kind, e.TaskID, e.Reason)
}

func (e *ConstraintError) Unwrap() error {
	return ErrInvalidConstraint
}

// TaskError ties an input error to a task.
type TaskError struct {
	TaskID TaskID
	Reason string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %s", e.TaskID, e.Reason)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrResourceNotFound) ||
		errors.Is(err, ErrCalendarNotFound) ||
		errors.Is(err, ErrScenarioNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidConstraint) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrDuplicateID)
}

// IsConfigurationError returns true if a calendar can never satisfy a search.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrNoWorkingDays)
}
