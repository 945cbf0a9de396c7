// Package store defines persistence for engine configuration and scenarios,
// with an in-memory implementation for tests and the CLI.
package store

import (
	"context"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/scenario"
)

// Store persists calendars, rate records, task constraints and scenarios.
//
// Get methods return errors wrapping generic.ErrCalendarNotFound or
// generic.ErrScenarioNotFound when nothing is stored under the id.
// Deleting a missing record is not an error.
type Store interface {
	// SaveCalendar inserts or replaces by ID.
	SaveCalendar(ctx context.Context, cal *calendar.WorkingCalendar) error
	GetCalendar(ctx context.Context, id generic.CalendarID) (*calendar.WorkingCalendar, error)
	// ListCalendars orders by ID.
	ListCalendars(ctx context.Context) ([]*calendar.WorkingCalendar, error)
	DeleteCalendar(ctx context.Context, id generic.CalendarID) error

	// SaveRate inserts or replaces by ID, generating one when empty.
	SaveRate(ctx context.Context, rec rate.Record) (rate.Record, error)
	// ListRates filters by resource; empty resourceID lists everything.
	ListRates(ctx context.Context, resourceID generic.ResourceID) ([]rate.Record, error)

	// SaveConstraint replaces any constraint with the same task and kind.
	SaveConstraint(ctx context.Context, c constraint.Constraint) error
	// ListConstraints filters by task; empty taskID lists everything.
	ListConstraints(ctx context.Context, taskID generic.TaskID) ([]constraint.Constraint, error)
	DeleteConstraint(ctx context.Context, taskID generic.TaskID, kind constraint.Kind) error

	SaveScenario(ctx context.Context, s scenario.Scenario) error
	GetScenario(ctx context.Context, id string) (scenario.Scenario, error)
	// ListScenarios orders by creation time.
	ListScenarios(ctx context.Context) ([]scenario.Scenario, error)

	// Reset clears every record. Demo loaders call it before seeding.
	Reset(ctx context.Context) error
}
