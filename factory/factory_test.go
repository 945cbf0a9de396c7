package factory_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/factory"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/rate"
)

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

// =============================================================================
// CALENDARS
// =============================================================================

func TestParseCalendarJSON_FourDayWeek(t *testing.T) {
	// GIVEN: A Monday-Thursday calendar with a short Friday, a holiday and a shutdown
	doc := `{
		"id": "site-a",
		"name": "Site A",
		"working_days": ["monday", "tuesday", "wednesday", "thursday"],
		"hours": ["07:00-12:00", "12:30-16:30"],
		"day_hours": {"fri": ["07:00-11:00"]},
		"holidays": [{"name": "New Year", "date": "2024-01-01", "recurring": true}],
		"exceptions": [{"name": "Shutdown", "start": "2024-12-24", "end": "2025-01-02", "working": false}]
	}`

	// WHEN: It is parsed
	cal, err := factory.ParseCalendarJSON([]byte(doc))
	require.NoError(t, err)

	// THEN: The week, hours and overrides are applied
	assert.Equal(t, generic.CalendarID("site-a"), cal.ID)
	assert.True(t, cal.Weekdays[time.Monday].Working)
	assert.True(t, cal.Weekdays[time.Friday].Working)
	assert.False(t, cal.Weekdays[time.Saturday].Working)
	assert.Equal(t, 9.0, cal.WorkingHoursOn(date("2024-03-04")))
	assert.Equal(t, 4.0, cal.WorkingHoursOn(date("2024-03-08")))
	assert.Equal(t, generic.NewTimeOfDay(7, 0), cal.DefaultStart)
	assert.Equal(t, generic.NewTimeOfDay(16, 30), cal.DefaultEnd)

	require.Len(t, cal.Holidays, 1)
	assert.Equal(t, calendar.HolidayPublic, cal.Holidays[0].Type)
	assert.False(t, cal.IsWorkingDay(date("2025-01-01")), "recurring holiday and shutdown")
	assert.False(t, cal.IsWorkingDay(date("2024-12-26")), "shutdown")
}

func TestParseCalendarYAML_EmptyDayHoursClosesDay(t *testing.T) {
	doc := `
id: std
name: Standard
day_hours:
  wednesday: []
search_horizon: 30
`
	cal, err := factory.ParseCalendarYAML([]byte(doc))
	require.NoError(t, err)

	assert.False(t, cal.Weekdays[time.Wednesday].Working)
	assert.True(t, cal.Weekdays[time.Tuesday].Working)
	assert.Equal(t, 30, cal.SearchHorizon)
}

func TestParseCalendarJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"id": `},
		{"missing id", `{"name": "x"}`},
		{"unknown preset", `{"id": "x", "preset": "lunar"}`},
		{"unknown weekday", `{"id": "x", "working_days": ["funday"]}`},
		{"bad hours", `{"id": "x", "hours": ["9-5"]}`},
		{"empty period", `{"id": "x", "hours": ["09:00-09:00"]}`},
		{"bad holiday date", `{"id": "x", "holidays": [{"name": "h", "date": "soon"}]}`},
		{"unknown holiday type", `{"id": "x", "holidays": [{"name": "h", "date": "2024-01-01", "type": "bank"}]}`},
		{"inverted exception", `{"id": "x", "exceptions": [{"name": "e", "start": "2024-02-01", "end": "2024-01-01"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParseCalendarJSON([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestCalendarPresets(t *testing.T) {
	std, err := factory.ParseCalendarJSON([]byte(factory.StandardCalendarJSON("std", "Standard")))
	require.NoError(t, err)
	assert.Equal(t, 8.0, std.WorkingHoursOn(date("2024-03-04")))
	assert.False(t, std.IsWorkingDay(date("2024-03-09")))

	shift, err := factory.ParseCalendarJSON([]byte(factory.ShiftCalendarJSON("shift", "Shifts")))
	require.NoError(t, err)
	assert.True(t, shift.IsWorkingDay(date("2024-03-09")))
	assert.Equal(t, 16.0, shift.WorkingHoursOn(date("2024-03-09")))
}

func TestToCalendarJSON_RoundTripKeepsBehavior(t *testing.T) {
	// GIVEN: A calendar with a holiday and a working Saturday exception
	original := calendar.Standard("std", "Standard")
	original.Holidays = []calendar.Holiday{{Name: "Founders", Date: date("2024-03-06"), Type: calendar.HolidayCompany}}
	original.Exceptions = []calendar.Exception{{
		Name:    "Catch-up",
		Period:  generic.NewPeriod(date("2024-03-09"), date("2024-03-09")),
		Working: true,
		Hours:   []calendar.WorkingPeriod{{Start: generic.NewTimeOfDay(9, 0), End: generic.NewTimeOfDay(13, 0)}},
	}}

	// WHEN: It goes out to a document and back
	back, err := factory.FromCalendarJSON(factory.ToCalendarJSON(original))
	require.NoError(t, err)

	// THEN: Every day in March answers the same
	for d := date("2024-03-01"); !d.After(date("2024-03-31")); d = d.AddDays(1) {
		assert.Equal(t, original.IsWorkingDay(d), back.IsWorkingDay(d), d.String())
		assert.Equal(t, original.WorkingHoursOn(d), back.WorkingHoursOn(d), d.String())
	}
}

// =============================================================================
// RATES & CONSTRAINTS
// =============================================================================

func TestParseRatesJSON(t *testing.T) {
	doc := `[
		{"resource_id": "R1", "type": 1, "price_per_unit": 50, "effective_from": "2024-01-01"},
		{"resource_id": "R1", "type": "standard", "price_per_unit": "60.00", "effective_from": "2024-06-01"},
		{"resource_id": "R1", "type": "overtime", "price_per_unit": 90, "cost_per_use": 25}
	]`

	records, err := factory.ParseRatesJSON([]byte(doc))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, rate.TypeStandard, records[0].Type)
	assert.Equal(t, rate.TypeStandard, records[1].Type)
	assert.Equal(t, rate.TypeOvertime, records[2].Type)
	require.NotNil(t, records[2].CostPerUse)
	assert.True(t, records[2].CostPerUse.Equal(decimal.NewFromInt(25)))
	assert.Nil(t, records[2].EffectiveFrom)

	// Scenario 4 through the document path
	resolver := rate.NewResolver(nil)
	july := resolver.Resolve("R1", rate.TypeStandard, date("2024-07-01"), records, decimal.Zero)
	assert.True(t, july.Rate.Equal(decimal.NewFromInt(60)))
}

func TestParseRatesJSON_Rejects(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown type":   `[{"resource_id": "R1", "type": "bonus", "price_per_unit": 1}]`,
		"bad date":       `[{"resource_id": "R1", "type": 1, "price_per_unit": 1, "effective_from": "June"}]`,
		"inverted range": `[{"resource_id": "R1", "type": 1, "price_per_unit": 1, "effective_from": "2024-06-01", "effective_to": "2024-01-01"}]`,
		"no resource":    `[{"type": 1, "price_per_unit": 1}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := factory.ParseRatesJSON([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseConstraintJSON(t *testing.T) {
	c, err := factory.ParseConstraintJSON([]byte(`{"task_id": "T1", "type": "must-start-on", "date": "2024-03-01", "priority": 8}`))
	require.NoError(t, err)
	assert.Equal(t, constraint.MustStartOn, c.Kind)
	require.NotNil(t, c.Date)
	assert.Equal(t, date("2024-03-01"), *c.Date)
	assert.Equal(t, 8, c.Priority)

	asap, err := factory.ParseConstraintJSON([]byte(`{"task_id": "T1", "type": "ASAP"}`))
	require.NoError(t, err)
	assert.Nil(t, asap.Date)

	_, err = factory.ParseConstraintJSON([]byte(`{"task_id": "T1", "type": "SNET"}`))
	assert.ErrorIs(t, err, generic.ErrInvalidConstraint, "dated kind without a date")

	_, err = factory.ParseConstraintJSON([]byte(`{"task_id": "T1", "type": "SOON"}`))
	assert.ErrorIs(t, err, generic.ErrInvalidConstraint)
}

// =============================================================================
// PROJECT FILES
// =============================================================================

const projectYAML = `
id: tower
name: Tower block
calendar: site
default_rate: 40
calendars:
  - id: site
    name: Site
    preset: standard
tasks:
  - id: T1
    name: Foundations
    start: 2024-03-04
    end: 2024-03-15
  - id: T2
    name: Frame
    start: 2024-03-18
    end: 2024-03-29
    status: in_progress
    duration: 3
dependencies:
  - predecessor_id: T1
    successor_id: T2
    type: FS
resources:
  - id: R1
    name: Crew
    capacity: 100
allocations:
  - resource_id: R1
    task_id: T1
    start: 2024-03-04
    end: 2024-03-15
    units: 60
constraints:
  - task_id: T2
    type: SNET
    date: 2024-03-18
rates:
  - resource_id: R1
    type: 1
    price_per_unit: 50
    effective_from: 2024-01-01
`

func TestLoadProject_YAML(t *testing.T) {
	// GIVEN: A YAML project file on disk
	path := filepath.Join(t.TempDir(), "tower.yaml")
	require.NoError(t, os.WriteFile(path, []byte(projectYAML), 0o644))

	// WHEN: It is loaded
	p, err := factory.LoadProject(path)
	require.NoError(t, err)

	// THEN: Every section is populated
	assert.Equal(t, generic.ProjectID("tower"), p.ID)
	assert.Equal(t, generic.CalendarID("site"), p.CalendarID)
	assert.True(t, p.DefaultRate.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 1, p.Calendars.Len())

	require.Len(t, p.Tasks, 2)
	t1, ok := p.Task("T1")
	require.True(t, ok)
	assert.Equal(t, date("2024-03-04"), t1.Start)
	assert.Equal(t, generic.StatusNotStarted, t1.Status, "default status")
	assert.Equal(t, 10, t1.Duration, "working days under the site calendar")

	t2, _ := p.Task("T2")
	assert.Equal(t, 3, t2.Duration, "explicit duration kept")

	require.Len(t, p.Dependencies, 1)
	require.Len(t, p.Allocations, 1)
	assert.Equal(t, "alloc-1", p.Allocations[0].ID)
	require.Len(t, p.Constraints, 1)
	assert.Equal(t, constraint.StartNoEarlierThan, p.Constraints[0].Kind)
	require.Len(t, p.Rates, 1)
	assert.True(t, p.Rates[0].PricePerUnit.Equal(decimal.NewFromInt(50)))
}

func TestParseProject_JSON(t *testing.T) {
	doc := `{
		"id": "p",
		"name": "P",
		"tasks": [{"id": "T1", "name": "A", "start": "2024-03-04", "end": "2024-03-08"}]
	}`
	p, err := factory.ParseProject([]byte(doc), factory.FormatJSON)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, 5, p.Tasks[0].Duration, "standard global calendar")
	assert.True(t, p.DefaultRate.IsZero())
}

func TestParseProject_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown project calendar", `{"id": "p", "calendar": "nope", "tasks": []}`, generic.ErrCalendarNotFound},
		{"duplicate task", `{"id": "p", "tasks": [{"id": "T1", "start": "2024-03-04", "end": "2024-03-04"}, {"id": "T1", "start": "2024-03-04", "end": "2024-03-04"}]}`, generic.ErrDuplicateID},
		{"inverted task", `{"id": "p", "tasks": [{"id": "T1", "start": "2024-03-08", "end": "2024-03-04"}]}`, generic.ErrInvalidPeriod},
		{"inverted allocation", `{"id": "p", "tasks": [], "allocations": [{"resource_id": "R1", "task_id": "T1", "start": "2024-03-08", "end": "2024-03-04", "units": 1}]}`, generic.ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParseProject([]byte(tt.doc), factory.FormatJSON)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, factory.FormatYAML, factory.FormatFor("plan.yaml"))
	assert.Equal(t, factory.FormatYAML, factory.FormatFor("plan.YML"))
	assert.Equal(t, factory.FormatJSON, factory.FormatFor("plan.json"))
	assert.Equal(t, factory.FormatJSON, factory.FormatFor("plan"))
}
