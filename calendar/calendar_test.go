package calendar_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

// 2024-03-04 is a Monday.
var monday = date("2024-03-04")

func closedCalendar() *calendar.WorkingCalendar {
	return &calendar.WorkingCalendar{ID: "closed", Name: "Never works", SearchHorizon: 30}
}

// =============================================================================
// WORKING-DAY PRECEDENCE
// =============================================================================

func TestIsWorkingDay_WeekdayDefault(t *testing.T) {
	cal := calendar.Standard("std", "Standard")

	assert.True(t, cal.IsWorkingDay(monday))
	assert.True(t, cal.IsWorkingDay(date("2024-03-08")), "friday")
	assert.False(t, cal.IsWorkingDay(date("2024-03-09")), "saturday")
	assert.False(t, cal.IsWorkingDay(date("2024-03-10")), "sunday")
}

func TestIsWorkingDay_HolidayBeatsWeekday(t *testing.T) {
	// GIVEN: A Monday holiday
	cal := calendar.Standard("std", "Standard")
	cal.Holidays = []calendar.Holiday{{Name: "Site closure", Date: monday, Type: calendar.HolidayCompany}}

	// THEN: Monday is off, Tuesday is not
	assert.False(t, cal.IsWorkingDay(monday))
	assert.True(t, cal.IsWorkingDay(monday.AddDays(1)))
}

func TestIsWorkingDay_RecurringHolidayMatchesEveryYear(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	cal.Holidays = []calendar.Holiday{{Name: "Christmas", Date: date("2020-12-25"), Recurring: true}}

	assert.False(t, cal.IsWorkingDay(date("2024-12-25")), "wednesday in 2024")
	assert.False(t, cal.IsWorkingDay(date("2025-12-25")), "thursday in 2025")
	assert.True(t, cal.IsWorkingDay(date("2024-12-24")))
}

func TestIsWorkingDay_ExceptionBeatsHolidayAndWeekday(t *testing.T) {
	// GIVEN: A holiday on Monday and a working Saturday, both overridden by exceptions
	cal := calendar.Standard("std", "Standard")
	cal.Holidays = []calendar.Holiday{{Name: "Holiday", Date: monday}}
	cal.Exceptions = []calendar.Exception{
		{Name: "Catch-up", Period: generic.NewPeriod(monday, monday), Working: true},
		{Name: "Weekend shift", Period: generic.NewPeriod(date("2024-03-09"), date("2024-03-09")), Working: true},
	}

	assert.True(t, cal.IsWorkingDay(monday), "exception beats holiday")
	assert.True(t, cal.IsWorkingDay(date("2024-03-09")), "exception beats weekday")
}

func TestIsWorkingDay_LastExceptionWinsOnOverlap(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	week := generic.NewPeriod(monday, monday.AddDays(4))
	cal.Exceptions = []calendar.Exception{
		{Name: "Shutdown", Period: week, Working: false},
		{Name: "Inspection day", Period: generic.NewPeriod(monday.AddDays(2), monday.AddDays(2)), Working: true},
	}

	assert.False(t, cal.IsWorkingDay(monday.AddDays(1)))
	assert.True(t, cal.IsWorkingDay(monday.AddDays(2)))
}

// =============================================================================
// WORKING HOURS
// =============================================================================

func TestWorkingHours_NonEmptyIffWorkingDay(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	cal.Holidays = []calendar.Holiday{{Name: "Holiday", Date: date("2024-03-13")}}
	cal.Exceptions = []calendar.Exception{
		{Name: "Saturday shift", Period: generic.NewPeriod(date("2024-03-16"), date("2024-03-16")), Working: true},
	}

	for d := monday; d.Before(monday.AddDays(28)); d = d.AddDays(1) {
		hours := cal.WorkingHours(d)
		assert.Equal(t, cal.IsWorkingDay(d), len(hours) > 0, "date %s", d)
	}
}

func TestWorkingHours_Precedence(t *testing.T) {
	morning := []calendar.WorkingPeriod{{Start: generic.NewTimeOfDay(6, 0), End: generic.NewTimeOfDay(10, 0)}}
	cal := calendar.Standard("std", "Standard")
	cal.Exceptions = []calendar.Exception{
		{Name: "Short day", Period: generic.NewPeriod(monday, monday), Working: true, Hours: morning},
	}
	cal.Weekdays[time.Saturday] = calendar.WorkDay{Working: true}

	assert.Equal(t, morning, cal.WorkingHours(monday), "exception hours")
	assert.Len(t, cal.WorkingHours(monday.AddDays(1)), 2, "weekday hours with lunch split")
	assert.Equal(t, []calendar.WorkingPeriod{{Start: cal.DefaultStart, End: cal.DefaultEnd}},
		cal.WorkingHours(date("2024-03-09")), "default pair")
	assert.InDelta(t, 8.0, cal.WorkingHoursOn(monday.AddDays(1)), 1e-9)
}

// =============================================================================
// DURATION ARITHMETIC
// =============================================================================

func TestWorkingDuration(t *testing.T) {
	cal := calendar.Standard("std", "Standard")

	assert.Equal(t, 5, cal.WorkingDuration(monday, date("2024-03-08")))
	assert.Equal(t, 5, cal.WorkingDuration(monday, date("2024-03-10")), "weekend adds nothing")
	assert.Equal(t, 1, cal.WorkingDuration(monday, monday))
	assert.Equal(t, 1, cal.WorkingDuration(date("2024-03-09"), date("2024-03-10")), "at least one")
	assert.Equal(t, 0, cal.WorkingDuration(date("2024-03-08"), monday), "inverted")
}

func TestEndFromDuration_MondayPlusFiveIsFriday(t *testing.T) {
	// GIVEN: Mon-Fri calendar, no holidays
	cal := calendar.Standard("std", "Standard")

	// WHEN: A 5-day task starts Monday
	end, err := cal.EndFromDuration(monday, 5)

	// THEN: It ends the following Friday
	require.NoError(t, err)
	assert.Equal(t, "2024-03-08", end.String())
}

func TestEndFromDuration_SnapsWeekendStartForward(t *testing.T) {
	cal := calendar.Standard("std", "Standard")

	end, err := cal.EndFromDuration(date("2024-03-09"), 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", end.String())

	end, err = cal.EndFromDuration(date("2024-03-09"), 0)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", end.String(), "n < 1 behaves like 1")
}

func TestStartFromDuration_SnapsBackward(t *testing.T) {
	cal := calendar.Standard("std", "Standard")

	start, err := cal.StartFromDuration(date("2024-03-10"), 5)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", start.String())
}

func TestDuration_RoundTrip(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	cal.Holidays = []calendar.Holiday{{Name: "Holiday", Date: date("2024-03-20")}}

	for _, s := range cal.WorkingDaysIn(generic.NewPeriod(monday, monday.AddDays(20))) {
		for n := 1; n <= 15; n++ {
			end, err := cal.EndFromDuration(s, n)
			require.NoError(t, err)
			assert.Equal(t, n, cal.WorkingDuration(s, end), "start %s n=%d", s, n)
		}
	}
}

// =============================================================================
// SEARCH
// =============================================================================

func TestNextAndPreviousWorkingDay_AreStrict(t *testing.T) {
	cal := calendar.Standard("std", "Standard")

	next, err := cal.NextWorkingDay(date("2024-03-08"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", next.String())

	prev, err := cal.PreviousWorkingDay(monday)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", prev.String())
}

func TestSnap(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	saturday, sunday := date("2024-03-09"), date("2024-03-10")

	tests := []struct {
		name string
		from generic.TimePoint
		dir  calendar.Direction
		want string
	}{
		{"working day is kept", monday, calendar.Backward, "2024-03-04"},
		{"forward from saturday", saturday, calendar.Forward, "2024-03-11"},
		{"backward from saturday", saturday, calendar.Backward, "2024-03-08"},
		{"nearest from saturday", saturday, calendar.Nearest, "2024-03-08"},
		{"nearest from sunday", sunday, calendar.Nearest, "2024-03-11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cal.Snap(tt.from, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestSnap_NearestTieGoesForward(t *testing.T) {
	// GIVEN: A Wednesday holiday between working Tuesday and Thursday
	cal := calendar.Standard("std", "Standard")
	wednesday := date("2024-03-06")
	cal.Holidays = []calendar.Holiday{{Name: "Holiday", Date: wednesday}}

	got, err := cal.Snap(wednesday, calendar.Nearest)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07", got.String())
}

func TestSearch_NoWorkingDaysHitsHorizon(t *testing.T) {
	// GIVEN: A calendar without a single working day
	cal := closedCalendar()

	// WHEN: Any search runs
	_, err := cal.NextWorkingDay(monday)

	// THEN: It fails with a configuration error instead of looping forever
	require.Error(t, err)
	var horizonErr *generic.SearchHorizonError
	require.True(t, errors.As(err, &horizonErr))
	assert.Equal(t, 30, horizonErr.Horizon)
	assert.True(t, generic.IsConfigurationError(err))

	_, err = cal.EndFromDuration(monday, 3)
	assert.ErrorIs(t, err, generic.ErrNoWorkingDays)

	_, err = cal.Snap(monday, calendar.Nearest)
	assert.ErrorIs(t, err, generic.ErrNoWorkingDays)

	assert.Equal(t, 1, cal.WorkingDuration(monday, monday.AddDays(10)), "duration never searches")
}

// =============================================================================
// VALIDATION & COPYING
// =============================================================================

func TestValidate(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	require.NoError(t, cal.Validate())

	cal.Exceptions = []calendar.Exception{{Name: "Bad", Period: generic.NewPeriod(monday, monday.AddDays(-1))}}
	assert.ErrorIs(t, cal.Validate(), generic.ErrInvalidPeriod)

	cal = calendar.Standard("std", "Standard")
	cal.Weekdays[time.Monday].Hours = []calendar.WorkingPeriod{{Start: generic.NewTimeOfDay(9, 0), End: generic.NewTimeOfDay(9, 0)}}
	assert.Error(t, cal.Validate())
}

func TestClone_DoesNotAlias(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	cal.Holidays = []calendar.Holiday{{Name: "Holiday", Date: monday}}

	cp := cal.Clone()
	cp.Holidays[0].Name = "Changed"
	cp.Weekdays[time.Monday].Hours[0].Start = generic.NewTimeOfDay(5, 0)

	assert.Equal(t, "Holiday", cal.Holidays[0].Name)
	assert.Equal(t, generic.NewTimeOfDay(8, 0), cal.Weekdays[time.Monday].Hours[0].Start)
}
