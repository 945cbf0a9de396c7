/*
Package calendar decides which dates count as working time.

PURPOSE:
  A WorkingCalendar answers three questions for any date: is it a working
  day, which hours are worked, and how far away is the nearest working day.
  Everything that converts between dates and durations goes through here.

PRECEDENCE (is this a working day?):
  1. Exception:  date inside an exception's inclusive range -> its flag wins
  2. Holiday:    exact date match (or month/day match if recurring) -> off
  3. Weekday:    the per-weekday default

DURATION MODEL:
  Durations are inclusive working-day counts. A one-day task starts and
  ends on the same date:

    Mon..Fri calendar, start Mon, duration 5  ->  end Fri
    Mon..Fri calendar, start Sat, duration 1  ->  start snaps to Mon, end Mon

SEARCH HORIZON:
  Day-stepping searches stop after SearchHorizon days (DefaultSearchHorizon
  when unset) and return *generic.SearchHorizonError. A calendar with no
  working days is a configuration error, never an infinite loop.

SEE ALSO:
  - registry.go: Observable calendar store
  - resolver.go: Resource > task > project > global precedence
*/
package calendar

import (
	"fmt"
	"time"

	"github.com/visualplan/schedule-engine/generic"
)

// DefaultSearchHorizon is ten years of days.
const DefaultSearchHorizon = 3660

// =============================================================================
// CALENDAR TYPES
// =============================================================================

// WorkingPeriod is a [Start, End) span of working time within a day.
type WorkingPeriod struct {
	Start generic.TimeOfDay `json:"start"`
	End   generic.TimeOfDay `json:"end"`
}

// Hours returns the length of the period in hours.
func (p WorkingPeriod) Hours() float64 {
	return float64(p.End-p.Start) / 60
}

// WorkDay is the default for one day of the week.
type WorkDay struct {
	Working bool            `json:"working"`
	Hours   []WorkingPeriod `json:"hours,omitempty"` // empty = calendar default hours
}

type HolidayType string

const (
	HolidayPublic    HolidayType = "public"
	HolidayCompany   HolidayType = "company"
	HolidayReligious HolidayType = "religious"
	HolidayOther     HolidayType = "other"
)

// Holiday is a non-working date.
type Holiday struct {
	ID        string            `json:"id,omitempty"`
	Name      string            `json:"name"`
	Date      generic.TimePoint `json:"date"`
	Recurring bool              `json:"recurring,omitempty"` // true = same month/day every year
	Type      HolidayType       `json:"type,omitempty"`
}

// Matches reports whether the holiday falls on d.
func (h Holiday) Matches(d generic.TimePoint) bool {
	if h.Recurring {
		return h.Date.SameMonthDay(d)
	}
	return h.Date.Equal(d)
}

// Exception overrides the weekday/holiday rules over a date range.
type Exception struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name"`
	Period  generic.Period  `json:"period"`
	Working bool            `json:"working"`
	Hours   []WorkingPeriod `json:"hours,omitempty"`
}

// WorkingCalendar defines working time. Weekdays is indexed by time.Weekday.
type WorkingCalendar struct {
	ID            generic.CalendarID `json:"id"`
	Name          string             `json:"name"`
	Weekdays      [7]WorkDay         `json:"weekdays"`
	Holidays      []Holiday          `json:"holidays,omitempty"`
	Exceptions    []Exception        `json:"exceptions,omitempty"`
	DefaultStart  generic.TimeOfDay  `json:"default_start"`
	DefaultEnd    generic.TimeOfDay  `json:"default_end"`
	SearchHorizon int                `json:"search_horizon,omitempty"`
}

// Direction selects how Snap searches for a working day.
type Direction int

const (
	Forward Direction = iota
	Backward
	Nearest
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Nearest:
		return "nearest"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// =============================================================================
// PRESETS
// =============================================================================

// Standard returns a Monday-Friday calendar, 08:00-12:00 and 13:00-17:00.
func Standard(id generic.CalendarID, name string) *WorkingCalendar {
	hours := []WorkingPeriod{
		{Start: generic.NewTimeOfDay(8, 0), End: generic.NewTimeOfDay(12, 0)},
		{Start: generic.NewTimeOfDay(13, 0), End: generic.NewTimeOfDay(17, 0)},
	}
	cal := &WorkingCalendar{
		ID:           id,
		Name:         name,
		DefaultStart: generic.NewTimeOfDay(8, 0),
		DefaultEnd:   generic.NewTimeOfDay(17, 0),
	}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		cal.Weekdays[wd] = WorkDay{Working: true, Hours: clonePeriods(hours)}
	}
	return cal
}

// SevenDay returns a calendar where every day is worked with default hours.
func SevenDay(id generic.CalendarID, name string) *WorkingCalendar {
	cal := &WorkingCalendar{
		ID:           id,
		Name:         name,
		DefaultStart: generic.NewTimeOfDay(7, 0),
		DefaultEnd:   generic.NewTimeOfDay(19, 0),
	}
	for i := range cal.Weekdays {
		cal.Weekdays[i] = WorkDay{Working: true}
	}
	return cal
}

// =============================================================================
// WORKING-DAY QUERIES
// =============================================================================

// IsWorkingDay applies exception > holiday > weekday precedence.
func (c *WorkingCalendar) IsWorkingDay(d generic.TimePoint) bool {
	if ex, ok := c.ExceptionOn(d); ok {
		return ex.Working
	}
	if _, ok := c.HolidayOn(d); ok {
		return false
	}
	return c.Weekdays[d.Weekday()].Working
}

// ExceptionOn returns the exception covering d. The last defined wins on overlap.
func (c *WorkingCalendar) ExceptionOn(d generic.TimePoint) (Exception, bool) {
	for i := len(c.Exceptions) - 1; i >= 0; i-- {
		if c.Exceptions[i].Period.Contains(d) {
			return c.Exceptions[i], true
		}
	}
	return Exception{}, false
}

func (c *WorkingCalendar) HolidayOn(d generic.TimePoint) (Holiday, bool) {
	for _, h := range c.Holidays {
		if h.Matches(d) {
			return h, true
		}
	}
	return Holiday{}, false
}

// WorkingHours returns the worked periods of d, empty for non-working days.
func (c *WorkingCalendar) WorkingHours(d generic.TimePoint) []WorkingPeriod {
	if !c.IsWorkingDay(d) {
		return nil
	}
	if ex, ok := c.ExceptionOn(d); ok && len(ex.Hours) > 0 {
		return clonePeriods(ex.Hours)
	}
	if wd := c.Weekdays[d.Weekday()]; len(wd.Hours) > 0 {
		return clonePeriods(wd.Hours)
	}
	return []WorkingPeriod{{Start: c.DefaultStart, End: c.DefaultEnd}}
}

// WorkingHoursOn sums the worked hours of d.
func (c *WorkingCalendar) WorkingHoursOn(d generic.TimePoint) float64 {
	var total float64
	for _, p := range c.WorkingHours(d) {
		total += p.Hours()
	}
	return total
}

// WorkingDaysIn lists the working days of p.
func (c *WorkingCalendar) WorkingDaysIn(p generic.Period) []generic.TimePoint {
	var days []generic.TimePoint
	for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		if c.IsWorkingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// =============================================================================
// DURATION ARITHMETIC
// =============================================================================

// WorkingDuration counts working days in [start, end].
// Returns 0 if end < start, otherwise at least 1.
func (c *WorkingCalendar) WorkingDuration(start, end generic.TimePoint) int {
	if end.Before(start) {
		return 0
	}
	n := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if c.IsWorkingDay(d) {
			n++
		}
	}
	if n < 1 {
		return 1
	}
	return n
}

// EndFromDuration returns the last day of an n-day task starting at start.
// A non-working start is snapped forward first.
func (c *WorkingCalendar) EndFromDuration(start generic.TimePoint, n int) (generic.TimePoint, error) {
	d, err := c.Snap(start, Forward)
	if err != nil {
		return generic.TimePoint{}, err
	}
	for remaining := n - 1; remaining > 0; remaining-- {
		if d, err = c.NextWorkingDay(d); err != nil {
			return generic.TimePoint{}, err
		}
	}
	return d, nil
}

// StartFromDuration returns the first day of an n-day task ending at end.
// A non-working end is snapped backward first.
func (c *WorkingCalendar) StartFromDuration(end generic.TimePoint, n int) (generic.TimePoint, error) {
	d, err := c.Snap(end, Backward)
	if err != nil {
		return generic.TimePoint{}, err
	}
	for remaining := n - 1; remaining > 0; remaining-- {
		if d, err = c.PreviousWorkingDay(d); err != nil {
			return generic.TimePoint{}, err
		}
	}
	return d, nil
}

// =============================================================================
// SEARCH
// =============================================================================

// NextWorkingDay returns the first working day strictly after d.
func (c *WorkingCalendar) NextWorkingDay(d generic.TimePoint) (generic.TimePoint, error) {
	return c.search(d.AddDays(1), 1, Forward)
}

// PreviousWorkingDay returns the last working day strictly before d.
func (c *WorkingCalendar) PreviousWorkingDay(d generic.TimePoint) (generic.TimePoint, error) {
	return c.search(d.AddDays(-1), -1, Backward)
}

// Snap returns d when it is a working day, else the closest working day in
// the requested direction. Nearest breaks ties toward Forward.
func (c *WorkingCalendar) Snap(d generic.TimePoint, dir Direction) (generic.TimePoint, error) {
	switch dir {
	case Forward:
		return c.search(d, 1, Forward)
	case Backward:
		return c.search(d, -1, Backward)
	case Nearest:
		fwd, fwdErr := c.search(d, 1, Forward)
		bwd, bwdErr := c.search(d, -1, Backward)
		switch {
		case fwdErr != nil && bwdErr != nil:
			return generic.TimePoint{}, &generic.SearchHorizonError{
				CalendarID: c.ID, From: d, Direction: Nearest.String(), Horizon: c.horizon(),
			}
		case fwdErr != nil:
			return bwd, nil
		case bwdErr != nil:
			return fwd, nil
		}
		if generic.DaysBetween(d, fwd) <= generic.DaysBetween(bwd, d) {
			return fwd, nil
		}
		return bwd, nil
	default:
		return generic.TimePoint{}, fmt.Errorf("snap: unknown %s", dir)
	}
}

func (c *WorkingCalendar) search(from generic.TimePoint, step int, dir Direction) (generic.TimePoint, error) {
	horizon := c.horizon()
	d := from
	for i := 0; i <= horizon; i++ {
		if c.IsWorkingDay(d) {
			return d, nil
		}
		d = d.AddDays(step)
	}
	return generic.TimePoint{}, &generic.SearchHorizonError{
		CalendarID: c.ID, From: from, Direction: dir.String(), Horizon: horizon,
	}
}

func (c *WorkingCalendar) horizon() int {
	if c.SearchHorizon > 0 {
		return c.SearchHorizon
	}
	return DefaultSearchHorizon
}

// =============================================================================
// VALIDATION & COPYING
// =============================================================================

// Validate rejects inverted exception ranges and empty working periods.
func (c *WorkingCalendar) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("calendar: missing id")
	}
	if c.SearchHorizon < 0 {
		return fmt.Errorf("calendar %q: negative search horizon", c.ID)
	}
	for i, wd := range c.Weekdays {
		if err := validatePeriods(wd.Hours); err != nil {
			return fmt.Errorf("calendar %q: %s: %w", c.ID, time.Weekday(i), err)
		}
	}
	for _, ex := range c.Exceptions {
		if err := ex.Period.Validate(); err != nil {
			return fmt.Errorf("calendar %q: exception %q: %w", c.ID, ex.Name, err)
		}
		if err := validatePeriods(ex.Hours); err != nil {
			return fmt.Errorf("calendar %q: exception %q: %w", c.ID, ex.Name, err)
		}
	}
	if c.DefaultEnd < c.DefaultStart {
		return fmt.Errorf("calendar %q: default end %s before start %s", c.ID, c.DefaultEnd, c.DefaultStart)
	}
	return nil
}

func validatePeriods(periods []WorkingPeriod) error {
	for _, p := range periods {
		if p.End <= p.Start {
			return fmt.Errorf("working period %s-%s is empty", p.Start, p.End)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *WorkingCalendar) Clone() *WorkingCalendar {
	if c == nil {
		return nil
	}
	out := *c
	for i, wd := range c.Weekdays {
		out.Weekdays[i].Hours = clonePeriods(wd.Hours)
	}
	out.Holidays = append([]Holiday(nil), c.Holidays...)
	out.Exceptions = make([]Exception, len(c.Exceptions))
	for i, ex := range c.Exceptions {
		out.Exceptions[i] = ex
		out.Exceptions[i].Hours = clonePeriods(ex.Hours)
	}
	if c.Exceptions == nil {
		out.Exceptions = nil
	}
	return &out
}

func clonePeriods(p []WorkingPeriod) []WorkingPeriod {
	if p == nil {
		return nil
	}
	return append([]WorkingPeriod(nil), p...)
}
