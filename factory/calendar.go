/*
Package factory converts JSON and YAML definitions into engine types.

PURPOSE:
  Calendars, rate tables, constraints and whole project files are authored
  as documents so planners can change them without code changes. The
  factory validates each document and builds the matching Go values.

CALENDAR SCHEMA:
  {
    "id": "site-a",
    "name": "Site A",
    "preset": "standard",                // standard (default), seven_day, none
    "working_days": ["monday", "tuesday", "wednesday", "thursday"],
    "hours": ["07:00-12:00", "12:30-16:30"],
    "day_hours": {"friday": ["07:00-12:00"]},
    "holidays": [
      {"name": "New Year", "date": "2024-01-01", "recurring": true, "type": "public"}
    ],
    "exceptions": [
      {"name": "Shutdown", "start": "2024-12-24", "end": "2025-01-02", "working": false}
    ],
    "search_horizon": 730
  }

  working_days replaces the preset's week. hours applies to every working
  day. day_hours overrides single days; an empty list makes the day
  non-working.

SEE ALSO:
  - records.go: Rate and constraint documents
  - project.go: Whole project files (YAML or JSON)
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

type CalendarJSON struct {
	ID            string              `json:"id" yaml:"id"`
	Name          string              `json:"name" yaml:"name"`
	Preset        string              `json:"preset,omitempty" yaml:"preset,omitempty"`
	WorkingDays   []string            `json:"working_days,omitempty" yaml:"working_days,omitempty"`
	Hours         []string            `json:"hours,omitempty" yaml:"hours,omitempty"`
	DayHours      map[string][]string `json:"day_hours,omitempty" yaml:"day_hours,omitempty"`
	Holidays      []HolidayJSON       `json:"holidays,omitempty" yaml:"holidays,omitempty"`
	Exceptions    []ExceptionJSON     `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
	SearchHorizon int                 `json:"search_horizon,omitempty" yaml:"search_horizon,omitempty"`
}

type HolidayJSON struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string `json:"name" yaml:"name"`
	Date      string `json:"date" yaml:"date"`
	Recurring bool   `json:"recurring,omitempty" yaml:"recurring,omitempty"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
}

type ExceptionJSON struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string   `json:"name" yaml:"name"`
	Start   string   `json:"start" yaml:"start"`
	End     string   `json:"end" yaml:"end"`
	Working bool     `json:"working" yaml:"working"`
	Hours   []string `json:"hours,omitempty" yaml:"hours,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseCalendarJSON parses a calendar document.
func ParseCalendarJSON(data []byte) (*calendar.WorkingCalendar, error) {
	var cj CalendarJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return nil, fmt.Errorf("failed to parse calendar JSON: %w", err)
	}
	return FromCalendarJSON(cj)
}

// ParseCalendarYAML parses the same document written as YAML.
func ParseCalendarYAML(data []byte) (*calendar.WorkingCalendar, error) {
	var cj CalendarJSON
	if err := yaml.Unmarshal(data, &cj); err != nil {
		return nil, fmt.Errorf("failed to parse calendar YAML: %w", err)
	}
	return FromCalendarJSON(cj)
}

// FromCalendarJSON builds and validates a calendar.
func FromCalendarJSON(cj CalendarJSON) (*calendar.WorkingCalendar, error) {
	if cj.ID == "" {
		return nil, fmt.Errorf("calendar: missing id")
	}
	id := generic.CalendarID(cj.ID)

	var cal *calendar.WorkingCalendar
	switch strings.ToLower(cj.Preset) {
	case "", "standard":
		cal = calendar.Standard(id, cj.Name)
	case "seven_day", "seven-day":
		cal = calendar.SevenDay(id, cj.Name)
	case "none":
		cal = &calendar.WorkingCalendar{ID: id, Name: cj.Name}
	default:
		return nil, fmt.Errorf("calendar %s: unknown preset %q", cj.ID, cj.Preset)
	}
	cal.SearchHorizon = cj.SearchHorizon

	hours, err := parseHours(cj.Hours)
	if err != nil {
		return nil, fmt.Errorf("calendar %s: %w", cj.ID, err)
	}
	if len(hours) > 0 {
		cal.DefaultStart = hours[0].Start
		cal.DefaultEnd = hours[len(hours)-1].End
	}

	if cj.WorkingDays != nil {
		cal.Weekdays = [7]calendar.WorkDay{}
		for _, name := range cj.WorkingDays {
			wd, err := parseWeekday(name)
			if err != nil {
				return nil, fmt.Errorf("calendar %s: %w", cj.ID, err)
			}
			cal.Weekdays[wd] = calendar.WorkDay{Working: true, Hours: copyHours(hours)}
		}
	} else if len(hours) > 0 {
		for i := range cal.Weekdays {
			if cal.Weekdays[i].Working {
				cal.Weekdays[i].Hours = copyHours(hours)
			}
		}
	}

	for name, spans := range cj.DayHours {
		wd, err := parseWeekday(name)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", cj.ID, err)
		}
		dayHours, err := parseHours(spans)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %s: %w", cj.ID, name, err)
		}
		cal.Weekdays[wd] = calendar.WorkDay{Working: len(dayHours) > 0, Hours: dayHours}
	}

	for _, hj := range cj.Holidays {
		h, err := parseHoliday(hj)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", cj.ID, err)
		}
		cal.Holidays = append(cal.Holidays, h)
	}

	for _, ej := range cj.Exceptions {
		ex, err := parseException(ej)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", cj.ID, err)
		}
		cal.Exceptions = append(cal.Exceptions, ex)
	}

	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return cal, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return wd, nil
}

// parseHours reads "HH:MM-HH:MM" spans.
func parseHours(spans []string) ([]calendar.WorkingPeriod, error) {
	if len(spans) == 0 {
		return nil, nil
	}
	out := make([]calendar.WorkingPeriod, 0, len(spans))
	for _, span := range spans {
		from, to, ok := strings.Cut(span, "-")
		if !ok {
			return nil, fmt.Errorf("working period %q: want HH:MM-HH:MM", span)
		}
		start, err := generic.ParseTimeOfDay(from)
		if err != nil {
			return nil, err
		}
		end, err := generic.ParseTimeOfDay(to)
		if err != nil {
			return nil, err
		}
		out = append(out, calendar.WorkingPeriod{Start: start, End: end})
	}
	return out, nil
}

func copyHours(p []calendar.WorkingPeriod) []calendar.WorkingPeriod {
	if p == nil {
		return nil
	}
	return append([]calendar.WorkingPeriod(nil), p...)
}

func parseHoliday(hj HolidayJSON) (calendar.Holiday, error) {
	date, err := generic.ParseDate(hj.Date)
	if err != nil {
		return calendar.Holiday{}, fmt.Errorf("holiday %q: %w", hj.Name, err)
	}
	h := calendar.Holiday{ID: hj.ID, Name: hj.Name, Date: date, Recurring: hj.Recurring}
	switch t := calendar.HolidayType(strings.ToLower(hj.Type)); t {
	case "":
		h.Type = calendar.HolidayPublic
	case calendar.HolidayPublic, calendar.HolidayCompany, calendar.HolidayReligious, calendar.HolidayOther:
		h.Type = t
	default:
		return calendar.Holiday{}, fmt.Errorf("holiday %q: unknown type %q", hj.Name, hj.Type)
	}
	return h, nil
}

func parseException(ej ExceptionJSON) (calendar.Exception, error) {
	start, err := generic.ParseDate(ej.Start)
	if err != nil {
		return calendar.Exception{}, fmt.Errorf("exception %q: %w", ej.Name, err)
	}
	end := start
	if ej.End != "" {
		if end, err = generic.ParseDate(ej.End); err != nil {
			return calendar.Exception{}, fmt.Errorf("exception %q: %w", ej.Name, err)
		}
	}
	hours, err := parseHours(ej.Hours)
	if err != nil {
		return calendar.Exception{}, fmt.Errorf("exception %q: %w", ej.Name, err)
	}
	return calendar.Exception{
		ID:      ej.ID,
		Name:    ej.Name,
		Period:  generic.NewPeriod(start, end),
		Working: ej.Working,
		Hours:   hours,
	}, nil
}

// ToCalendarJSON converts a calendar back to its document form. Parsing the
// result yields a calendar with the same working days and hours.
func ToCalendarJSON(cal *calendar.WorkingCalendar) CalendarJSON {
	cj := CalendarJSON{
		ID:            string(cal.ID),
		Name:          cal.Name,
		Preset:        "none",
		WorkingDays:   []string{},
		SearchHorizon: cal.SearchHorizon,
	}
	if cal.DefaultEnd > cal.DefaultStart {
		cj.Hours = []string{formatPeriod(calendar.WorkingPeriod{Start: cal.DefaultStart, End: cal.DefaultEnd})}
	}
	for i, wd := range cal.Weekdays {
		if !wd.Working {
			continue
		}
		name := strings.ToLower(time.Weekday(i).String())
		cj.WorkingDays = append(cj.WorkingDays, name)
		if len(wd.Hours) > 0 {
			if cj.DayHours == nil {
				cj.DayHours = make(map[string][]string)
			}
			for _, p := range wd.Hours {
				cj.DayHours[name] = append(cj.DayHours[name], formatPeriod(p))
			}
		}
	}
	for _, h := range cal.Holidays {
		cj.Holidays = append(cj.Holidays, HolidayJSON{
			ID: h.ID, Name: h.Name, Date: h.Date.String(), Recurring: h.Recurring, Type: string(h.Type),
		})
	}
	for _, ex := range cal.Exceptions {
		ej := ExceptionJSON{
			ID: ex.ID, Name: ex.Name, Start: ex.Period.Start.String(), End: ex.Period.End.String(), Working: ex.Working,
		}
		for _, p := range ex.Hours {
			ej.Hours = append(ej.Hours, formatPeriod(p))
		}
		cj.Exceptions = append(cj.Exceptions, ej)
	}
	return cj
}

func formatPeriod(p calendar.WorkingPeriod) string {
	return p.Start.String() + "-" + p.End.String()
}

// =============================================================================
// PRESETS
// =============================================================================

// StandardCalendarJSON returns a Monday-Friday document with a lunch break.
func StandardCalendarJSON(id, name string) string {
	return fmt.Sprintf(`{
  "id": %q,
  "name": %q,
  "preset": "standard",
  "hours": ["08:00-12:00", "13:00-17:00"]
}`, id, name)
}

// ShiftCalendarJSON returns a seven-day document for round-the-clock crews.
func ShiftCalendarJSON(id, name string) string {
	return fmt.Sprintf(`{
  "id": %q,
  "name": %q,
  "preset": "seven_day",
  "hours": ["06:00-14:00", "14:00-22:00"]
}`, id, name)
}
