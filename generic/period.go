package generic

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is the inclusive range [Start, End].
//
// Examples:
//   - A calendar exception: Dec 24 - Jan 2
//   - An availability override: the week a crew is on another site
//   - A conflict scan window: project start - project finish
type Period struct {
	Start TimePoint `json:"start" yaml:"start"`
	End   TimePoint `json:"end" yaml:"end"`
}

func NewPeriod(start, end TimePoint) Period { return Period{Start: start, End: end} }

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Len returns the number of calendar days in the period, 0 when inverted.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns every date in the period.
func (p Period) Days() []TimePoint {
	days := make([]TimePoint, 0, p.Len())
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Union returns the smallest period covering both.
func (p Period) Union(other Period) Period {
	return Period{Start: MinTime(p.Start, other.Start), End: MaxTime(p.End, other.End)}
}

// Shift moves both bounds by n calendar days.
func (p Period) Shift(n int) Period {
	return Period{Start: p.Start.AddDays(n), End: p.End.AddDays(n)}
}

func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
