package constraint

import (
	"fmt"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/generic"
)

// criticalDayThreshold separates error from warning severity.
const criticalDayThreshold = 7

// =============================================================================
// VALIDATE
// =============================================================================

// Validate returns the violation of c by task, or nil when satisfied.
// cal is optional and only refines the suggested fix.
func Validate(task generic.Task, c Constraint, cal *calendar.WorkingCalendar) *Violation {
	if !c.Kind.RequiresDate() || c.Date == nil {
		return nil
	}
	anchor := *c.Date
	scheduled := scheduledDate(task, c.Kind)
	days := generic.DaysBetween(anchor, scheduled)

	if !violates(c.Kind, days) || abs(days) <= c.Tolerance {
		return nil
	}

	return &Violation{
		TaskID:         task.ID,
		Kind:           c.Kind,
		ScheduledDate:  scheduled,
		ConstraintDate: anchor,
		Days:           days,
		Severity:       severity(c.Kind, days),
		CanAutoResolve: c.Kind.AutoResolvable(),
		SuggestedFix:   suggestFix(c.Kind, anchor, cal),
	}
}

func scheduledDate(task generic.Task, k Kind) generic.TimePoint {
	if k.AnchorsStart() {
		return task.Start
	}
	return task.End
}

func violates(k Kind, days int) bool {
	switch k {
	case AsSoonAsPossible, AsLateAsPossible:
		return false
	case StartNoEarlierThan, FinishNoEarlierThan:
		return days < 0
	case StartNoLaterThan, FinishNoLaterThan:
		return days > 0
	case MustStartOn, MustFinishOn:
		return days != 0
	default:
		return false
	}
}

func severity(k Kind, days int) Severity {
	switch {
	case k == MustStartOn || k == MustFinishOn:
		return SeverityCritical
	case abs(days) > criticalDayThreshold:
		return SeverityError
	default:
		return SeverityWarning
	}
}

func suggestFix(k Kind, anchor generic.TimePoint, cal *calendar.WorkingCalendar) string {
	target := anchor
	if cal != nil {
		if snapped, err := cal.Snap(anchor, snapDirection(k)); err == nil {
			target = snapped
		}
	}
	switch k {
	case MustStartOn:
		return fmt.Sprintf("Reschedule the task to start exactly on %s (manual review required)", anchor)
	case MustFinishOn:
		return fmt.Sprintf("Reschedule the task to finish exactly on %s (manual review required)", anchor)
	case StartNoEarlierThan:
		return fmt.Sprintf("Move the start to %s or later", target)
	case StartNoLaterThan:
		return fmt.Sprintf("Move the start to %s or earlier", target)
	case FinishNoEarlierThan:
		return fmt.Sprintf("Move the finish to %s or later", target)
	case FinishNoLaterThan:
		return fmt.Sprintf("Move the finish to %s or earlier", target)
	case AsSoonAsPossible, AsLateAsPossible:
		return ""
	default:
		return ""
	}
}

// =============================================================================
// APPLY
// =============================================================================

// Apply moves task so that c holds, keeping its calendar-day span.
//
// The anchored date is set to the constraint date and the other date follows.
// With a calendar, start is snapped forward and end backward, except where
// that would break the bound being enforced (SNLT snaps start backward, FNET
// snaps end forward). End is clamped to Start. A satisfied task comes back
// unchanged, so Apply is idempotent.
func Apply(task generic.Task, c Constraint, cal *calendar.WorkingCalendar) (generic.Task, error) {
	if Validate(task, c, nil) == nil {
		return task, nil
	}
	anchor := *c.Date
	span := task.SpanDays()
	if span < 0 {
		span = 0
	}

	out := task
	var err error
	if c.Kind.AnchorsStart() {
		if out.Start, err = snap(cal, anchor, snapDirection(c.Kind)); err != nil {
			return task, err
		}
		if out.End, err = snap(cal, out.Start.AddDays(span), calendar.Backward); err != nil {
			return task, err
		}
		if out.End.Before(out.Start) {
			out.End = out.Start
		}
	} else {
		if out.End, err = snap(cal, anchor, snapDirection(c.Kind)); err != nil {
			return task, err
		}
		if out.Start, err = snap(cal, out.End.AddDays(-span), calendar.Forward); err != nil {
			return task, err
		}
		if out.Start.After(out.End) {
			out.Start = out.End
		}
	}

	if cal != nil {
		out.Duration = cal.WorkingDuration(out.Start, out.End)
	}
	return out, nil
}

// snapDirection picks the direction for the anchored date so the snapped
// date still satisfies the bound.
func snapDirection(k Kind) calendar.Direction {
	switch k {
	case StartNoLaterThan, FinishNoLaterThan, MustFinishOn:
		return calendar.Backward
	case StartNoEarlierThan, FinishNoEarlierThan, MustStartOn, AsSoonAsPossible, AsLateAsPossible:
		return calendar.Forward
	default:
		return calendar.Forward
	}
}

func snap(cal *calendar.WorkingCalendar, d generic.TimePoint, dir calendar.Direction) (generic.TimePoint, error) {
	if cal == nil {
		return d, nil
	}
	return cal.Snap(d, dir)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
