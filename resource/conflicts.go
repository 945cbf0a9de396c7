package resource

import (
	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// PER-DAY QUERIES
// =============================================================================

// AllocationOn sums the units of resourceID's allocations covering date.
func AllocationOn(allocs []Allocation, resourceID generic.ResourceID, date generic.TimePoint) float64 {
	var total float64
	for _, a := range allocs {
		if a.ResourceID == resourceID && a.Covers(date) {
			total += a.Units
		}
	}
	return total
}

// AvailabilityOn returns the most specific override covering date (shortest
// period, later entries winning ties), else the resource's capacity.
func AvailabilityOn(res Resource, avails []Availability, date generic.TimePoint) float64 {
	best := -1
	for i, av := range avails {
		if av.ResourceID != res.ID || !av.Period.Contains(date) {
			continue
		}
		if best < 0 || av.Period.Len() <= avails[best].Period.Len() {
			best = i
		}
	}
	if best >= 0 {
		return avails[best].Units
	}
	return res.EffectiveCapacity()
}

// SeverityFor grades an overallocation against availability.
// It never decreases as over grows.
func SeverityFor(over, available float64) Severity {
	if over <= 0 {
		return SeverityLow
	}
	if available <= 0 {
		return SeverityCritical
	}
	ratio := over / available
	switch {
	case ratio > 0.5:
		return SeverityCritical
	case ratio > 0.3:
		return SeverityHigh
	case ratio > 0.1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// =============================================================================
// CONFLICT DETECTION
// =============================================================================

// DetectConflicts scans every resource and every calendar day of period.
// Output is ordered by resource (input order) then date.
func DetectConflicts(allocs []Allocation, avails []Availability, period generic.Period, resources []Resource) []Conflict {
	return detect(allocs, avails, period, resources, nil)
}

// DetectWorkingConflicts is DetectConflicts restricted to each resource's
// working days.
func DetectWorkingConflicts(allocs []Allocation, avails []Availability, period generic.Period, resources []Resource, calFor CalendarFor) []Conflict {
	return detect(allocs, avails, period, resources, calFor)
}

func detect(allocs []Allocation, avails []Availability, period generic.Period, resources []Resource, calFor CalendarFor) []Conflict {
	conflicts := make([]Conflict, 0)
	byResource := groupByResource(allocs)

	for _, res := range resources {
		own := byResource[res.ID]
		if len(own) == 0 {
			continue
		}
		cal := calendarOf(calFor, res)

		for d := period.Start; d.BeforeOrEqual(period.End); d = d.AddDays(1) {
			if cal != nil && !cal.IsWorkingDay(d) {
				continue
			}
			allocated, taskIDs := sumOn(own, d)
			available := AvailabilityOn(res, avails, d)
			if allocated <= available+epsilon {
				continue
			}
			over := allocated - available
			conflicts = append(conflicts, Conflict{
				ResourceID:     res.ID,
				Date:           d,
				Allocated:      allocated,
				Available:      available,
				Overallocation: over,
				Severity:       SeverityFor(over, available),
				TaskIDs:        taskIDs,
			})
		}
	}
	return conflicts
}

// sumOn totals allocations covering d; task IDs keep allocation order.
func sumOn(allocs []Allocation, d generic.TimePoint) (float64, []generic.TaskID) {
	var total float64
	var taskIDs []generic.TaskID
	seen := make(map[generic.TaskID]bool)
	for _, a := range allocs {
		if !a.Covers(d) {
			continue
		}
		total += a.Units
		if !seen[a.TaskID] {
			seen[a.TaskID] = true
			taskIDs = append(taskIDs, a.TaskID)
		}
	}
	return total, taskIDs
}

// =============================================================================
// UTILIZATION
// =============================================================================

// Utilization is total allocated over total available across period, as a
// percentage. Zero when there is no available capacity.
func Utilization(res Resource, allocs []Allocation, avails []Availability, period generic.Period, calFor CalendarFor) float64 {
	cal := calendarOf(calFor, res)
	var allocated, available float64
	for d := period.Start; d.BeforeOrEqual(period.End); d = d.AddDays(1) {
		if cal != nil && !cal.IsWorkingDay(d) {
			continue
		}
		allocated += AllocationOn(allocs, res.ID, d)
		available += AvailabilityOn(res, avails, d)
	}
	if available <= 0 {
		return 0
	}
	return allocated / available * 100
}

// Span returns the smallest period covering every allocation.
func Span(allocs []Allocation) (generic.Period, bool) {
	if len(allocs) == 0 {
		return generic.Period{}, false
	}
	p := allocs[0].Period()
	for _, a := range allocs[1:] {
		p = p.Union(a.Period())
	}
	return p, true
}

func groupByResource(allocs []Allocation) map[generic.ResourceID][]Allocation {
	out := make(map[generic.ResourceID][]Allocation)
	for _, a := range allocs {
		out[a.ResourceID] = append(out[a.ResourceID], a)
	}
	return out
}

func calendarOf(calFor CalendarFor, res Resource) calendarDays {
	if calFor == nil {
		return nil
	}
	if cal := calFor(res); cal != nil {
		return cal
	}
	return nil
}

// calendarDays is the slice of *calendar.WorkingCalendar the scans need.
type calendarDays interface {
	IsWorkingDay(d generic.TimePoint) bool
}
