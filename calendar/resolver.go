package calendar

import (
	"fmt"

	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// RESOLVER - Which calendar applies?
// =============================================================================

// Tier names the precedence level that supplied a calendar.
type Tier int

const (
	TierGlobal Tier = iota
	TierProject
	TierTask
	TierResource
)

func (t Tier) String() string {
	switch t {
	case TierGlobal:
		return "global"
	case TierProject:
		return "project"
	case TierTask:
		return "task"
	case TierResource:
		return "resource"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Lookup finds calendars by ID. *Registry and Calendars implement it.
type Lookup interface {
	Get(id generic.CalendarID) (*WorkingCalendar, bool)
}

// Calendars is a map-backed Lookup.
type Calendars map[generic.CalendarID]*WorkingCalendar

func (m Calendars) Get(id generic.CalendarID) (*WorkingCalendar, bool) {
	c, ok := m[id]
	return c, ok
}

// Scope carries the optional overrides for one task/resource/project triple.
type Scope struct {
	ResourceCalendar generic.CalendarID
	TaskCalendar     generic.CalendarID
	ProjectCalendar  generic.CalendarID
}

// Resolution is the chosen calendar plus the tier it came from.
// Tier is informational only.
type Resolution struct {
	Calendar *WorkingCalendar
	Tier     Tier
}

// Resolver applies resource > task > project > global precedence.
type Resolver struct {
	Lookup Lookup
	Global *WorkingCalendar
}

// NewResolver falls back to Standard when global is nil.
func NewResolver(lookup Lookup, global *WorkingCalendar) *Resolver {
	if global == nil {
		global = Standard("global", "Global default")
	}
	return &Resolver{Lookup: lookup, Global: global}
}

// Resolve returns the effective calendar. An ID that is set but unknown is
// skipped and the next tier is tried.
func (r *Resolver) Resolve(scope Scope) Resolution {
	candidates := []struct {
		id   generic.CalendarID
		tier Tier
	}{
		{scope.ResourceCalendar, TierResource},
		{scope.TaskCalendar, TierTask},
		{scope.ProjectCalendar, TierProject},
	}
	for _, c := range candidates {
		if c.id == "" || r.Lookup == nil {
			continue
		}
		if cal, ok := r.Lookup.Get(c.id); ok {
			return Resolution{Calendar: cal, Tier: c.tier}
		}
	}
	return Resolution{Calendar: r.Global, Tier: TierGlobal}
}

// ForTask resolves with only the task's own override and the project default.
func (r *Resolver) ForTask(t generic.Task, project generic.CalendarID) *WorkingCalendar {
	return r.Resolve(Scope{TaskCalendar: t.CalendarID, ProjectCalendar: project}).Calendar
}
