package resource

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// LEDGER - Stateful allocations with a rebuilt conflict cache
// =============================================================================

// Ledger owns resources, allocations and availability overrides. The
// conflict cache is discarded and recomputed after every mutation, then
// listeners are notified.
type Ledger struct {
	mu           sync.RWMutex
	resources    []Resource
	allocations  []Allocation
	availability []Availability
	window       *generic.Period
	calendars    CalendarFor
	conflicts    []Conflict

	listeners generic.Listeners
	logger    *slog.Logger
}

// NewLedger copies its inputs and builds the initial conflict cache.
func NewLedger(resources []Resource, allocs []Allocation, avails []Availability) *Ledger {
	l := &Ledger{
		resources:    cloneResources(resources),
		allocations:  CloneAllocations(allocs),
		availability: append([]Availability(nil), avails...),
	}
	l.rebuild()
	return l
}

// WithCalendars restricts scans to each resource's working days.
func (l *Ledger) WithCalendars(r *calendar.Resolver, project generic.CalendarID) *Ledger {
	l.mu.Lock()
	l.calendars = ResolverCalendars(r, project)
	l.rebuild()
	l.mu.Unlock()
	return l
}

func (l *Ledger) WithLogger(logger *slog.Logger) *Ledger {
	l.logger = logger
	return l
}

func (l *Ledger) Subscribe(fn generic.Listener) (unsubscribe func()) {
	return l.listeners.Subscribe(fn)
}

// =============================================================================
// MUTATIONS
// =============================================================================

func (l *Ledger) AddResource(r Resource) error {
	l.mu.Lock()
	for _, existing := range l.resources {
		if existing.ID == r.ID {
			l.mu.Unlock()
			return fmt.Errorf("resource %q: %w", r.ID, generic.ErrDuplicateID)
		}
	}
	l.resources = append(l.resources, cloneResources([]Resource{r})...)
	l.mutated()
	return nil
}

// AddAllocation stores a, assigning an ID when empty, and returns the stored copy.
func (l *Ledger) AddAllocation(a Allocation) (Allocation, error) {
	if a.End.Before(a.Start) {
		return Allocation{}, &generic.TaskError{TaskID: a.TaskID, Reason: "allocation ends before it starts", Err: generic.ErrInvalidPeriod}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	stored := CloneAllocations([]Allocation{a})
	l.mu.Lock()
	l.allocations = append(l.allocations, stored...)
	l.mutated()
	return stored[0], nil
}

// RemoveAllocation deletes by ID, reporting whether it existed.
func (l *Ledger) RemoveAllocation(id string) bool {
	l.mu.Lock()
	for i, a := range l.allocations {
		if a.ID == id {
			l.allocations = append(l.allocations[:i], l.allocations[i+1:]...)
			l.mutated()
			return true
		}
	}
	l.mu.Unlock()
	return false
}

// SetAllocations replaces every allocation.
func (l *Ledger) SetAllocations(allocs []Allocation) {
	l.mu.Lock()
	l.allocations = CloneAllocations(allocs)
	l.mutated()
}

// SetAvailability replaces every availability override.
func (l *Ledger) SetAvailability(avails []Availability) {
	l.mu.Lock()
	l.availability = append([]Availability(nil), avails...)
	l.mutated()
}

// SetWindow fixes the scanned range. Nil scans the allocation span.
func (l *Ledger) SetWindow(p *generic.Period) {
	l.mu.Lock()
	if p != nil {
		cp := *p
		p = &cp
	}
	l.window = p
	l.mutated()
}

// Level runs the leveling loop over the ledger's data. In automatic mode the
// leveled allocations replace the ledger's own.
func (l *Ledger) Level(tasks []generic.Task, opts Options) LevelResult {
	l.mu.Lock()
	if opts.Calendars == nil {
		opts.Calendars = l.calendars
	}
	if opts.Window == nil {
		opts.Window = l.window
	}
	if opts.Logger == nil {
		opts.Logger = l.logger
	}
	result := Level(tasks, l.allocations, l.availability, l.resources, opts)
	if opts.withDefaults().Mode == ModeManual {
		l.mu.Unlock()
		return result
	}
	l.allocations = CloneAllocations(result.Allocations)
	l.mutated()
	return result
}

// mutated rebuilds, releases the lock taken by the caller, then notifies.
func (l *Ledger) mutated() {
	l.rebuild()
	l.mu.Unlock()
	l.listeners.Notify()
}

func (l *Ledger) rebuild() {
	window := l.window
	if window == nil {
		span, ok := Span(l.allocations)
		if !ok {
			l.conflicts = []Conflict{}
			return
		}
		window = &span
	}
	l.conflicts = detect(l.allocations, l.availability, *window, l.resources, l.calendars)
	if l.logger != nil {
		l.logger.Debug("conflict cache rebuilt", "allocations", len(l.allocations), "conflicts", len(l.conflicts))
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// Conflicts returns the cache built by the last mutation.
func (l *Ledger) Conflicts() []Conflict {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneConflicts(l.conflicts)
}

func (l *Ledger) Resources() []Resource {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneResources(l.resources)
}

func (l *Ledger) Allocations() []Allocation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return CloneAllocations(l.allocations)
}

func (l *Ledger) Resource(id generic.ResourceID) (Resource, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.find(id)
}

func (l *Ledger) AllocationOn(id generic.ResourceID, date generic.TimePoint) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return AllocationOn(l.allocations, id, date)
}

// AvailabilityOn is 0 for unknown resources.
func (l *Ledger) AvailabilityOn(id generic.ResourceID, date generic.TimePoint) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res, ok := l.find(id)
	if !ok {
		return 0
	}
	return AvailabilityOn(res, l.availability, date)
}

// Utilization is 0 for unknown resources.
func (l *Ledger) Utilization(id generic.ResourceID, period generic.Period) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res, ok := l.find(id)
	if !ok {
		return 0
	}
	return Utilization(res, l.allocations, l.availability, period, l.calendars)
}

func (l *Ledger) find(id generic.ResourceID) (Resource, bool) {
	for _, r := range l.resources {
		if r.ID == id {
			return r, true
		}
	}
	return Resource{}, false
}
