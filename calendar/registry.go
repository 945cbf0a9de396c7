package calendar

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/visualplan/schedule-engine/generic"
)

// Registry holds named calendars and notifies listeners after every change.
// Calendars go in and come out as copies.
type Registry struct {
	mu        sync.RWMutex
	calendars map[generic.CalendarID]*WorkingCalendar
	order     []generic.CalendarID
	listeners generic.Listeners
	logger    *slog.Logger
}

// NewRegistry creates a registry seeded with initial calendars.
// Later duplicates replace earlier ones.
func NewRegistry(initial ...*WorkingCalendar) *Registry {
	r := &Registry{calendars: make(map[generic.CalendarID]*WorkingCalendar)}
	for _, c := range initial {
		r.put(c)
	}
	return r
}

// WithLogger sets the logger used after each change.
func (r *Registry) WithLogger(l *slog.Logger) *Registry {
	r.logger = l
	return r
}

// Add registers a new calendar. Existing IDs are rejected.
func (r *Registry) Add(c *WorkingCalendar) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	if _, exists := r.calendars[c.ID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("calendar %q: %w", c.ID, generic.ErrDuplicateID)
	}
	r.put(c)
	r.mu.Unlock()

	r.changed()
	return nil
}

// Put inserts or replaces a calendar.
func (r *Registry) Put(c *WorkingCalendar) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.put(c)
	r.mu.Unlock()

	r.changed()
	return nil
}

// Remove deletes a calendar, reporting whether it existed.
func (r *Registry) Remove(id generic.CalendarID) bool {
	r.mu.Lock()
	if _, ok := r.calendars[id]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.calendars, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.changed()
	return true
}

func (r *Registry) Get(id generic.CalendarID) (*WorkingCalendar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calendars[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// List returns calendars in insertion order.
func (r *Registry) List() []*WorkingCalendar {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*WorkingCalendar, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.calendars[id].Clone())
	}
	return out
}

// IDs returns the registered IDs sorted.
func (r *Registry) IDs() []generic.CalendarID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := append([]generic.CalendarID(nil), r.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calendars)
}

// Subscribe registers fn to run after every change.
func (r *Registry) Subscribe(fn generic.Listener) (unsubscribe func()) {
	return r.listeners.Subscribe(fn)
}

func (r *Registry) put(c *WorkingCalendar) {
	if _, exists := r.calendars[c.ID]; !exists {
		r.order = append(r.order, c.ID)
	}
	r.calendars[c.ID] = c.Clone()
}

func (r *Registry) changed() {
	if r.logger != nil {
		r.logger.Debug("calendar registry changed", "calendars", r.Len())
	}
	r.listeners.Notify()
}
