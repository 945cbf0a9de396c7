package scenario

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/visualplan/schedule-engine/generic"
)

// Registry holds scenarios and notifies listeners after every change.
// Scenarios go in and come out as deep copies.
type Registry struct {
	mu        sync.RWMutex
	scenarios map[string]Scenario
	order     []string
	listeners generic.Listeners
	logger    *slog.Logger
}

// NewRegistry seeds the registry. Later duplicates replace earlier ones.
func NewRegistry(initial ...Scenario) *Registry {
	r := &Registry{scenarios: make(map[string]Scenario)}
	for _, s := range initial {
		if _, exists := r.scenarios[s.ID]; !exists {
			r.order = append(r.order, s.ID)
		}
		r.scenarios[s.ID] = s.Clone()
	}
	return r
}

func (r *Registry) WithLogger(l *slog.Logger) *Registry {
	r.logger = l
	return r
}

func (r *Registry) Subscribe(fn generic.Listener) (unsubscribe func()) {
	return r.listeners.Subscribe(fn)
}

func (r *Registry) Add(s Scenario) error {
	if s.ID == "" {
		return fmt.Errorf("scenario: missing id")
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("scenario %s: unknown status %q", s.ID, s.Status)
	}
	r.mu.Lock()
	if _, exists := r.scenarios[s.ID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("scenario %s: %w", s.ID, generic.ErrDuplicateID)
	}
	r.scenarios[s.ID] = s.Clone()
	r.order = append(r.order, s.ID)
	r.mu.Unlock()

	r.changed()
	return nil
}

// SetStatus moves a scenario along draft -> active -> archived.
func (r *Registry) SetStatus(id string, to Status) error {
	r.mu.Lock()
	s, ok := r.scenarios[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("scenario %s: %w", id, generic.ErrScenarioNotFound)
	}
	if !s.Status.CanTransition(to) {
		r.mu.Unlock()
		return fmt.Errorf("scenario %s: cannot move from %s to %s", id, s.Status, to)
	}
	s.Status = to
	r.scenarios[id] = s
	r.mu.Unlock()

	r.changed()
	return nil
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	if _, ok := r.scenarios[id]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.scenarios, id)
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

func (r *Registry) Get(id string) (Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scenarios[id]
	if !ok {
		return Scenario{}, false
	}
	return s.Clone(), true
}

// List returns scenarios in insertion order.
func (r *Registry) List() []Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scenario, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.scenarios[id].Clone())
	}
	return out
}

// Lineage walks ParentID links from id back to its root, id first.
func (r *Registry) Lineage(id string) []Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Scenario
	seen := make(map[string]bool)
	for id != "" && !seen[id] {
		s, ok := r.scenarios[id]
		if !ok {
			break
		}
		seen[id] = true
		out = append(out, s.Clone())
		id = s.ParentID
	}
	return out
}

func (r *Registry) changed() {
	if r.logger != nil {
		r.mu.RLock()
		n := len(r.scenarios)
		r.mu.RUnlock()
		r.logger.Debug("scenario registry changed", "scenarios", n)
	}
	r.listeners.Notify()
}
