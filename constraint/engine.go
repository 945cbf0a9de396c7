package constraint

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// ENGINE - Constraint set with a derived violation cache
// =============================================================================

// Engine owns a set of constraints and the violations they produce against
// the last task snapshot it was given. Every mutation rebuilds the whole
// violation cache, then notifies listeners.
type Engine struct {
	mu          sync.RWMutex
	constraints []Constraint
	violations  []Violation

	// Last snapshot passed to ValidateAll or ApplyConstraints.
	tasks    []generic.Task
	calendar *calendar.WorkingCalendar

	resolver        *calendar.Resolver
	projectCalendar generic.CalendarID

	listeners generic.Listeners
	logger    *slog.Logger
}

// ApplyResult is the outcome of one ApplyConstraints pass.
type ApplyResult struct {
	Tasks     []generic.Task `json:"tasks"`
	Resolved  []Violation    `json:"resolved"`
	Remaining []Violation    `json:"remaining"`
}

// NewEngine creates an engine holding initial. The first malformed
// constraint aborts construction.
func NewEngine(initial ...Constraint) (*Engine, error) {
	e := &Engine{}
	for _, c := range initial {
		if err := c.Check(); err != nil {
			return nil, err
		}
		e.put(c)
	}
	return e, nil
}

// WithResolver supplies per-task calendars when no calendar is passed in.
func (e *Engine) WithResolver(r *calendar.Resolver, project generic.CalendarID) *Engine {
	e.resolver = r
	e.projectCalendar = project
	return e
}

func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	e.logger = l
	return e
}

func (e *Engine) Subscribe(fn generic.Listener) (unsubscribe func()) {
	return e.listeners.Subscribe(fn)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Add stores c, replacing any constraint of the same kind on the same task.
func (e *Engine) Add(c Constraint) error {
	if err := c.Check(); err != nil {
		return err
	}
	e.mu.Lock()
	e.put(c)
	e.rebuild()
	e.mu.Unlock()

	e.listeners.Notify()
	return nil
}

// Remove deletes the (taskID, kind) constraint, reporting whether it existed.
func (e *Engine) Remove(taskID generic.TaskID, kind Kind) bool {
	e.mu.Lock()
	removed := false
	for i, c := range e.constraints {
		if c.TaskID == taskID && c.Kind == kind {
			e.constraints = append(e.constraints[:i], e.constraints[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		e.rebuild()
	}
	e.mu.Unlock()

	if removed {
		e.listeners.Notify()
	}
	return removed
}

// ValidateAll replaces the task snapshot and recomputes every violation.
// cal may be nil; the resolver (if any) then picks each task's calendar.
func (e *Engine) ValidateAll(tasks []generic.Task, cal *calendar.WorkingCalendar) []Violation {
	e.mu.Lock()
	e.tasks = generic.CloneTasks(tasks)
	e.calendar = cal
	e.rebuild()
	out := cloneViolations(e.violations)
	e.mu.Unlock()

	e.listeners.Notify()
	return out
}

// ApplyConstraints applies every auto-resolvable, currently violated
// constraint exactly once, lowest priority first so the highest priority
// constraint has the final word on a shared task. It then re-validates.
// tasks is not modified.
func (e *Engine) ApplyConstraints(tasks []generic.Task, cal *calendar.WorkingCalendar) (ApplyResult, error) {
	e.mu.Lock()
	working := generic.CloneTasks(tasks)
	idx := generic.IndexTasks(working)

	pending := make([]Constraint, 0, len(e.constraints))
	for _, c := range e.constraints {
		if c.Kind.AutoResolvable() {
			pending = append(pending, c)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].EffectivePriority() < pending[j].EffectivePriority()
	})

	var resolved []Violation
	for _, c := range pending {
		i, ok := idx[c.TaskID]
		if !ok {
			continue
		}
		taskCal := e.calendarFor(working[i], cal)
		v := Validate(working[i], c, taskCal)
		if v == nil {
			continue
		}
		adjusted, err := Apply(working[i], c, taskCal)
		if err != nil {
			e.mu.Unlock()
			return ApplyResult{}, err
		}
		working[i] = adjusted
		resolved = append(resolved, *v)
	}

	e.tasks = working
	e.calendar = cal
	e.rebuild()
	result := ApplyResult{
		Tasks:     generic.CloneTasks(working),
		Resolved:  resolved,
		Remaining: cloneViolations(e.violations),
	}
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Debug("constraints applied", "resolved", len(result.Resolved), "remaining", len(result.Remaining))
	}
	e.listeners.Notify()
	return result, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// For returns the constraints on one task in insertion order.
func (e *Engine) For(taskID generic.TaskID) []Constraint {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Constraint
	for _, c := range e.constraints {
		if c.TaskID == taskID {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (e *Engine) All() []Constraint {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Constraint, len(e.constraints))
	for i, c := range e.constraints {
		out[i] = c.Clone()
	}
	return out
}

// Violations returns the cache built by the last mutation.
func (e *Engine) Violations() []Violation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneViolations(e.violations)
}

// =============================================================================
// INTERNALS (caller holds e.mu)
// =============================================================================

func (e *Engine) put(c Constraint) {
	c = c.Clone()
	if c.Priority == 0 {
		c.Priority = DefaultPriority
	}
	for i, existing := range e.constraints {
		if existing.TaskID == c.TaskID && existing.Kind == c.Kind {
			e.constraints[i] = c
			return
		}
	}
	e.constraints = append(e.constraints, c)
}

// rebuild discards the violation cache and recomputes it in full.
func (e *Engine) rebuild() {
	idx := generic.IndexTasks(e.tasks)
	violations := make([]Violation, 0)
	for _, c := range e.constraints {
		i, ok := idx[c.TaskID]
		if !ok {
			continue
		}
		if v := Validate(e.tasks[i], c, e.calendarFor(e.tasks[i], e.calendar)); v != nil {
			violations = append(violations, *v)
		}
	}
	e.violations = violations

	if e.logger != nil {
		e.logger.Debug("violation cache rebuilt", "constraints", len(e.constraints), "violations", len(violations))
	}
}

func (e *Engine) calendarFor(t generic.Task, cal *calendar.WorkingCalendar) *calendar.WorkingCalendar {
	if cal != nil || e.resolver == nil {
		return cal
	}
	return e.resolver.ForTask(t, e.projectCalendar)
}

func cloneViolations(v []Violation) []Violation {
	out := make([]Violation, len(v))
	copy(out, v)
	return out
}
