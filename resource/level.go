package resource

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// OPTIONS
// =============================================================================

type Mode string

const (
	ModeAutomatic Mode = "automatic"
	ModeManual    Mode = "manual"
)

type Strategy string

const (
	StrategyDelayTasks       Strategy = "delay_tasks"
	StrategyReduceAllocation Strategy = "reduce_allocation"
)

// Priority picks which affected task a delay moves.
type Priority string

const (
	PriorityLatestStart   Priority = "latest_start"
	PriorityShortest      Priority = "shortest"
	PriorityLeastProgress Priority = "least_progress"
)

const DefaultMaxIterations = 100

type Options struct {
	Mode          Mode     `json:"mode"`
	Strategy      Strategy `json:"strategy"`
	Priority      Priority `json:"priority,omitempty"`
	MaxIterations int      `json:"max_iterations,omitempty"`

	// Window fixes the scanned range. Nil scans the span of all allocations,
	// recomputed after each step.
	Window *generic.Period `json:"window,omitempty"`

	Calendars CalendarFor  `json:"-"`
	Logger    *slog.Logger `json:"-"`
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeAutomatic
	}
	if o.Strategy == "" {
		o.Strategy = StrategyDelayTasks
	}
	if o.Priority == "" {
		o.Priority = PriorityLatestStart
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	return o
}

// Validate rejects unknown enum values.
func (o Options) Validate() error {
	switch o.Mode {
	case "", ModeAutomatic, ModeManual:
	default:
		return fmt.Errorf("unknown leveling mode %q", o.Mode)
	}
	switch o.Strategy {
	case "", StrategyDelayTasks, StrategyReduceAllocation:
	default:
		return fmt.Errorf("unknown leveling strategy %q", o.Strategy)
	}
	switch o.Priority {
	case "", PriorityLatestStart, PriorityShortest, PriorityLeastProgress:
	default:
		return fmt.Errorf("unknown leveling priority %q", o.Priority)
	}
	return nil
}

// =============================================================================
// RESULT
// =============================================================================

// Action records one leveling step.
type Action struct {
	Iteration  int                `json:"iteration"`
	Strategy   Strategy           `json:"strategy"`
	ResourceID generic.ResourceID `json:"resource_id"`
	Date       generic.TimePoint  `json:"date"`
	TaskID     generic.TaskID     `json:"task_id,omitempty"`
	ShiftDays  int                `json:"shift_days,omitempty"`
	Reduction  float64            `json:"reduction,omitempty"`
}

// LevelResult is the best state reached. Actions lists only the steps that
// lead to it; Iterations counts every step taken.
type LevelResult struct {
	Tasks            []generic.Task `json:"tasks"`
	Allocations      []Allocation   `json:"allocations"`
	Conflicts        []Conflict     `json:"conflicts"`
	InitialConflicts int            `json:"initial_conflicts"`
	Iterations       int            `json:"iterations"`
	Actions          []Action       `json:"actions"`
	Converged        bool           `json:"converged"`
}

// =============================================================================
// LEVEL
// =============================================================================

// Level removes overallocation by delaying tasks or reducing allocations.
// Inputs are never modified. Manual mode only reports conflicts.
func Level(tasks []generic.Task, allocs []Allocation, avails []Availability, resources []Resource, opts Options) LevelResult {
	opts = opts.withDefaults()
	lv := &leveler{
		tasks:     generic.CloneTasks(tasks),
		allocs:    CloneAllocations(allocs),
		avails:    avails,
		resources: resources,
		opts:      opts,
	}
	conflicts := lv.detect()

	result := LevelResult{
		Tasks:            generic.CloneTasks(lv.tasks),
		Allocations:      CloneAllocations(lv.allocs),
		Conflicts:        conflicts,
		InitialConflicts: len(conflicts),
		Actions:          []Action{},
		Converged:        len(conflicts) == 0,
	}
	if opts.Mode == ModeManual || len(conflicts) == 0 {
		return result
	}

	var actions []Action
	for iter := 1; iter <= opts.MaxIterations && len(conflicts) > 0; iter++ {
		target := mostSevere(conflicts)
		action, ok := lv.step(target)
		if !ok {
			break
		}
		action.Iteration = iter
		actions = append(actions, action)
		conflicts = lv.detect()
		result.Iterations = iter

		if opts.Logger != nil {
			opts.Logger.Debug("leveling step",
				"iteration", iter, "strategy", action.Strategy, "resource", action.ResourceID,
				"task", action.TaskID, "conflicts", len(conflicts))
		}

		if len(conflicts) < len(result.Conflicts) {
			result.Tasks = generic.CloneTasks(lv.tasks)
			result.Allocations = CloneAllocations(lv.allocs)
			result.Conflicts = conflicts
			result.Actions = append([]Action{}, actions...)
		}
	}
	result.Converged = len(result.Conflicts) == 0
	return result
}

type leveler struct {
	tasks     []generic.Task
	allocs    []Allocation
	avails    []Availability
	resources []Resource
	opts      Options
}

func (lv *leveler) detect() []Conflict {
	window := lv.opts.Window
	if window == nil {
		span, ok := Span(lv.allocs)
		if !ok {
			return []Conflict{}
		}
		window = &span
	}
	return detect(lv.allocs, lv.avails, *window, lv.resources, lv.opts.Calendars)
}

func (lv *leveler) step(c Conflict) (Action, bool) {
	switch lv.opts.Strategy {
	case StrategyDelayTasks:
		return lv.delay(c)
	case StrategyReduceAllocation:
		return lv.reduce(c)
	default:
		return Action{}, false
	}
}

// delay shifts one affected task and all of its allocations.
func (lv *leveler) delay(c Conflict) (Action, bool) {
	taskID, ok := lv.pickTask(c.TaskIDs)
	if !ok {
		return Action{}, false
	}
	shift := 1
	if c.Available > 0 {
		shift = int(math.Ceil(c.Overallocation/c.Available - epsilon))
		if shift < 1 {
			shift = 1
		}
	}

	for i := range lv.tasks {
		if lv.tasks[i].ID == taskID {
			lv.tasks[i].Start = lv.tasks[i].Start.AddDays(shift)
			lv.tasks[i].End = lv.tasks[i].End.AddDays(shift)
		}
	}
	for i := range lv.allocs {
		if lv.allocs[i].TaskID == taskID {
			lv.allocs[i].Start = lv.allocs[i].Start.AddDays(shift)
			lv.allocs[i].End = lv.allocs[i].End.AddDays(shift)
		}
	}
	return Action{
		Strategy:   StrategyDelayTasks,
		ResourceID: c.ResourceID,
		Date:       c.Date,
		TaskID:     taskID,
		ShiftDays:  shift,
	}, true
}

// reduce cuts every affected allocation on the conflicting resource evenly.
func (lv *leveler) reduce(c Conflict) (Action, bool) {
	if len(c.TaskIDs) == 0 {
		return Action{}, false
	}
	affected := make(map[generic.TaskID]bool, len(c.TaskIDs))
	for _, id := range c.TaskIDs {
		affected[id] = true
	}
	reduction := c.Overallocation / float64(len(c.TaskIDs))

	changed := false
	for i := range lv.allocs {
		a := &lv.allocs[i]
		if a.ResourceID != c.ResourceID || !affected[a.TaskID] || !a.Covers(c.Date) {
			continue
		}
		a.Units = math.Max(0, a.Units-reduction)
		changed = true
	}
	if !changed {
		return Action{}, false
	}
	return Action{
		Strategy:   StrategyReduceAllocation,
		ResourceID: c.ResourceID,
		Date:       c.Date,
		Reduction:  reduction,
	}, true
}

// pickTask chooses among candidates by the configured priority. Ties keep
// the earliest candidate. Tasks missing from the snapshot still qualify,
// judged by their allocations.
func (lv *leveler) pickTask(candidates []generic.TaskID) (generic.TaskID, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	idx := generic.IndexTasks(lv.tasks)
	best := candidates[0]
	for _, id := range candidates[1:] {
		if lv.prefer(id, best, idx) {
			best = id
		}
	}
	return best, true
}

// prefer reports whether a should be delayed rather than b.
func (lv *leveler) prefer(a, b generic.TaskID, idx map[generic.TaskID]int) bool {
	ta, tb := lv.taskView(a, idx), lv.taskView(b, idx)
	switch lv.opts.Priority {
	case PriorityShortest:
		return ta.SpanDays() < tb.SpanDays()
	case PriorityLeastProgress:
		return ta.PercentComplete < tb.PercentComplete
	case PriorityLatestStart:
		return ta.Start.After(tb.Start)
	default:
		return ta.Start.After(tb.Start)
	}
}

func (lv *leveler) taskView(id generic.TaskID, idx map[generic.TaskID]int) generic.Task {
	if i, ok := idx[id]; ok {
		return lv.tasks[i]
	}
	var view generic.Task
	view.ID = id
	first := true
	for _, a := range lv.allocs {
		if a.TaskID != id {
			continue
		}
		if first || a.Start.Before(view.Start) {
			view.Start = a.Start
		}
		if first || a.End.After(view.End) {
			view.End = a.End
		}
		first = false
	}
	return view
}

// mostSevere returns the worst conflict; the first one wins ties.
func mostSevere(conflicts []Conflict) Conflict {
	best := conflicts[0]
	for _, c := range conflicts[1:] {
		if c.Severity.Rank() > best.Severity.Rank() {
			best = c
		}
	}
	return best
}
