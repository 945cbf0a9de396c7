/*
demos.go - Demo project loaders for testing and demonstrations

PURPOSE:

	Provides pre-built projects that populate the store with realistic
	calendars, rate tables, constraints and scenarios. Each demo exercises
	a specific part of the engine.

AVAILABLE DEMOS:

	office-fitout:    Office calendar with a holiday, dated rate change, SNET/FNLT constraints
	round-the-clock:  Seven-day shift calendar, weekend and overtime rates, derived what-if
	calendar-presets: Standard, shift and seven-day calendars only

HOW DEMOS WORK:
 1. Reset the store (clear all data)
 2. Create calendars from JSON documents via factory
 3. Create rate records and constraints from JSON documents
 4. Create a baseline scenario, optionally derive what-ifs from it

USAGE VIA API:

	POST /api/demos/load
	{"demo_id": "office-fitout"}

ADDING NEW DEMOS:
 1. Add to 'demos' slice with ID, name, description
 2. Create loader function: loadXxxDemo(ctx)
 3. Add the loader to demoLoaders

NOTE:

	Demos reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Calendar, rate, constraint and scenario handlers
  - factory/calendar.go: Calendar JSON documents and presets
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/visualplan/schedule-engine/factory"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/scenario"
)

// =============================================================================
// DEMO DEFINITIONS
// =============================================================================

type DemoDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

var demos = []DemoDTO{
	{
		ID:          "office-fitout",
		Name:        "Office Fit-out",
		Description: "Five-day office calendar with a holiday, a mid-year rate rise and date constraints",
		Category:    "constraints",
	},
	{
		ID:          "round-the-clock",
		Name:        "Round-the-Clock Plant",
		Description: "Seven-day shift calendar, weekend and overtime rates, and a delayed what-if",
		Category:    "scenarios",
	},
	{
		ID:          "calendar-presets",
		Name:        "Calendar Presets",
		Description: "Standard, shift and seven-day calendars with no project data",
		Category:    "calendars",
	},
}

func (h *Handler) demoLoaders() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"office-fitout":    h.loadOfficeFitoutDemo,
		"round-the-clock":  h.loadRoundTheClockDemo,
		"calendar-presets": h.loadCalendarPresetsDemo,
	}
}

// ListDemos returns available demos.
func (h *Handler) ListDemos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, demos)
}

// GetCurrentDemo returns the currently loaded demo, if any.
func (h *Handler) GetCurrentDemo(w http.ResponseWriter, r *http.Request) {
	h.demoMu.RLock()
	current := h.currentDemo
	h.demoMu.RUnlock()

	for _, d := range demos {
		if d.ID == current {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadDemo resets the store and loads a predefined demo.
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DemoID string `json:"demo_id"`
	}
	if !decode(w, r, &req) {
		return
	}

	load, ok := h.demoLoaders()[req.DemoID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown demo", fmt.Errorf("demo %q", req.DemoID))
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, r, "Failed to reset store", err)
		return
	}
	if err := load(ctx); err != nil {
		h.fail(w, r, "Failed to load demo", err)
		return
	}

	h.demoMu.Lock()
	h.currentDemo = req.DemoID
	h.demoMu.Unlock()

	h.Logger.Info("demo loaded", "demo", req.DemoID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "demo_id": req.DemoID})
}

// =============================================================================
// OFFICE FIT-OUT
// =============================================================================

func (h *Handler) loadOfficeFitoutDemo(ctx context.Context) error {
	if err := h.createCalendarFromJSON(ctx, `{
		"id": "office",
		"name": "Office",
		"preset": "standard",
		"hours": ["08:00-12:00", "13:00-17:00"],
		"holidays": [
			{"name": "Labour Day", "date": "2024-05-01", "recurring": true, "type": "public"},
			{"name": "Company Offsite", "date": "2024-06-14", "type": "company"}
		]
	}`); err != nil {
		return err
	}

	if err := h.createRatesFromJSON(ctx, `[
		{"id": "elec-2024", "resource_id": "R-ELEC", "type": "standard", "price_per_unit": "55", "effective_from": "2024-01-01", "effective_to": "2024-06-30"},
		{"id": "elec-2024h2", "resource_id": "R-ELEC", "type": "standard", "price_per_unit": "60", "effective_from": "2024-07-01"},
		{"id": "elec-ot", "resource_id": "R-ELEC", "type": "overtime", "price_per_unit": "85", "effective_from": "2024-01-01"},
		{"id": "join-2024", "resource_id": "R-JOIN", "type": "standard", "price_per_unit": "48", "cost_per_use": "150", "effective_from": "2024-01-01"}
	]`); err != nil {
		return err
	}

	if err := h.createConstraintsFromJSON(ctx,
		`{"task_id": "FIT-2", "type": "SNET", "date": "2024-06-17"}`,
		`{"task_id": "FIT-3", "type": "FNLT", "date": "2024-06-28", "priority": 8}`,
	); err != nil {
		return err
	}

	tasks := []generic.Task{
		demoTask("FIT-1", "Strip out", "2024-06-03", "2024-06-07", 5, generic.StatusInProgress, "office"),
		demoTask("FIT-2", "Electrical first fix", "2024-06-10", "2024-06-19", 8, generic.StatusNotStarted, "office"),
		demoTask("FIT-3", "Joinery", "2024-06-20", "2024-06-28", 7, generic.StatusNotStarted, "office"),
	}
	deps := []generic.Dependency{
		{PredecessorID: "FIT-1", SuccessorID: "FIT-2", Type: generic.FinishToStart},
		{PredecessorID: "FIT-2", SuccessorID: "FIT-3", Type: generic.FinishToStart},
	}
	_, err := h.createScenario(ctx, "Fit-out baseline", "As tendered", tasks, deps)
	return err
}

// =============================================================================
// ROUND-THE-CLOCK PLANT
// =============================================================================

func (h *Handler) loadRoundTheClockDemo(ctx context.Context) error {
	if err := h.createCalendarFromJSON(ctx, factory.ShiftCalendarJSON("plant", "Plant shifts")); err != nil {
		return err
	}

	if err := h.createRatesFromJSON(ctx, `[
		{"id": "crew-std", "resource_id": "R-CREW", "type": 1, "price_per_unit": "40", "effective_from": "2024-01-01"},
		{"id": "crew-ot", "resource_id": "R-CREW", "type": 2, "price_per_unit": "60", "effective_from": "2024-01-01"},
		{"id": "crew-wknd", "resource_id": "R-CREW", "type": 4, "price_per_unit": "50", "effective_from": "2024-01-01"}
	]`); err != nil {
		return err
	}

	if err := h.createConstraintsFromJSON(ctx,
		`{"task_id": "PL-3", "type": "MFO", "date": "2024-09-22"}`,
	); err != nil {
		return err
	}

	tasks := []generic.Task{
		demoTask("PL-1", "Shutdown", "2024-09-02", "2024-09-04", 3, generic.StatusNotStarted, "plant"),
		demoTask("PL-2", "Kiln reline", "2024-09-05", "2024-09-18", 14, generic.StatusNotStarted, "plant"),
		demoTask("PL-3", "Restart and test", "2024-09-19", "2024-09-22", 4, generic.StatusNotStarted, "plant"),
	}
	deps := []generic.Dependency{
		{PredecessorID: "PL-1", SuccessorID: "PL-2", Type: generic.FinishToStart},
		{PredecessorID: "PL-2", SuccessorID: "PL-3", Type: generic.FinishToStart},
	}
	base, err := h.createScenario(ctx, "Outage baseline", "Planned September outage", tasks, deps)
	if err != nil {
		return err
	}

	derived, _ := h.Simulator.ApplyChanges(base, nil, []scenario.Change{
		{TaskID: "PL-2", Kind: scenario.ChangeEnd, Date: generic.MustParseDate("2024-09-23")},
	})
	derived.Name = "Refractory late"
	derived.Description = "Reline overruns by five days"
	return h.Store.SaveScenario(ctx, derived)
}

// =============================================================================
// CALENDAR PRESETS
// =============================================================================

func (h *Handler) loadCalendarPresetsDemo(ctx context.Context) error {
	docs := []string{
		factory.StandardCalendarJSON("standard", "Standard office"),
		factory.ShiftCalendarJSON("shift", "Two-shift"),
		`{"id": "seven_day", "name": "Seven day", "preset": "seven_day"}`,
	}
	for _, doc := range docs {
		if err := h.createCalendarFromJSON(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) createCalendarFromJSON(ctx context.Context, doc string) error {
	cal, err := factory.ParseCalendarJSON([]byte(doc))
	if err != nil {
		return err
	}
	return h.Store.SaveCalendar(ctx, cal)
}

func (h *Handler) createRatesFromJSON(ctx context.Context, doc string) error {
	recs, err := factory.ParseRatesJSON([]byte(doc))
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if _, err := h.Store.SaveRate(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) createConstraintsFromJSON(ctx context.Context, docs ...string) error {
	for _, doc := range docs {
		c, err := factory.ParseConstraintJSON([]byte(doc))
		if err != nil {
			return err
		}
		if err := h.Store.SaveConstraint(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) createScenario(ctx context.Context, name, description string, tasks []generic.Task, deps []generic.Dependency) (scenario.Scenario, error) {
	s := h.Simulator.Create(name, description, tasks, deps)
	if err := h.Store.SaveScenario(ctx, s); err != nil {
		return scenario.Scenario{}, err
	}
	return s, nil
}

func demoTask(id, name, start, end string, duration int, status generic.TaskStatus, cal generic.CalendarID) generic.Task {
	return generic.Task{
		ID:         generic.TaskID(id),
		Name:       name,
		ProjectID:  "demo",
		Start:      generic.MustParseDate(start),
		End:        generic.MustParseDate(end),
		Duration:   duration,
		Status:     status,
		CalendarID: cal,
	}
}
