/*
handlers.go - HTTP API handlers for the scheduling engine

PURPOSE:
  Exposes the scheduling engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine packages. Calendars, rate
  records, task constraints and scenarios are persisted through store.Store;
  tasks, resources and allocations travel in the request body.

ENDPOINTS:
  Calendars:
    GET    /api/calendars                        List calendars
    POST   /api/calendars                        Create or replace from a document
    GET    /api/calendars/{id}                   Get one calendar
    DELETE /api/calendars/{id}                   Delete a calendar
    GET    /api/calendars/{id}/working-days      Working days in ?from=&to=
    POST   /api/calendars/{id}/end-date          End date for start + duration

  Constraints:
    GET    /api/constraints                      List stored constraints
    POST   /api/constraints                      Store a constraint
    DELETE /api/constraints/{taskID}/{kind}      Delete a constraint
    POST   /api/constraints/validate             Violations for a task snapshot
    POST   /api/constraints/apply                Auto-resolve violations

  Resources:
    POST   /api/resources/conflicts              Overallocation + utilization
    POST   /api/resources/level                  Resource leveling

  Rates:
    GET    /api/rates                            List rate records
    POST   /api/rates                            Store a rate record
    POST   /api/costs                            Time-varied cost of assignments

  Scenarios:
    GET    /api/scenarios                        List scenarios
    POST   /api/scenarios                        Create a baseline scenario
    GET    /api/scenarios/{id}                   Get one scenario
    POST   /api/scenarios/{id}/changes           Derive a scenario from changes
    POST   /api/scenarios/{id}/status            Move through the lifecycle
    POST   /api/scenarios/compare                Compare against a baseline

  Demos:
    GET    /api/demos                            List demo projects
    GET    /api/demos/current                    Currently loaded demo
    POST   /api/demos/load                       Reset the store and load a demo

CALENDAR SELECTION:
  Requests name a stored calendar with calendar_id. Without one, the global
  standard calendar is used; the calendar routes reach it as /global. Every
  calendar gets the configured search horizon unless it carries its own.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, invalid input
  - 404: Calendar or scenario not found
  - 422: Calendar with no working day inside the search horizon
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/config"
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/factory"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/generic/store"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/resource"
	"github.com/visualplan/schedule-engine/scenario"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     store.Store
	Config    *config.Config
	Simulator *scenario.Simulator
	Rates     *rate.Resolver
	Logger    *slog.Logger

	demoMu      sync.RWMutex
	currentDemo string
}

// NewHandler wires the engine from cfg. A nil cfg uses config.Default().
func NewHandler(st store.Store, cfg *config.Config, logger *slog.Logger) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:     st,
		Config:    cfg,
		Simulator: cfg.Simulator(),
		Rates:     cfg.RateResolver(),
		Logger:    logger,
	}
}

// GlobalCalendarID names the built-in fallback calendar. A stored calendar
// with this id takes precedence.
const GlobalCalendarID = "global"

// global is the fallback calendar for requests without a calendar_id.
func (h *Handler) global() *calendar.WorkingCalendar {
	cal := calendar.Standard(GlobalCalendarID, "Global default")
	h.Config.ApplyHorizon(cal)
	return cal
}

// calendar loads a stored calendar, or the global default for an empty id.
func (h *Handler) calendar(ctx context.Context, id string) (*calendar.WorkingCalendar, error) {
	if id == "" {
		return h.global(), nil
	}
	cal, err := h.Store.GetCalendar(ctx, generic.CalendarID(id))
	if generic.IsNotFound(err) && id == GlobalCalendarID {
		return h.global(), nil
	}
	if err != nil {
		return nil, err
	}
	h.Config.ApplyHorizon(cal)
	return cal, nil
}

// resolver resolves per-task and per-resource calendars against the store.
func (h *Handler) resolver(ctx context.Context) (*calendar.Resolver, error) {
	cals, err := h.Store.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	lookup := make(calendar.Calendars, len(cals))
	for _, cal := range cals {
		h.Config.ApplyHorizon(cal)
		lookup[cal.ID] = cal
	}
	return calendar.NewResolver(lookup, h.global()), nil
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListCalendars returns every stored calendar as a document.
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	cals, err := h.Store.ListCalendars(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list calendars", err)
		return
	}
	docs := make([]factory.CalendarJSON, len(cals))
	for i, cal := range cals {
		docs[i] = factory.ToCalendarJSON(cal)
	}
	writeJSON(w, http.StatusOK, docs)
}

// CreateCalendar stores a calendar document, replacing any with the same id.
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var doc factory.CalendarJSON
	if !decode(w, r, &doc) {
		return
	}
	cal, err := factory.FromCalendarJSON(doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calendar", err)
		return
	}
	if err := h.Store.SaveCalendar(r.Context(), cal); err != nil {
		h.fail(w, r, "Failed to save calendar", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.ToCalendarJSON(cal))
}

func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.Store.GetCalendar(r.Context(), generic.CalendarID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, factory.ToCalendarJSON(cal))
}

func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCalendar(r.Context(), generic.CalendarID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, "Failed to delete calendar", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WorkingDays lists the working days in [from, to].
// GET /api/calendars/{id}/working-days?from=2024-03-01&to=2024-03-31
func (h *Handler) WorkingDays(w http.ResponseWriter, r *http.Request) {
	from, err := generic.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := generic.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}
	period := generic.NewPeriod(from, to)
	if err := period.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	if !h.withinHorizon(w, period) {
		return
	}

	cal, err := h.calendar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get calendar", err)
		return
	}

	days := cal.WorkingDaysIn(period)
	resp := WorkingDaysResponse{
		CalendarID:  string(cal.ID),
		From:        from,
		To:          to,
		Count:       len(days),
		WorkingDays: days,
	}
	if resp.WorkingDays == nil {
		resp.WorkingDays = []generic.TimePoint{}
	}
	for _, d := range days {
		resp.Hours += cal.WorkingHoursOn(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// EndDate returns the last working day of a task of the given duration.
func (h *Handler) EndDate(w http.ResponseWriter, r *http.Request) {
	var req EndDateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Start.IsZero() {
		writeError(w, http.StatusBadRequest, "start is required", nil)
		return
	}
	if req.Duration < 0 {
		writeError(w, http.StatusBadRequest, "Invalid duration", generic.ErrInvalidDuration)
		return
	}

	cal, err := h.calendar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get calendar", err)
		return
	}
	end, err := cal.EndFromDuration(req.Start, req.Duration)
	if err != nil {
		h.fail(w, r, "Failed to compute end date", err)
		return
	}
	writeJSON(w, http.StatusOK, EndDateResponse{
		CalendarID: string(cal.ID),
		Start:      req.Start,
		Duration:   req.Duration,
		End:        end,
	})
}

// =============================================================================
// CONSTRAINT HANDLERS
// =============================================================================

// ListConstraints returns stored constraints, optionally for one task.
// GET /api/constraints?task_id=T1
func (h *Handler) ListConstraints(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Store.ListConstraints(r.Context(), generic.TaskID(r.URL.Query().Get("task_id")))
	if err != nil {
		h.fail(w, r, "Failed to list constraints", err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// CreateConstraint stores a constraint, replacing the task's constraint of
// the same kind.
func (h *Handler) CreateConstraint(w http.ResponseWriter, r *http.Request) {
	var doc factory.ConstraintJSON
	if !decode(w, r, &doc) {
		return
	}
	c, err := factory.FromConstraintJSON(doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid constraint", err)
		return
	}
	if err := h.Store.SaveConstraint(r.Context(), c); err != nil {
		h.fail(w, r, "Failed to save constraint", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) DeleteConstraint(w http.ResponseWriter, r *http.Request) {
	kind, err := constraint.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid constraint type", err)
		return
	}
	taskID := generic.TaskID(chi.URLParam(r, "taskID"))
	if err := h.Store.DeleteConstraint(r.Context(), taskID, kind); err != nil {
		h.fail(w, r, "Failed to delete constraint", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateConstraints reports every violation in the task snapshot.
func (h *Handler) ValidateConstraints(w http.ResponseWriter, r *http.Request) {
	req, engine, cal, ok := h.constraintRun(w, r)
	if !ok {
		return
	}
	violations := engine.ValidateAll(req.Tasks, cal)
	writeJSON(w, http.StatusOK, ValidateResponse{
		Violations: toViolationDTOs(violations),
		Count:      len(violations),
	})
}

// ApplyConstraints moves tasks to resolve auto-resolvable violations.
func (h *Handler) ApplyConstraints(w http.ResponseWriter, r *http.Request) {
	req, engine, cal, ok := h.constraintRun(w, r)
	if !ok {
		return
	}
	result, err := engine.ApplyConstraints(req.Tasks, cal)
	if err != nil {
		h.fail(w, r, "Failed to apply constraints", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// constraintRun decodes a ConstraintRunRequest and builds the engine for it.
// A nil calendar lets the engine resolve each task's own calendar.
func (h *Handler) constraintRun(w http.ResponseWriter, r *http.Request) (ConstraintRunRequest, *constraint.Engine, *calendar.WorkingCalendar, bool) {
	var req ConstraintRunRequest
	if !decode(w, r, &req) {
		return req, nil, nil, false
	}
	if !validTasks(w, req.Tasks) {
		return req, nil, nil, false
	}

	ctx := r.Context()
	var cs []constraint.Constraint
	if len(req.Constraints) > 0 {
		for _, doc := range req.Constraints {
			c, err := factory.FromConstraintJSON(doc)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid constraint", err)
				return req, nil, nil, false
			}
			cs = append(cs, c)
		}
	} else {
		stored, err := h.Store.ListConstraints(ctx, "")
		if err != nil {
			h.fail(w, r, "Failed to list constraints", err)
			return req, nil, nil, false
		}
		cs = stored
	}

	engine, err := constraint.NewEngine(cs...)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid constraint", err)
		return req, nil, nil, false
	}
	resolver, err := h.resolver(ctx)
	if err != nil {
		h.fail(w, r, "Failed to load calendars", err)
		return req, nil, nil, false
	}
	engine.WithResolver(resolver, "").WithLogger(h.Logger)

	var cal *calendar.WorkingCalendar
	if req.CalendarID != "" {
		if cal, err = h.calendar(ctx, req.CalendarID); err != nil {
			h.fail(w, r, "Failed to get calendar", err)
			return req, nil, nil, false
		}
	}
	return req, engine, cal, true
}

// =============================================================================
// RESOURCE HANDLERS
// =============================================================================

// DetectConflicts reports overallocated resource-days and utilization.
// Without from/to the span of all allocations is scanned.
func (h *Handler) DetectConflicts(w http.ResponseWriter, r *http.Request) {
	var req ConflictsRequest
	if !decode(w, r, &req) {
		return
	}
	for _, a := range req.Allocations {
		if err := a.Period().Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid allocation "+a.ID, err)
			return
		}
	}

	ledger := resource.NewLedger(req.Resources, req.Allocations, req.Availability).WithLogger(h.Logger)
	if req.WorkingDaysOnly {
		resolver, err := h.resolver(r.Context())
		if err != nil {
			h.fail(w, r, "Failed to load calendars", err)
			return
		}
		ledger.WithCalendars(resolver, generic.CalendarID(req.CalendarID))
	}

	window, hasWindow := resource.Span(req.Allocations)
	if !req.From.IsZero() || !req.To.IsZero() {
		window = generic.NewPeriod(req.From, req.To)
		if err := window.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date range", err)
			return
		}
		if !h.withinHorizon(w, window) {
			return
		}
		hasWindow = true
		ledger.SetWindow(&window)
	}

	resp := ConflictsResponse{
		Conflicts:   ledger.Conflicts(),
		Utilization: make(map[generic.ResourceID]float64, len(req.Resources)),
	}
	for _, res := range req.Resources {
		if hasWindow {
			resp.Utilization[res.ID] = ledger.Utilization(res.ID, window)
		} else {
			resp.Utilization[res.ID] = 0
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// LevelResources runs the leveling loop. Options left empty take the
// configured defaults.
func (h *Handler) LevelResources(w http.ResponseWriter, r *http.Request) {
	var req LevelRequest
	if !decode(w, r, &req) {
		return
	}
	if !validTasks(w, req.Tasks) {
		return
	}

	opts := h.Config.LevelOptions()
	if req.Options.Mode != "" {
		opts.Mode = req.Options.Mode
	}
	if req.Options.Strategy != "" {
		opts.Strategy = req.Options.Strategy
	}
	if req.Options.Priority != "" {
		opts.Priority = req.Options.Priority
	}
	if req.Options.MaxIterations > 0 {
		opts.MaxIterations = req.Options.MaxIterations
	}
	if req.Options.Window != nil {
		if err := req.Options.Window.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid leveling window", err)
			return
		}
		if !h.withinHorizon(w, *req.Options.Window) {
			return
		}
		opts.Window = req.Options.Window
	}
	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid leveling options", err)
		return
	}
	opts.Logger = h.Logger

	result := resource.Level(req.Tasks, req.Allocations, req.Availability, req.Resources, opts)
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

// ListRates returns stored rate records.
// GET /api/rates?resource_id=R1
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListRates(r.Context(), generic.ResourceID(r.URL.Query().Get("resource_id")))
	if err != nil {
		h.fail(w, r, "Failed to list rates", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) CreateRate(w http.ResponseWriter, r *http.Request) {
	var doc factory.RateJSON
	if !decode(w, r, &doc) {
		return
	}
	rec, err := factory.FromRateJSON(doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate record", err)
		return
	}
	saved, err := h.Store.SaveRate(r.Context(), rec)
	if err != nil {
		h.fail(w, r, "Failed to save rate", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// CalculateCosts prices assignments day by day.
func (h *Handler) CalculateCosts(w http.ResponseWriter, r *http.Request) {
	var req CostRequest
	if !decode(w, r, &req) {
		return
	}
	for i, a := range req.Assignments {
		if err := a.Period.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid assignment %d", i), err)
			return
		}
		if !a.Type.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid assignment %d", i),
				fmt.Errorf("unknown rate type %d", int(a.Type)))
			return
		}
	}

	var recs []rate.Record
	var err error
	if len(req.Rates) > 0 {
		if recs, err = factory.FromRatesJSON(req.Rates); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid rate record", err)
			return
		}
	} else if recs, err = h.Store.ListRates(r.Context(), ""); err != nil {
		h.fail(w, r, "Failed to list rates", err)
		return
	}

	writeJSON(w, http.StatusOK, h.Rates.MultiRateCost(req.Assignments, recs))
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.Store.ListScenarios(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list scenarios", err)
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

// CreateScenario snapshots a baseline and computes its metrics.
func (h *Handler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var req CreateScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if !validTasks(w, req.Tasks) {
		return
	}

	s := h.Simulator.Create(req.Name, req.Description, req.Tasks, req.Dependencies)
	if err := h.Store.SaveScenario(r.Context(), s); err != nil {
		h.fail(w, r, "Failed to save scenario", err)
		return
	}
	h.Logger.Info("scenario created", "id", s.ID, "tasks", len(s.Tasks))
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetScenario(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ApplyChanges derives a new scenario from a stored one. Changes that cannot
// be applied are kept in the history with applied=false.
func (h *Handler) ApplyChanges(w http.ResponseWriter, r *http.Request) {
	var req ApplyChangesRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Changes) == 0 {
		writeError(w, http.StatusBadRequest, "changes are required", nil)
		return
	}

	ctx := r.Context()
	base, err := h.Store.GetScenario(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get scenario", err)
		return
	}
	derived, _ := h.Simulator.ApplyChanges(base, nil, req.Changes)
	if err := h.Store.SaveScenario(ctx, derived); err != nil {
		h.fail(w, r, "Failed to save scenario", err)
		return
	}
	h.Logger.Info("scenario derived", "id", derived.ID, "parent", base.ID, "changes", len(req.Changes))
	writeJSON(w, http.StatusCreated, derived)
}

// UpdateScenarioStatus moves a scenario along draft -> active -> archived.
func (h *Handler) UpdateScenarioStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status scenario.Status `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	s, err := h.Store.GetScenario(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get scenario", err)
		return
	}
	if !s.Status.CanTransition(req.Status) {
		writeError(w, http.StatusBadRequest, "Invalid status transition",
			fmt.Errorf("%s -> %s", s.Status, req.Status))
		return
	}
	s.Status = req.Status
	if err := h.Store.SaveScenario(ctx, s); err != nil {
		h.fail(w, r, "Failed to save scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CompareScenarios compares stored scenarios. The first id is the baseline.
func (h *Handler) CompareScenarios(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.ScenarioIDs) == 0 {
		writeError(w, http.StatusBadRequest, "scenario_ids are required", nil)
		return
	}

	scenarios := make([]scenario.Scenario, 0, len(req.ScenarioIDs))
	for _, id := range req.ScenarioIDs {
		s, err := h.Store.GetScenario(r.Context(), id)
		if err != nil {
			h.fail(w, r, "Failed to get scenario", err)
			return
		}
		scenarios = append(scenarios, s)
	}
	writeJSON(w, http.StatusOK, h.Simulator.Compare(scenarios))
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// withinHorizon rejects scan ranges longer than the calendar search horizon.
func (h *Handler) withinHorizon(w http.ResponseWriter, p generic.Period) bool {
	limit := h.Config.Calendar.SearchHorizonDays
	if span := generic.DaysBetween(p.Start, p.End); span > limit {
		writeError(w, http.StatusBadRequest, "Date range too long",
			fmt.Errorf("%d days exceeds the search horizon of %d", span, limit))
		return false
	}
	return true
}

func validTasks(w http.ResponseWriter, tasks []generic.Task) bool {
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid task", err)
			return false
		}
	}
	return true
}

// fail maps engine errors to a status. Internal errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, "error", err, "request_id", middleware.GetReqID(r.Context()))
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsConfigurationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
