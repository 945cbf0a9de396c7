package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/scenario"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	calendars   map[generic.CalendarID]*calendar.WorkingCalendar
	rates       map[generic.ResourceID][]rate.Record // ordered by EffectiveFrom
	constraints map[constraintKey]constraint.Constraint
	scenarios   map[string]scenario.Scenario
}

type constraintKey struct {
	TaskID generic.TaskID
	Kind   constraint.Kind
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		calendars:   make(map[generic.CalendarID]*calendar.WorkingCalendar),
		rates:       make(map[generic.ResourceID][]rate.Record),
		constraints: make(map[constraintKey]constraint.Constraint),
		scenarios:   make(map[string]scenario.Scenario),
	}
}

// ===== Calendars =====

func (m *Memory) SaveCalendar(_ context.Context, cal *calendar.WorkingCalendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendars[cal.ID] = cal.Clone()
	return nil
}

func (m *Memory) GetCalendar(_ context.Context, id generic.CalendarID) (*calendar.WorkingCalendar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cal, ok := m.calendars[id]
	if !ok {
		return nil, fmt.Errorf("calendar %s: %w", id, generic.ErrCalendarNotFound)
	}
	return cal.Clone(), nil
}

func (m *Memory) ListCalendars(_ context.Context) ([]*calendar.WorkingCalendar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*calendar.WorkingCalendar, 0, len(m.calendars))
	for _, cal := range m.calendars {
		out = append(out, cal.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteCalendar(_ context.Context, id generic.CalendarID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.calendars, id)
	return nil
}

// ===== Rates =====

func (m *Memory) SaveRate(_ context.Context, rec rate.Record) (rate.Record, error) {
	if err := rec.Validate(); err != nil {
		return rate.Record{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Replace by ID anywhere, then insert in EffectiveFrom order.
	for rid, recs := range m.rates {
		for i, existing := range recs {
			if existing.ID == rec.ID {
				m.rates[rid] = append(recs[:i:i], recs[i+1:]...)
				break
			}
		}
	}

	recs := m.rates[rec.ResourceID]
	from := rec.Window().Start
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].Window().Start.After(from)
	})
	recs = append(recs, rate.Record{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	m.rates[rec.ResourceID] = recs
	return rec, nil
}

func (m *Memory) ListRates(_ context.Context, resourceID generic.ResourceID) ([]rate.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if resourceID != "" {
		return append([]rate.Record{}, m.rates[resourceID]...), nil
	}
	ids := make([]generic.ResourceID, 0, len(m.rates))
	for id := range m.rates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := []rate.Record{}
	for _, id := range ids {
		out = append(out, m.rates[id]...)
	}
	return out, nil
}

// ===== Constraints =====

func (m *Memory) SaveConstraint(_ context.Context, c constraint.Constraint) error {
	if err := c.Check(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints[constraintKey{c.TaskID, c.Kind}] = c.Clone()
	return nil
}

func (m *Memory) ListConstraints(_ context.Context, taskID generic.TaskID) ([]constraint.Constraint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []constraint.Constraint{}
	for k, c := range m.constraints {
		if taskID == "" || k.TaskID == taskID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskID != out[j].TaskID {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}

func (m *Memory) DeleteConstraint(_ context.Context, taskID generic.TaskID, kind constraint.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.constraints, constraintKey{taskID, kind})
	return nil
}

// ===== Scenarios =====

func (m *Memory) SaveScenario(_ context.Context, s scenario.Scenario) error {
	if s.ID == "" {
		return fmt.Errorf("scenario: missing id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[s.ID] = s.Clone()
	return nil
}

func (m *Memory) GetScenario(_ context.Context, id string) (scenario.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenarios[id]
	if !ok {
		return scenario.Scenario{}, fmt.Errorf("scenario %s: %w", id, generic.ErrScenarioNotFound)
	}
	return s.Clone(), nil
}

func (m *Memory) ListScenarios(_ context.Context) ([]scenario.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]scenario.Scenario, 0, len(m.scenarios))
	for _, s := range m.scenarios {
		out = append(out, s.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendars = make(map[generic.CalendarID]*calendar.WorkingCalendar)
	m.rates = make(map[generic.ResourceID][]rate.Record)
	m.constraints = make(map[constraintKey]constraint.Constraint)
	m.scenarios = make(map[string]scenario.Scenario)
	return nil
}
