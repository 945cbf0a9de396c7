/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Persists the engine's configuration records (calendars, rate records,
  task constraints) and simulated scenarios for the HTTP server. Tasks and
  allocations are supplied by callers per request and are not stored.

KEY TABLES:
  calendars:        Calendar definitions as JSON, keyed by id
  rate_records:     One row per rate record, effective window as dates
  task_constraints: One row per (task_id, kind); saving replaces
  scenarios:        Scenario payload as JSON with lineage columns

INDEXES:
  - idx_rate_records_resource: Rate resolution per resource and type
  - idx_scenarios_parent:      Lineage lookups

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to
  a single connection so every query sees the same schema.

USAGE:
  st, err := sqlite.New("./data/schedule.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - generic/store/store.go:  Interface definition
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/generic/store"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/scenario"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calendars (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		definition_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rate_records (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		rate_type INTEGER NOT NULL,
		price_per_unit TEXT NOT NULL,
		cost_per_use TEXT,
		effective_from TEXT,
		effective_to TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_records_resource
		ON rate_records(resource_id, rate_type, effective_from);

	CREATE TABLE IF NOT EXISTS task_constraints (
		task_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		constraint_date TEXT,
		priority INTEGER NOT NULL DEFAULT 5,
		tolerance INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (task_id, kind)
	);

	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		parent_id TEXT,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenarios_parent
		ON scenarios(parent_id) WHERE parent_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALENDARS
// =============================================================================

func (s *Store) SaveCalendar(ctx context.Context, cal *calendar.WorkingCalendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cal)
	if err != nil {
		return fmt.Errorf("encode calendar %s: %w", cal.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO calendars (id, name, definition_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			definition_json = excluded.definition_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, string(cal.ID), cal.Name, string(payload), now())
	return err
}

func (s *Store) GetCalendar(ctx context.Context, id generic.CalendarID) (*calendar.WorkingCalendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT definition_json FROM calendars WHERE id = ?", string(id),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("calendar %s: %w", id, generic.ErrCalendarNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeCalendar(payload)
}

func (s *Store) ListCalendars(ctx context.Context) ([]*calendar.WorkingCalendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT definition_json FROM calendars ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cals := []*calendar.WorkingCalendar{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		cal, err := decodeCalendar(payload)
		if err != nil {
			return nil, err
		}
		cals = append(cals, cal)
	}
	return cals, rows.Err()
}

func (s *Store) DeleteCalendar(ctx context.Context, id generic.CalendarID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM calendars WHERE id = ?", string(id))
	return err
}

func decodeCalendar(payload string) (*calendar.WorkingCalendar, error) {
	var cal calendar.WorkingCalendar
	if err := json.Unmarshal([]byte(payload), &cal); err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}
	return &cal, nil
}

// =============================================================================
// RATE RECORDS
// =============================================================================

func (s *Store) SaveRate(ctx context.Context, rec rate.Record) (rate.Record, error) {
	if err := rec.Validate(); err != nil {
		return rate.Record{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO rate_records (id, resource_id, rate_type, price_per_unit, cost_per_use, effective_from, effective_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			resource_id = excluded.resource_id,
			rate_type = excluded.rate_type,
			price_per_unit = excluded.price_per_unit,
			cost_per_use = excluded.cost_per_use,
			effective_from = excluded.effective_from,
			effective_to = excluded.effective_to
	`
	var costPerUse sql.NullString
	if rec.CostPerUse != nil {
		costPerUse = nullString(rec.CostPerUse.String())
	}
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, string(rec.ResourceID), int(rec.Type), rec.PricePerUnit.String(), costPerUse,
		nullDate(rec.EffectiveFrom), nullDate(rec.EffectiveTo), now(),
	)
	if err != nil {
		return rate.Record{}, err
	}
	return rec, nil
}

// ListRates orders by resource, type and effective date, open starts first.
func (s *Store) ListRates(ctx context.Context, resourceID generic.ResourceID) ([]rate.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, resource_id, rate_type, price_per_unit, cost_per_use, effective_from, effective_to
		FROM rate_records`
	var args []any
	if resourceID != "" {
		query += " WHERE resource_id = ?"
		args = append(args, string(resourceID))
	}
	query += " ORDER BY resource_id, rate_type, COALESCE(effective_from, ''), id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []rate.Record{}
	for rows.Next() {
		rec, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanRate(rows *sql.Rows) (rate.Record, error) {
	var (
		rec                  rate.Record
		resourceID, price    string
		rateType             int
		costPerUse, from, to sql.NullString
	)
	if err := rows.Scan(&rec.ID, &resourceID, &rateType, &price, &costPerUse, &from, &to); err != nil {
		return rate.Record{}, err
	}
	rec.ResourceID = generic.ResourceID(resourceID)
	rec.Type = rate.Type(rateType)

	var err error
	if rec.PricePerUnit, err = decimal.NewFromString(price); err != nil {
		return rate.Record{}, fmt.Errorf("rate %s: price: %w", rec.ID, err)
	}
	if costPerUse.Valid {
		c, err := decimal.NewFromString(costPerUse.String)
		if err != nil {
			return rate.Record{}, fmt.Errorf("rate %s: cost per use: %w", rec.ID, err)
		}
		rec.CostPerUse = &c
	}
	if rec.EffectiveFrom, err = parseNullDate(from); err != nil {
		return rate.Record{}, err
	}
	if rec.EffectiveTo, err = parseNullDate(to); err != nil {
		return rate.Record{}, err
	}
	return rec, nil
}

// =============================================================================
// TASK CONSTRAINTS
// =============================================================================

func (s *Store) SaveConstraint(ctx context.Context, c constraint.Constraint) error {
	if err := c.Check(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO task_constraints (task_id, kind, constraint_date, priority, tolerance, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id, kind) DO UPDATE SET
			constraint_date = excluded.constraint_date,
			priority = excluded.priority,
			tolerance = excluded.tolerance,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		string(c.TaskID), string(c.Kind), nullDate(c.Date), c.EffectivePriority(), c.Tolerance, now(),
	)
	return err
}

func (s *Store) ListConstraints(ctx context.Context, taskID generic.TaskID) ([]constraint.Constraint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT task_id, kind, constraint_date, priority, tolerance FROM task_constraints"
	var args []any
	if taskID != "" {
		query += " WHERE task_id = ?"
		args = append(args, string(taskID))
	}
	query += " ORDER BY task_id, kind"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []constraint.Constraint{}
	for rows.Next() {
		var (
			c            constraint.Constraint
			task, kind   string
			constraintOn sql.NullString
		)
		if err := rows.Scan(&task, &kind, &constraintOn, &c.Priority, &c.Tolerance); err != nil {
			return nil, err
		}
		c.TaskID = generic.TaskID(task)
		c.Kind = constraint.Kind(kind)
		if c.Date, err = parseNullDate(constraintOn); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteConstraint(ctx context.Context, taskID generic.TaskID, kind constraint.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM task_constraints WHERE task_id = ? AND kind = ?", string(taskID), string(kind))
	return err
}

// =============================================================================
// SCENARIOS
// =============================================================================

func (s *Store) SaveScenario(ctx context.Context, sc scenario.Scenario) error {
	if sc.ID == "" {
		return fmt.Errorf("scenario: missing id")
	}
	payload, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encode scenario %s: %w", sc.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO scenarios (id, parent_id, name, status, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			payload_json = excluded.payload_json
	`
	_, err = s.db.ExecContext(ctx, query,
		sc.ID, nullString(sc.ParentID), sc.Name, string(sc.Status), string(payload),
		sc.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) GetScenario(ctx context.Context, id string) (scenario.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload_json FROM scenarios WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return scenario.Scenario{}, fmt.Errorf("scenario %s: %w", id, generic.ErrScenarioNotFound)
	}
	if err != nil {
		return scenario.Scenario{}, err
	}
	return decodeScenario(payload)
}

func (s *Store) ListScenarios(ctx context.Context) ([]scenario.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT payload_json FROM scenarios ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []scenario.Scenario{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		sc, err := decodeScenario(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func decodeScenario(payload string) (scenario.Scenario, error) {
	var sc scenario.Scenario
	if err := json.Unmarshal([]byte(payload), &sc); err != nil {
		return scenario.Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	return sc, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"calendars", "rate_records", "task_constraints", "scenarios"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d *generic.TimePoint) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return nullString(d.String())
}

func parseNullDate(v sql.NullString) (*generic.TimePoint, error) {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil, nil
	}
	d, err := generic.ParseDate(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
