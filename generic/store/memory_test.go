package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/generic/store"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/scenario"
)

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

func TestMemory_Calendars(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	cal := calendar.Standard("std", "Standard")
	if err := m.SaveCalendar(ctx, cal); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveCalendar(ctx, calendar.SevenDay("all", "All week")); err != nil {
		t.Fatal(err)
	}

	// Stored copies are independent of the caller's value
	cal.Name = "mutated"
	got, err := m.GetCalendar(ctx, "std")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Standard" {
		t.Errorf("Name = %q, want Standard", got.Name)
	}

	list, _ := m.ListCalendars(ctx)
	if len(list) != 2 || list[0].ID != "all" || list[1].ID != "std" {
		t.Errorf("ListCalendars not ordered by id: %v", list)
	}

	if err := m.DeleteCalendar(ctx, "std"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.GetCalendar(ctx, "std"); !errors.Is(err, generic.ErrCalendarNotFound) {
		t.Errorf("GetCalendar after delete: err = %v, want ErrCalendarNotFound", err)
	}

	if err := m.SaveCalendar(ctx, &calendar.WorkingCalendar{}); err == nil {
		t.Error("expected invalid calendar to be rejected")
	}
}

func TestMemory_RatesOrderedByEffectiveFrom(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	june, jan := date("2024-06-01"), date("2024-01-01")
	late, err := m.SaveRate(ctx, rate.Record{ResourceID: "R1", Type: rate.TypeStandard, PricePerUnit: decimal.NewFromInt(60), EffectiveFrom: &june})
	if err != nil {
		t.Fatal(err)
	}
	if late.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := m.SaveRate(ctx, rate.Record{ResourceID: "R1", Type: rate.TypeStandard, PricePerUnit: decimal.NewFromInt(50), EffectiveFrom: &jan}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SaveRate(ctx, rate.Record{ResourceID: "R2", Type: rate.TypeOvertime, PricePerUnit: decimal.NewFromInt(90)}); err != nil {
		t.Fatal(err)
	}

	r1, _ := m.ListRates(ctx, "R1")
	if len(r1) != 2 || !r1[0].PricePerUnit.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("R1 rates = %v, want january first", r1)
	}

	// Replacing by id keeps a single record
	late.PricePerUnit = decimal.NewFromInt(65)
	if _, err := m.SaveRate(ctx, late); err != nil {
		t.Fatal(err)
	}
	all, _ := m.ListRates(ctx, "")
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	if !all[1].PricePerUnit.Equal(decimal.NewFromInt(65)) {
		t.Errorf("replaced price = %s, want 65", all[1].PricePerUnit)
	}

	if _, err := m.SaveRate(ctx, rate.Record{Type: rate.TypeStandard}); err == nil {
		t.Error("expected record without resource to be rejected")
	}
}

func TestMemory_ConstraintsReplaceByTaskAndKind(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	if err := m.SaveConstraint(ctx, constraint.At("T1", constraint.StartNoEarlierThan, date("2024-03-01"))); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveConstraint(ctx, constraint.At("T1", constraint.StartNoEarlierThan, date("2024-03-08"))); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveConstraint(ctx, constraint.At("T2", constraint.FinishNoLaterThan, date("2024-04-01"))); err != nil {
		t.Fatal(err)
	}

	t1, _ := m.ListConstraints(ctx, "T1")
	if len(t1) != 1 || !t1[0].Date.Equal(date("2024-03-08")) {
		t.Errorf("T1 constraints = %v, want the replacement only", t1)
	}

	if err := m.DeleteConstraint(ctx, "T1", constraint.StartNoEarlierThan); err != nil {
		t.Fatal(err)
	}
	all, _ := m.ListConstraints(ctx, "")
	if len(all) != 1 || all[0].TaskID != "T2" {
		t.Errorf("remaining = %v, want T2 only", all)
	}

	if err := m.SaveConstraint(ctx, constraint.Constraint{TaskID: "T3", Kind: constraint.MustStartOn}); !errors.Is(err, generic.ErrInvalidConstraint) {
		t.Errorf("err = %v, want ErrInvalidConstraint", err)
	}
}

func TestMemory_Scenarios(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	later := scenario.Scenario{ID: "b", Name: "Later", CreatedAt: base.Add(time.Hour), Status: scenario.StatusDraft}
	earlier := scenario.Scenario{ID: "a", Name: "Earlier", CreatedAt: base, Status: scenario.StatusDraft,
		Tasks: []generic.Task{{ID: "T1", Start: date("2024-03-04"), End: date("2024-03-08")}}}

	for _, s := range []scenario.Scenario{later, earlier} {
		if err := m.SaveScenario(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	list, _ := m.ListScenarios(ctx)
	if len(list) != 2 || list[0].ID != "a" {
		t.Fatalf("ListScenarios = %v, want creation order", list)
	}

	got, err := m.GetScenario(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	got.Tasks[0].Name = "mutated"
	again, _ := m.GetScenario(ctx, "a")
	if again.Tasks[0].Name != "" {
		t.Error("GetScenario returned an aliased task slice")
	}

	if _, err := m.GetScenario(ctx, "missing"); !errors.Is(err, generic.ErrScenarioNotFound) {
		t.Errorf("err = %v, want ErrScenarioNotFound", err)
	}
	if err := m.SaveScenario(ctx, scenario.Scenario{}); err == nil {
		t.Error("expected scenario without id to be rejected")
	}
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	if err := m.SaveScenario(ctx, scenario.Scenario{ID: "a", Status: scenario.StatusDraft}); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveConstraint(ctx, constraint.Constraint{TaskID: "T1", Kind: constraint.AsSoonAsPossible}); err != nil {
		t.Fatal(err)
	}

	if err := m.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	scenarios, _ := m.ListScenarios(ctx)
	constraints, _ := m.ListConstraints(ctx, "")
	if len(scenarios) != 0 || len(constraints) != 0 {
		t.Errorf("Reset left %d scenarios and %d constraints", len(scenarios), len(constraints))
	}
}
