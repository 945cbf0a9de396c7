package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/scenario"
	"github.com/visualplan/schedule-engine/store/sqlite"
)

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_CalendarRoundTrip(t *testing.T) {
	// GIVEN: A calendar with holidays, exceptions and custom hours
	ctx := context.Background()
	st := newTestStore(t)

	cal := calendar.Standard("site", "Site")
	cal.SearchHorizon = 365
	cal.Holidays = []calendar.Holiday{{Name: "New Year", Date: date("2024-01-01"), Recurring: true, Type: calendar.HolidayPublic}}
	cal.Exceptions = []calendar.Exception{{
		Name:    "Shutdown",
		Period:  generic.NewPeriod(date("2024-12-24"), date("2025-01-02")),
		Working: false,
	}}

	// WHEN: It is saved and read back
	require.NoError(t, st.SaveCalendar(ctx, cal))
	got, err := st.GetCalendar(ctx, "site")
	require.NoError(t, err)

	// THEN: It answers the same as the original
	assert.Equal(t, cal.Name, got.Name)
	assert.Equal(t, 365, got.SearchHorizon)
	assert.Equal(t, cal.Weekdays, got.Weekdays)
	assert.Equal(t, cal.DefaultStart, got.DefaultStart)
	for _, d := range []string{"2024-03-04", "2024-03-09", "2025-01-01", "2024-12-27"} {
		assert.Equal(t, cal.IsWorkingDay(date(d)), got.IsWorkingDay(date(d)), d)
	}
}

func TestStore_CalendarListDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.SaveCalendar(ctx, calendar.Standard("b", "B")))
	require.NoError(t, st.SaveCalendar(ctx, calendar.SevenDay("a", "A")))

	// Saving again replaces
	require.NoError(t, st.SaveCalendar(ctx, calendar.Standard("b", "B2")))

	list, err := st.ListCalendars(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, generic.CalendarID("a"), list[0].ID)
	assert.Equal(t, "B2", list[1].Name)

	require.NoError(t, st.DeleteCalendar(ctx, "b"))
	_, err = st.GetCalendar(ctx, "b")
	assert.ErrorIs(t, err, generic.ErrCalendarNotFound)
	assert.True(t, generic.IsNotFound(err))

	assert.Error(t, st.SaveCalendar(ctx, &calendar.WorkingCalendar{}), "invalid calendar rejected")
}

func TestStore_Rates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	jan, june := date("2024-01-01"), date("2024-06-01")
	perUse := decimal.NewFromInt(25)

	saved, err := st.SaveRate(ctx, rate.Record{ResourceID: "R1", Type: rate.TypeStandard, PricePerUnit: decimal.NewFromInt(60), EffectiveFrom: &june})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	_, err = st.SaveRate(ctx, rate.Record{ResourceID: "R1", Type: rate.TypeStandard, PricePerUnit: decimal.NewFromInt(50), EffectiveFrom: &jan, CostPerUse: &perUse})
	require.NoError(t, err)
	_, err = st.SaveRate(ctx, rate.Record{ResourceID: "R2", Type: rate.TypeOvertime, PricePerUnit: decimal.RequireFromString("72.50")})
	require.NoError(t, err)

	r1, err := st.ListRates(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, r1, 2)
	assert.True(t, r1[0].PricePerUnit.Equal(decimal.NewFromInt(50)), "ordered by effective_from")
	require.NotNil(t, r1[0].CostPerUse)
	assert.True(t, r1[0].CostPerUse.Equal(perUse))
	require.NotNil(t, r1[1].EffectiveFrom)
	assert.Equal(t, june, *r1[1].EffectiveFrom)
	assert.Nil(t, r1[1].EffectiveTo)

	// Stored records resolve exactly as in-memory ones (scenario 4)
	resolver := rate.NewResolver(nil)
	assert.True(t, resolver.Resolve("R1", rate.TypeStandard, date("2024-07-01"), r1, decimal.Zero).Rate.Equal(decimal.NewFromInt(60)))
	assert.True(t, resolver.Resolve("R1", rate.TypeStandard, date("2024-03-01"), r1, decimal.Zero).Rate.Equal(decimal.NewFromInt(50)))

	all, err := st.ListRates(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = st.SaveRate(ctx, rate.Record{ResourceID: "R1", Type: rate.Type(9)})
	assert.Error(t, err)
}

func TestStore_ConstraintsUpsertByTaskAndKind(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.SaveConstraint(ctx, constraint.At("T1", constraint.StartNoEarlierThan, date("2024-03-01"))))
	replacement := constraint.At("T1", constraint.StartNoEarlierThan, date("2024-03-08"))
	replacement.Priority = 9
	replacement.Tolerance = 2
	require.NoError(t, st.SaveConstraint(ctx, replacement))
	require.NoError(t, st.SaveConstraint(ctx, constraint.Constraint{TaskID: "T1", Kind: constraint.AsSoonAsPossible}))

	got, err := st.ListConstraints(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by kind: ASAP before SNET
	assert.Equal(t, constraint.AsSoonAsPossible, got[0].Kind)
	assert.Nil(t, got[0].Date)
	assert.Equal(t, constraint.DefaultPriority, got[0].Priority)

	assert.Equal(t, date("2024-03-08"), *got[1].Date)
	assert.Equal(t, 9, got[1].Priority)
	assert.Equal(t, 2, got[1].Tolerance)

	require.NoError(t, st.DeleteConstraint(ctx, "T1", constraint.AsSoonAsPossible))
	got, _ = st.ListConstraints(ctx, "")
	assert.Len(t, got, 1)

	err = st.SaveConstraint(ctx, constraint.Constraint{TaskID: "T1", Kind: constraint.MustStartOn})
	assert.ErrorIs(t, err, generic.ErrInvalidConstraint)
}

func TestStore_Scenarios(t *testing.T) {
	// GIVEN: A baseline and a child produced by the simulator
	ctx := context.Background()
	st := newTestStore(t)

	sim := scenario.NewSimulator()
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	sim.Now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	tasks := []generic.Task{{ID: "T1", Name: "Dig", Start: date("2024-03-04"), End: date("2024-03-08"), Duration: 5, Status: generic.StatusNotStarted}}
	base := sim.Create("Baseline", "as planned", tasks, nil)
	child, _ := sim.ApplyChanges(base, nil, []scenario.Change{{TaskID: "T1", Kind: scenario.ChangeDuration, Duration: 10}})

	// WHEN: Both are stored
	require.NoError(t, st.SaveScenario(ctx, child))
	require.NoError(t, st.SaveScenario(ctx, base))

	// THEN: They come back intact and in creation order
	got, err := st.GetScenario(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, base.ID, got.ParentID)
	require.Len(t, got.Changes, 1)
	assert.True(t, got.Changes[0].Applied)
	assert.Equal(t, date("2024-03-14"), got.Tasks[0].End)
	assert.True(t, got.Metrics.TotalCost.Equal(child.Metrics.TotalCost))
	assert.True(t, got.CreatedAt.Equal(child.CreatedAt))

	list, err := st.ListScenarios(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, base.ID, list[0].ID)

	_, err = st.GetScenario(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrScenarioNotFound)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.SaveCalendar(ctx, calendar.Standard("std", "Standard")))
	require.NoError(t, st.SaveConstraint(ctx, constraint.Constraint{TaskID: "T1", Kind: constraint.AsSoonAsPossible}))
	require.NoError(t, st.Reset(ctx))

	cals, _ := st.ListCalendars(ctx)
	cons, _ := st.ListConstraints(ctx, "")
	assert.Empty(t, cals)
	assert.Empty(t, cons)
}
