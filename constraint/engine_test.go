package constraint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visualplan/schedule-engine/calendar"
	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/generic"
)

func TestEngine_AddReplacesSameKind(t *testing.T) {
	e, err := constraint.NewEngine(constraint.At("T1", constraint.StartNoEarlierThan, date("2024-03-01")))
	require.NoError(t, err)

	require.NoError(t, e.Add(constraint.At("T1", constraint.StartNoEarlierThan, date("2024-03-10"))))
	require.NoError(t, e.Add(constraint.At("T1", constraint.FinishNoLaterThan, date("2024-03-20"))))

	got := e.For("T1")
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-10", got[0].Date.String(), "replaced in place")
	assert.Len(t, e.All(), 2)
}

func TestEngine_AddRejectsMalformed(t *testing.T) {
	e, err := constraint.NewEngine()
	require.NoError(t, err)

	err = e.Add(constraint.Constraint{TaskID: "T1", Kind: constraint.MustFinishOn})
	assert.ErrorIs(t, err, generic.ErrInvalidConstraint)
	assert.Empty(t, e.All())

	_, err = constraint.NewEngine(constraint.Constraint{TaskID: "T1", Kind: "SOMETIME"})
	assert.Error(t, err)
}

func TestEngine_RebuildsAndNotifiesOnEveryMutation(t *testing.T) {
	// GIVEN: An engine with a task snapshot and a listener
	e, err := constraint.NewEngine()
	require.NoError(t, err)
	tasks := []generic.Task{task("T1", "2024-03-05", "2024-03-08")}

	var counts []int
	e.Subscribe(func() { counts = append(counts, len(e.Violations())) })

	// WHEN: Validating, adding, then removing
	assert.Empty(t, e.ValidateAll(tasks, nil))
	require.NoError(t, e.Add(constraint.At("T1", constraint.MustStartOn, date("2024-03-01"))))
	assert.True(t, e.Remove("T1", constraint.MustStartOn))
	assert.False(t, e.Remove("T1", constraint.MustStartOn))

	// THEN: Each mutation rebuilt the cache before notifying
	assert.Equal(t, []int{0, 1, 0}, counts)
}

func TestEngine_MissingTaskIsSkipped(t *testing.T) {
	e, err := constraint.NewEngine(constraint.At("ghost", constraint.MustStartOn, date("2024-03-01")))
	require.NoError(t, err)

	assert.Empty(t, e.ValidateAll([]generic.Task{task("T1", "2024-03-05", "2024-03-08")}, nil))
}

func TestEngine_ApplyConstraints_ResolvesAutoResolvableOnly(t *testing.T) {
	// GIVEN: One auto-resolvable and one manual violation
	e, err := constraint.NewEngine(
		constraint.At("T1", constraint.StartNoEarlierThan, date("2024-03-11")),
		constraint.At("T2", constraint.MustStartOn, date("2024-03-01")),
	)
	require.NoError(t, err)
	tasks := []generic.Task{
		task("T1", "2024-03-04", "2024-03-08"),
		task("T2", "2024-03-05", "2024-03-06"),
	}

	// WHEN: Applied once
	res, err := e.ApplyConstraints(tasks, calendar.Standard("std", "Standard"))
	require.NoError(t, err)

	// THEN: SNET is fixed, MSO remains, input untouched
	require.Len(t, res.Resolved, 1)
	assert.Equal(t, constraint.StartNoEarlierThan, res.Resolved[0].Kind)
	require.Len(t, res.Remaining, 1)
	assert.Equal(t, constraint.MustStartOn, res.Remaining[0].Kind)

	assert.Equal(t, "2024-03-11", res.Tasks[0].Start.String())
	assert.Equal(t, "2024-03-04", tasks[0].Start.String())
	assert.Equal(t, res.Remaining, e.Violations())
}

func TestEngine_ApplyConstraints_HigherPriorityAppliedLast(t *testing.T) {
	// GIVEN: Conflicting constraints on one task; FNLT has higher priority
	snet := constraint.At("T1", constraint.StartNoEarlierThan, date("2024-03-18"))
	snet.Priority = 1
	fnlt := constraint.At("T1", constraint.FinishNoLaterThan, date("2024-03-19"))
	fnlt.Priority = 9

	e, err := constraint.NewEngine(fnlt, snet)
	require.NoError(t, err)

	// WHEN: A single pass runs
	res, err := e.ApplyConstraints([]generic.Task{task("T1", "2024-03-13", "2024-03-15")}, nil)
	require.NoError(t, err)

	// THEN: FNLT wins, SNET is reported as remaining
	assert.Equal(t, "2024-03-17", res.Tasks[0].Start.String())
	assert.Equal(t, "2024-03-19", res.Tasks[0].End.String())
	assert.Len(t, res.Resolved, 2)
	require.Len(t, res.Remaining, 1)
	assert.Equal(t, constraint.StartNoEarlierThan, res.Remaining[0].Kind)
	assert.Equal(t, -1, res.Remaining[0].Days)
}

func TestEngine_ResolverSuppliesTaskCalendar(t *testing.T) {
	cals := calendar.Calendars{"crew": calendar.SevenDay("crew", "Crew")}
	e, err := constraint.NewEngine(constraint.At("T1", constraint.StartNoEarlierThan, date("2024-03-09")))
	require.NoError(t, err)
	e.WithResolver(calendar.NewResolver(cals, nil), "")

	tk := task("T1", "2024-03-04", "2024-03-05")
	tk.CalendarID = "crew"

	res, err := e.ApplyConstraints([]generic.Task{tk}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", res.Tasks[0].Start.String(), "saturday is a working day for the crew")
	assert.Equal(t, 2, res.Tasks[0].Duration)
}
