package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/rate"
	"github.com/visualplan/schedule-engine/resource"
	"github.com/visualplan/schedule-engine/scenario"
)

const projectJSON = `{
	"id": "depot",
	"name": "Depot refit",
	"default_rate": "40",
	"tasks": [
		{"id": "T1", "name": "Strip out", "start": "2024-03-04", "end": "2024-03-08"},
		{"id": "T2", "name": "Rewire", "start": "2024-03-11", "end": "2024-03-15"}
	],
	"dependencies": [{"predecessor_id": "T1", "successor_id": "T2", "type": "FS"}],
	"resources": [{"id": "R1", "name": "Electricians", "capacity": 8}],
	"allocations": [
		{"id": "A1", "resource_id": "R1", "task_id": "T1", "start": "2024-03-04", "end": "2024-03-05", "units": 6},
		{"id": "A2", "resource_id": "R1", "task_id": "T2", "start": "2024-03-05", "end": "2024-03-06", "units": 4}
	],
	"constraints": [{"task_id": "T1", "type": "SNET", "date": "2024-03-11"}],
	"rates": [{"resource_id": "R1", "type": "standard", "price_per_unit": "50", "effective_from": "2024-01-01"}]
}`

const siteProjectYAML = `
id: site
name: Site works
calendar: site
calendars:
  - id: site
    name: Site
    holidays:
      - name: Site day
        date: 2024-03-08
tasks:
  - id: T1
    name: Survey
    start: 2024-03-04
    end: 2024-03-06
`

func writeProject(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

// =============================================================================
// CONSTRAINTS
// =============================================================================

func TestValidate_ReportsViolations(t *testing.T) {
	// GIVEN: T1 scheduled a week before its start-no-earlier-than date
	path := writeProject(t, "depot.json", projectJSON)

	// WHEN: Validating as JSON
	out, err := run(t, "validate", "--project", path, "--json")
	require.NoError(t, err)

	// THEN: One auto-resolvable violation, seven days early
	violations := decode[[]constraint.Violation](t, out)
	require.Len(t, violations, 1)
	assert.Equal(t, generic.TaskID("T1"), violations[0].TaskID)
	assert.Equal(t, constraint.StartNoEarlierThan, violations[0].Kind)
	assert.Equal(t, -7, violations[0].Days)
	assert.True(t, violations[0].CanAutoResolve)

	// AND: The text report names the task and --strict fails the run
	out, err = run(t, "validate", "-p", path, "--strict")
	require.Error(t, err)
	assert.Contains(t, out, "T1")
	assert.Contains(t, out, "SNET")
}

func TestApply_MovesTaskToConstraintDate(t *testing.T) {
	// GIVEN: The same project
	path := writeProject(t, "depot.json", projectJSON)

	// WHEN: Applying constraints
	out, err := run(t, "apply", "-p", path, "--json")
	require.NoError(t, err)

	// THEN: T1 starts on the SNET date and keeps its five working days
	result := decode[constraint.ApplyResult](t, out)
	require.Len(t, result.Resolved, 1)
	assert.Empty(t, result.Remaining)
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, date("2024-03-11"), result.Tasks[0].Start)
	assert.Equal(t, date("2024-03-15"), result.Tasks[0].End)
	assert.Equal(t, 5, result.Tasks[0].Duration)

	// AND: The text report counts the moved task
	out, err = run(t, "apply", "-p", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 constraint(s) resolved, 1 task(s) moved")
}

// =============================================================================
// RESOURCES
// =============================================================================

func TestConflicts_DetectsOverallocation(t *testing.T) {
	// GIVEN: A1 and A2 overlap on 2024-03-05 for 10 units against a capacity of 8
	path := writeProject(t, "depot.json", projectJSON)

	// WHEN: Detecting conflicts
	out, err := run(t, "conflicts", "-p", path, "--json")
	require.NoError(t, err)

	// THEN: One conflict, two units over
	var report struct {
		Conflicts   []resource.Conflict            `json:"conflicts"`
		Utilization map[generic.ResourceID]float64 `json:"utilization"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Conflicts, 1)
	c := report.Conflicts[0]
	assert.Equal(t, date("2024-03-05"), c.Date)
	assert.Equal(t, 10.0, c.Allocated)
	assert.Equal(t, 2.0, c.Overallocation)
	assert.ElementsMatch(t, []generic.TaskID{"T1", "T2"}, c.TaskIDs)
	assert.Greater(t, report.Utilization["R1"], 0.0)

	// AND: A window outside the allocations is clean
	out, err = run(t, "conflicts", "-p", path, "--from", "2024-04-01", "--to", "2024-04-30")
	require.NoError(t, err)
	assert.Contains(t, out, "no resource conflicts")
}

func TestConflicts_RejectsHalfWindow(t *testing.T) {
	path := writeProject(t, "depot.json", projectJSON)

	_, err := run(t, "conflicts", "-p", path, "--from", "2024-03-01")
	require.Error(t, err)

	_, err = run(t, "conflicts", "-p", path, "--from", "2024-03-10", "--to", "2024-03-01")
	require.Error(t, err)
}

func TestLevel_DelaysLaterTask(t *testing.T) {
	// GIVEN: The overlapping allocations
	path := writeProject(t, "depot.json", projectJSON)

	// WHEN: Leveling with the default delay strategy
	out, err := run(t, "level", "-p", path, "--json")
	require.NoError(t, err)

	// THEN: T2, the later task, moves one day and the conflict is gone
	result := decode[resource.LevelResult](t, out)
	assert.Equal(t, 1, result.InitialConflicts)
	assert.True(t, result.Converged)
	assert.Empty(t, result.Conflicts)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, generic.TaskID("T2"), result.Actions[0].TaskID)
	assert.Equal(t, 1, result.Actions[0].ShiftDays)

	// AND: Manual mode only reports
	out, err = run(t, "level", "-p", path, "--manual", "--json")
	require.NoError(t, err)
	manual := decode[resource.LevelResult](t, out)
	assert.False(t, manual.Converged)
	assert.Empty(t, manual.Actions)
}

func TestLevel_RejectsUnknownStrategy(t *testing.T) {
	path := writeProject(t, "depot.json", projectJSON)

	_, err := run(t, "level", "-p", path, "--strategy", "shuffle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shuffle")
}

// =============================================================================
// COSTS & METRICS
// =============================================================================

func TestCost_PricesAllocations(t *testing.T) {
	// GIVEN: R1 at 50 per unit-day
	path := writeProject(t, "depot.json", projectJSON)

	// WHEN: Costing every allocation
	out, err := run(t, "cost", "-p", path, "--json")
	require.NoError(t, err)

	// THEN: 6×2×50 + 4×2×50
	summary := decode[rate.MultiRateSummary](t, out)
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(1000)), summary.Total.String())
	require.Len(t, summary.Assignments, 2)
	require.Len(t, summary.ByRate, 1)
	assert.Equal(t, 4, summary.ByRate[0].Days)

	// AND: An unknown rate type is rejected
	_, err = run(t, "cost", "-p", path, "--type", "bonus")
	require.Error(t, err)
}

func TestMetrics_ReportsProjectSpan(t *testing.T) {
	path := writeProject(t, "depot.json", projectJSON)

	out, err := run(t, "metrics", "-p", path, "--json")
	require.NoError(t, err)

	m := decode[scenario.Metrics](t, out)
	assert.Equal(t, date("2024-03-04"), m.ProjectStart)
	assert.Equal(t, date("2024-03-15"), m.ProjectEnd)
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestCalendarEndDate_BuiltInPresets(t *testing.T) {
	tests := []struct {
		name     string
		calendar string
		want     string
	}{
		{"standard skips the weekend", "", "2024-03-11\n"},
		{"seven day counts the weekend", "seven_day", "2024-03-09\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"calendar", "end-date", "2024-03-07", "3"}
			if tt.calendar != "" {
				args = append(args, "--calendar", tt.calendar)
			}
			out, err := run(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCalendar_ProjectCalendar(t *testing.T) {
	// GIVEN: A project whose calendar closes on Friday 2024-03-08
	path := writeProject(t, "site.yaml", siteProjectYAML)

	// WHEN: Two working days from Thursday
	out, err := run(t, "calendar", "end-date", "2024-03-07", "2", "-p", path)
	require.NoError(t, err)

	// THEN: The holiday is skipped
	assert.Equal(t, "2024-03-11\n", out)

	// AND: The week has four working days
	out, err = run(t, "calendar", "days", "2024-03-04", "2024-03-10", "-p", path, "--json")
	require.NoError(t, err)
	var days struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &days))
	assert.Equal(t, 4, days.Count)
}

func TestCalendar_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"calendar", "end-date", "2024-03-07", "3", "--calendar", "lunar"}},
		{"bad date", []string{"calendar", "end-date", "2024-13-07", "3"}},
		{"negative duration", []string{"calendar", "end-date", "2024-03-07", "-3"}},
		{"inverted range", []string{"calendar", "days", "2024-03-10", "2024-03-04"}},
		{"range beyond horizon", []string{"calendar", "days", "2000-01-01", "2024-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestProjectRequired(t *testing.T) {
	_, err := run(t, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--project")
}
