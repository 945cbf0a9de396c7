package scenario

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/visualplan/schedule-engine/generic"
)

// CalculateMetrics is deterministic for a given task set, dependency set
// and clock.
func (s *Simulator) CalculateMetrics(tasks []generic.Task, deps []generic.Dependency) Metrics {
	m := Metrics{TotalCost: decimal.Zero, CompletionProbability: 100}
	if len(tasks) == 0 {
		return m
	}

	m.ProjectStart, m.ProjectEnd = tasks[0].Start, tasks[0].End
	for _, t := range tasks[1:] {
		m.ProjectStart = generic.MinTime(m.ProjectStart, t.Start)
		m.ProjectEnd = generic.MaxTime(m.ProjectEnd, t.End)
	}
	m.TotalDuration = generic.DaysBetween(m.ProjectStart, m.ProjectEnd)

	costPerDay := s.CostPerDay
	if costPerDay.IsZero() {
		costPerDay = DefaultCostPerDay
	}
	m.TotalCost = costPerDay.Mul(decimal.NewFromInt(int64(m.TotalDuration)))

	m.ResourceUtilization = coverage(tasks, m.ProjectStart, m.ProjectEnd)
	m.CriticalPathLength, m.CriticalPath = s.criticalPathOf(tasks, deps)

	m.RiskScore = riskScore(tasks, deps, generic.FromTime(s.now()))
	m.CompletionProbability = math.Max(0, 100-m.RiskScore)
	return m
}

func (s *Simulator) criticalPathOf(tasks []generic.Task, deps []generic.Dependency) (int, []generic.TaskID) {
	if s.CriticalPath == CriticalPathDependency {
		// A cycle falls back to the single-task approximation.
		if res, err := criticalPath(tasks, deps); err == nil {
			return res.Length, res.Path
		}
	}
	longest := 0
	for _, t := range tasks {
		if d := taskDays(t); d > longest {
			longest = d
		}
	}
	return longest, nil
}

// riskScore sums the four weighted factors and caps at 100.
func riskScore(tasks []generic.Task, deps []generic.Dependency, today generic.TimePoint) float64 {
	n := float64(len(tasks))
	var risk float64

	var totalDays int
	for _, t := range tasks {
		totalDays += taskDays(t)
	}
	switch avg := float64(totalDays) / n; {
	case avg > 30:
		risk += 20
	case avg > 14:
		risk += 10
	}

	switch ratio := float64(len(deps)) / n; {
	case ratio > 2:
		risk += 30
	case ratio > 1:
		risk += 15
	}

	var waiting, overdue int
	for _, t := range tasks {
		if t.Status == generic.StatusNotStarted || t.Status == generic.StatusOnHold {
			waiting++
		}
		if t.End.Before(today) && t.Status != generic.StatusCompleted {
			overdue++
		}
	}
	risk += float64(waiting) / n * 20
	risk += float64(overdue) / n * 30

	risk = math.Round(risk*100) / 100
	return math.Min(risk, 100)
}

// coverage is the percentage of project days on which at least one task is
// scheduled. It stands in for resource utilization when no allocation data
// is part of the scenario.
func coverage(tasks []generic.Task, start, end generic.TimePoint) float64 {
	total := generic.DaysBetween(start, end) + 1
	if total <= 0 {
		return 0
	}
	covered := make([]bool, total)
	for _, t := range tasks {
		from := generic.DaysBetween(start, t.Start)
		to := generic.DaysBetween(start, t.End)
		for d := from; d <= to; d++ {
			if d >= 0 && d < total {
				covered[d] = true
			}
		}
	}
	count := 0
	for _, c := range covered {
		if c {
			count++
		}
	}
	return math.Round(float64(count)/float64(total)*10000) / 100
}

// taskDays is a task's calendar span in days.
func taskDays(t generic.Task) int {
	if d := t.SpanDays(); d > 0 {
		return d
	}
	return 0
}
