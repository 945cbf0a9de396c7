package scenario

import (
	"fmt"
	"strings"

	"github.com/visualplan/schedule-engine/generic"
)

// Difference describes one scenario against the baseline (the first one).
type Difference struct {
	ScenarioID      string        `json:"scenario_id"`
	Name            string        `json:"name"`
	DurationDelta   int           `json:"duration_delta"`
	CostDelta       generic.Money `json:"cost_delta"`
	EndDateDelta    int           `json:"end_date_delta"`
	RiskDelta       float64       `json:"risk_delta"`
	CriticalChanges []string      `json:"critical_changes"`
}

// HasCriticalChanges reports whether any threshold was crossed.
func (d Difference) HasCriticalChanges() bool { return len(d.CriticalChanges) > 0 }

type RecommendationKind string

const (
	RecommendHighestCompletion RecommendationKind = "highest_completion"
	RecommendLowestCost        RecommendationKind = "lowest_cost"
	RecommendShortestDuration  RecommendationKind = "shortest_duration"
	RecommendRiskWarning       RecommendationKind = "risk_warning"
)

type Recommendation struct {
	Kind        RecommendationKind `json:"kind"`
	ScenarioIDs []string           `json:"scenario_ids"`
	Message     string             `json:"message"`
}

type Comparison struct {
	BaselineID      string           `json:"baseline_id"`
	Differences     []Difference     `json:"differences"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Compare measures every scenario after the first against the first, then
// recommends the most likely to finish, the cheapest (if different) and the
// shortest (if different from both). Any scenario whose risk exceeds the
// warning threshold adds one warning.
func (s *Simulator) Compare(scenarios []Scenario) Comparison {
	out := Comparison{Differences: []Difference{}, Recommendations: []Recommendation{}}
	if len(scenarios) == 0 {
		return out
	}
	th := s.Thresholds
	baseline := scenarios[0]
	out.BaselineID = baseline.ID

	for _, sc := range scenarios[1:] {
		d := Difference{
			ScenarioID:      sc.ID,
			Name:            sc.Name,
			DurationDelta:   sc.Metrics.TotalDuration - baseline.Metrics.TotalDuration,
			CostDelta:       sc.Metrics.TotalCost.Sub(baseline.Metrics.TotalCost),
			EndDateDelta:    endDelta(baseline.Metrics, sc.Metrics),
			RiskDelta:       sc.Metrics.RiskScore - baseline.Metrics.RiskScore,
			CriticalChanges: []string{},
		}
		if abs(d.DurationDelta) > th.CriticalDurationDays {
			d.CriticalChanges = append(d.CriticalChanges,
				fmt.Sprintf("duration changes by %d days", d.DurationDelta))
		}
		if d.CostDelta.Abs().GreaterThan(th.CriticalCostDelta) {
			d.CriticalChanges = append(d.CriticalChanges,
				fmt.Sprintf("cost changes by %s", d.CostDelta.StringFixed(2)))
		}
		if d.RiskDelta > th.CriticalRiskDelta {
			d.CriticalChanges = append(d.CriticalChanges,
				fmt.Sprintf("risk rises by %.1f points", d.RiskDelta))
		}
		out.Differences = append(out.Differences, d)
	}

	best, cheapest, fastest := scenarios[0], scenarios[0], scenarios[0]
	for _, sc := range scenarios[1:] {
		if sc.Metrics.CompletionProbability > best.Metrics.CompletionProbability {
			best = sc
		}
		if sc.Metrics.TotalCost.LessThan(cheapest.Metrics.TotalCost) {
			cheapest = sc
		}
		if sc.Metrics.TotalDuration < fastest.Metrics.TotalDuration {
			fastest = sc
		}
	}

	out.Recommendations = append(out.Recommendations, Recommendation{
		Kind:        RecommendHighestCompletion,
		ScenarioIDs: []string{best.ID},
		Message: fmt.Sprintf("%q has the highest completion probability (%.1f%%)",
			best.Name, best.Metrics.CompletionProbability),
	})
	if cheapest.ID != best.ID {
		out.Recommendations = append(out.Recommendations, Recommendation{
			Kind:        RecommendLowestCost,
			ScenarioIDs: []string{cheapest.ID},
			Message:     fmt.Sprintf("%q has the lowest cost (%s)", cheapest.Name, cheapest.Metrics.TotalCost.StringFixed(2)),
		})
	}
	if fastest.ID != best.ID && fastest.ID != cheapest.ID {
		out.Recommendations = append(out.Recommendations, Recommendation{
			Kind:        RecommendShortestDuration,
			ScenarioIDs: []string{fastest.ID},
			Message:     fmt.Sprintf("%q has the shortest duration (%d days)", fastest.Name, fastest.Metrics.TotalDuration),
		})
	}

	var risky []string
	var riskyNames []string
	for _, sc := range scenarios {
		if sc.Metrics.RiskScore > th.RiskWarning {
			risky = append(risky, sc.ID)
			riskyNames = append(riskyNames, fmt.Sprintf("%q", sc.Name))
		}
	}
	if len(risky) > 0 {
		out.Recommendations = append(out.Recommendations, Recommendation{
			Kind:        RecommendRiskWarning,
			ScenarioIDs: risky,
			Message: fmt.Sprintf("risk above %.0f in %s; review before committing",
				th.RiskWarning, strings.Join(riskyNames, ", ")),
		})
	}
	return out
}

func endDelta(base, other Metrics) int {
	if base.ProjectEnd.IsZero() || other.ProjectEnd.IsZero() {
		return 0
	}
	return generic.DaysBetween(base.ProjectEnd, other.ProjectEnd)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
