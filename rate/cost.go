package rate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// COST INPUTS & OUTPUTS
// =============================================================================

// Assignment bills Units per day of a resource over Period.
type Assignment struct {
	ResourceID   generic.ResourceID `json:"resource_id"`
	TaskID       generic.TaskID     `json:"task_id,omitempty"`
	Type         Type               `json:"type"`
	Period       generic.Period     `json:"period"`
	Units        float64            `json:"units"`
	DefaultRate  generic.Money      `json:"default_rate"`
	SkipWeekends bool               `json:"skip_weekends,omitempty"`

	// WeekendType bills counted weekend days at another type. Zero = Type.
	WeekendType Type `json:"weekend_type,omitempty"`
}

func (a Assignment) typeOn(d generic.TimePoint) Type {
	if a.WeekendType != 0 && d.IsWeekend() {
		return a.WeekendType
	}
	return a.Type
}

type DailyCost struct {
	Date      generic.TimePoint `json:"date"`
	Type      Type              `json:"type"`
	Units     float64           `json:"units"`
	Rate      generic.Money     `json:"rate"`
	Cost      generic.Money     `json:"cost"`
	IsDefault bool              `json:"is_default"`
}

type CostBreakdown struct {
	ResourceID generic.ResourceID `json:"resource_id"`
	TaskID     generic.TaskID     `json:"task_id,omitempty"`
	Total      generic.Money      `json:"total"`
	PerUseCost generic.Money      `json:"per_use_cost"`
	Days       []DailyCost        `json:"days"`
}

// RateBucket groups billed days sharing one resolved rate.
type RateBucket struct {
	Rate  generic.Money `json:"rate"`
	Days  int           `json:"days"`
	Units float64       `json:"units"`
	Cost  generic.Money `json:"cost"`
}

type MultiRateSummary struct {
	Total       generic.Money   `json:"total"`
	Assignments []CostBreakdown `json:"assignments"`
	ByRate      []RateBucket    `json:"by_rate"`
}

// =============================================================================
// COST CALCULATION
// =============================================================================

// TimeVariedCost bills every calendar day of the assignment (weekends
// optionally skipped), resolving the rate for each day on its own. A
// cost-per-use from the first counted day's record is added once.
func (r *Resolver) TimeVariedCost(a Assignment, rates []Record) CostBreakdown {
	out := CostBreakdown{
		ResourceID: a.ResourceID,
		TaskID:     a.TaskID,
		Total:      decimal.Zero,
		PerUseCost: decimal.Zero,
		Days:       []DailyCost{},
	}
	units := decimal.NewFromFloat(a.Units)
	first := true

	for d := a.Period.Start; d.BeforeOrEqual(a.Period.End); d = d.AddDays(1) {
		if a.SkipWeekends && d.IsWeekend() {
			continue
		}
		t := a.typeOn(d)
		res := r.Resolve(a.ResourceID, t, d, rates, a.DefaultRate)
		cost := units.Mul(res.Rate)

		if first {
			if !res.IsDefault && res.Record.CostPerUse != nil {
				out.PerUseCost = *res.Record.CostPerUse
			}
			first = false
		}

		out.Days = append(out.Days, DailyCost{
			Date:      d,
			Type:      t,
			Units:     a.Units,
			Rate:      res.Rate,
			Cost:      cost,
			IsDefault: res.IsDefault,
		})
		out.Total = out.Total.Add(cost)
	}
	out.Total = out.Total.Add(out.PerUseCost)
	return out
}

// MultiRateCost sums TimeVariedCost over assignments and groups the billed
// days by resolved rate, cheapest first.
func (r *Resolver) MultiRateCost(assignments []Assignment, rates []Record) MultiRateSummary {
	summary := MultiRateSummary{
		Total:       decimal.Zero,
		Assignments: make([]CostBreakdown, 0, len(assignments)),
		ByRate:      []RateBucket{},
	}
	for _, a := range assignments {
		b := r.TimeVariedCost(a, rates)
		summary.Assignments = append(summary.Assignments, b)
		summary.Total = summary.Total.Add(b.Total)

		for _, day := range b.Days {
			i := bucketIndex(summary.ByRate, day.Rate)
			if i < 0 {
				summary.ByRate = append(summary.ByRate, RateBucket{Rate: day.Rate, Cost: decimal.Zero})
				i = len(summary.ByRate) - 1
			}
			summary.ByRate[i].Days++
			summary.ByRate[i].Units += day.Units
			summary.ByRate[i].Cost = summary.ByRate[i].Cost.Add(day.Cost)
		}
	}
	sort.SliceStable(summary.ByRate, func(i, j int) bool {
		return summary.ByRate[i].Rate.LessThan(summary.ByRate[j].Rate)
	})
	return summary
}

func bucketIndex(buckets []RateBucket, rate generic.Money) int {
	for i, b := range buckets {
		if b.Rate.Equal(rate) {
			return i
		}
	}
	return -1
}
