/*
Package rate resolves time-bounded billing rates into costs.

PURPOSE:
  A resource may carry several price records per rate type, each
  authoritative over an effective window. Resolve picks the record in force
  on a date; the cost functions walk assignments day by day so a price
  change mid-assignment is billed correctly.

RESOLUTION (Resolve):
  1. Keep records for the resource and rate type whose window contains the
     date. Missing bounds are open: Epoch .. FarFuture.
  2. Order by EffectiveFrom descending; records without one sort last.
  3. Take the first. If nothing matched, use defaultRate x multiplier and
     mark the result IsDefault.

SEE ALSO:
  - cost.go: TimeVariedCost and MultiRateCost
*/
package rate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// RATE TYPE
// =============================================================================

// Type is a rate-type code.
type Type int

const (
	TypeStandard   Type = 1
	TypeOvertime   Type = 2
	TypeDoubleTime Type = 3
	TypeWeekend    Type = 4
	TypeHoliday    Type = 5
)

func (t Type) IsValid() bool { return t >= TypeStandard && t <= TypeHoliday }

func (t Type) String() string {
	switch t {
	case TypeStandard:
		return "standard"
	case TypeOvertime:
		return "overtime"
	case TypeDoubleTime:
		return "double_time"
	case TypeWeekend:
		return "weekend"
	case TypeHoliday:
		return "holiday"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType accepts a code ("2") or a name ("overtime").
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil {
		if t := Type(n); t.IsValid() {
			return t, nil
		}
		return 0, fmt.Errorf("unknown rate type %d", n)
	}
	for t := TypeStandard; t <= TypeHoliday; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown rate type %q", s)
}

// DefaultMultipliers scale the default rate when no record applies.
func DefaultMultipliers() map[Type]generic.Money {
	return map[Type]generic.Money{
		TypeStandard:   decimal.NewFromFloat(1.0),
		TypeOvertime:   decimal.NewFromFloat(1.5),
		TypeDoubleTime: decimal.NewFromFloat(2.0),
		TypeWeekend:    decimal.NewFromFloat(1.25),
		TypeHoliday:    decimal.NewFromFloat(2.5),
	}
}

// =============================================================================
// RECORDS
// =============================================================================

// Record is a price authoritative over [EffectiveFrom, EffectiveTo].
type Record struct {
	ID            string             `json:"id,omitempty"`
	ResourceID    generic.ResourceID `json:"resource_id"`
	Type          Type               `json:"type"`
	PricePerUnit  generic.Money      `json:"price_per_unit"`
	CostPerUse    *generic.Money     `json:"cost_per_use,omitempty"`
	EffectiveFrom *generic.TimePoint `json:"effective_from,omitempty"`
	EffectiveTo   *generic.TimePoint `json:"effective_to,omitempty"`
}

// Window returns the effective window with open bounds filled in.
func (r Record) Window() generic.Period {
	w := generic.NewPeriod(generic.Epoch, generic.FarFuture)
	if r.EffectiveFrom != nil {
		w.Start = *r.EffectiveFrom
	}
	if r.EffectiveTo != nil {
		w.End = *r.EffectiveTo
	}
	return w
}

func (r Record) Validate() error {
	if r.ResourceID == "" {
		return fmt.Errorf("rate record: missing resource id")
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("rate record for %s: unknown type %d", r.ResourceID, int(r.Type))
	}
	if r.PricePerUnit.IsNegative() {
		return fmt.Errorf("rate record for %s: negative price", r.ResourceID)
	}
	if err := r.Window().Validate(); err != nil {
		return fmt.Errorf("rate record for %s: %w", r.ResourceID, err)
	}
	return nil
}

// Resolved is the rate in force for one resource, type and date.
type Resolved struct {
	Record    Record        `json:"record"`
	Rate      generic.Money `json:"rate"`
	IsDefault bool          `json:"is_default"`
}

// =============================================================================
// RESOLVER
// =============================================================================

type Resolver struct {
	Multipliers map[Type]generic.Money
}

// NewResolver uses DefaultMultipliers for any type missing from overrides.
func NewResolver(overrides map[Type]generic.Money) *Resolver {
	m := DefaultMultipliers()
	for t, v := range overrides {
		m[t] = v
	}
	return &Resolver{Multipliers: m}
}

// Multiplier is 1 for unknown types.
func (r *Resolver) Multiplier(t Type) generic.Money {
	if m, ok := r.Multipliers[t]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// Resolve returns the record in force on ref, or the scaled default.
func (r *Resolver) Resolve(resourceID generic.ResourceID, t Type, ref generic.TimePoint, rates []Record, defaultRate generic.Money) Resolved {
	var candidates []Record
	for _, rec := range rates {
		if rec.ResourceID == resourceID && rec.Type == t && rec.Window().Contains(ref) {
			candidates = append(candidates, rec)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].EffectiveFrom, candidates[j].EffectiveFrom
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	if len(candidates) > 0 {
		return Resolved{Record: candidates[0], Rate: candidates[0].PricePerUnit}
	}

	rate := defaultRate.Mul(r.Multiplier(t))
	return Resolved{
		Record:    Record{ResourceID: resourceID, Type: t, PricePerUnit: rate},
		Rate:      rate,
		IsDefault: true,
	}
}
