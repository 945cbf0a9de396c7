package factory

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/visualplan/schedule-engine/constraint"
	"github.com/visualplan/schedule-engine/generic"
	"github.com/visualplan/schedule-engine/rate"
)

// =============================================================================
// RATES
// =============================================================================

// RateJSON is one rate record. Type takes a code (2) or a name ("overtime").
type RateJSON struct {
	ID            string         `json:"id,omitempty" yaml:"id,omitempty"`
	ResourceID    string         `json:"resource_id" yaml:"resource_id"`
	Type          TypeRef        `json:"type" yaml:"type"`
	PricePerUnit  generic.Money  `json:"price_per_unit" yaml:"price_per_unit"`
	CostPerUse    *generic.Money `json:"cost_per_use,omitempty" yaml:"cost_per_use,omitempty"`
	EffectiveFrom string         `json:"effective_from,omitempty" yaml:"effective_from,omitempty"`
	EffectiveTo   string         `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
}

// TypeRef holds a rate type as written, number or string.
type TypeRef string

func (t *TypeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = TypeRef(s)
		return nil
	}
	*t = TypeRef(b)
	return nil
}

func (t *TypeRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("rate type: want a scalar, got %v", node.Tag)
	}
	*t = TypeRef(node.Value)
	return nil
}

// ParseRatesJSON parses a JSON array of rate records.
func ParseRatesJSON(data []byte) ([]rate.Record, error) {
	var docs []RateJSON
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse rates JSON: %w", err)
	}
	return FromRatesJSON(docs)
}

func FromRatesJSON(docs []RateJSON) ([]rate.Record, error) {
	out := make([]rate.Record, 0, len(docs))
	for i, rj := range docs {
		rec, err := FromRateJSON(rj)
		if err != nil {
			return nil, fmt.Errorf("rate %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func FromRateJSON(rj RateJSON) (rate.Record, error) {
	t, err := rate.ParseType(string(rj.Type))
	if err != nil {
		return rate.Record{}, err
	}
	rec := rate.Record{
		ID:           rj.ID,
		ResourceID:   generic.ResourceID(rj.ResourceID),
		Type:         t,
		PricePerUnit: rj.PricePerUnit,
		CostPerUse:   rj.CostPerUse,
	}
	if rec.EffectiveFrom, err = optionalDate(rj.EffectiveFrom); err != nil {
		return rate.Record{}, fmt.Errorf("effective_from: %w", err)
	}
	if rec.EffectiveTo, err = optionalDate(rj.EffectiveTo); err != nil {
		return rate.Record{}, fmt.Errorf("effective_to: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return rate.Record{}, err
	}
	return rec, nil
}

// =============================================================================
// CONSTRAINTS
// =============================================================================

// ConstraintJSON is one task constraint. Type takes the short code ("SNET")
// or the long form ("start-no-earlier-than").
type ConstraintJSON struct {
	TaskID    string `json:"task_id" yaml:"task_id"`
	Type      string `json:"type" yaml:"type"`
	Date      string `json:"date,omitempty" yaml:"date,omitempty"`
	Priority  int    `json:"priority,omitempty" yaml:"priority,omitempty"`
	Tolerance int    `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
}

// ParseConstraintJSON parses a single constraint document.
func ParseConstraintJSON(data []byte) (constraint.Constraint, error) {
	var cj ConstraintJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return constraint.Constraint{}, fmt.Errorf("failed to parse constraint JSON: %w", err)
	}
	return FromConstraintJSON(cj)
}

func FromConstraintJSON(cj ConstraintJSON) (constraint.Constraint, error) {
	kind, err := constraint.ParseKind(cj.Type)
	if err != nil {
		return constraint.Constraint{}, err
	}
	date, err := optionalDate(cj.Date)
	if err != nil {
		return constraint.Constraint{}, fmt.Errorf("constraint on %s: %w", cj.TaskID, err)
	}
	c := constraint.Constraint{
		TaskID:    generic.TaskID(cj.TaskID),
		Kind:      kind,
		Date:      date,
		Priority:  cj.Priority,
		Tolerance: cj.Tolerance,
	}
	if err := c.Check(); err != nil {
		return constraint.Constraint{}, err
	}
	return c, nil
}

func optionalDate(s string) (*generic.TimePoint, error) {
	if s == "" {
		return nil, nil
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
