/*
Package constraint validates and auto-resolves date constraints on tasks.

PURPOSE:
  A constraint pins one of a task's dates relative to an anchor date.
  Each (task, constraint) pair is either satisfied or violated, and a
  violation is either auto-resolvable or needs a human.

KINDS:
  Kind  Anchors  Violated when (Days = scheduled - anchor)   Auto-resolve
  ----  -------  -----------------------------------------   ------------
  ASAP  -        never                                        -
  ALAP  -        never                                        -
  MSO   start    Days != 0                                    no
  MFO   end      Days != 0                                    no
  SNET  start    Days < 0                                     yes
  SNLT  start    Days > 0                                     yes
  FNET  end      Days < 0                                     yes
  FNLT  end      Days > 0                                     yes

  |Days| <= Tolerance counts as satisfied.

SEVERITY:
  MSO/MFO -> critical; otherwise |Days| > 7 -> error, else warning.

VIOLATIONS ARE DATA:
  Validate returns *Violation or nil. Errors are reserved for malformed
  constraints and calendars that cannot be searched.

SEE ALSO:
  - apply.go:  Validate and Apply
  - engine.go: Stateful constraint set with a rebuilt violation cache
*/
package constraint

import (
	"fmt"
	"strings"

	"github.com/visualplan/schedule-engine/generic"
)

// =============================================================================
// KIND
// =============================================================================

type Kind string

const (
	AsSoonAsPossible    Kind = "ASAP"
	AsLateAsPossible    Kind = "ALAP"
	MustStartOn         Kind = "MSO"
	MustFinishOn        Kind = "MFO"
	StartNoEarlierThan  Kind = "SNET"
	StartNoLaterThan    Kind = "SNLT"
	FinishNoEarlierThan Kind = "FNET"
	FinishNoLaterThan   Kind = "FNLT"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{
	AsSoonAsPossible, AsLateAsPossible,
	MustStartOn, MustFinishOn,
	StartNoEarlierThan, StartNoLaterThan,
	FinishNoEarlierThan, FinishNoLaterThan,
}

var kindAliases = map[string]Kind{
	"as-soon-as-possible":    AsSoonAsPossible,
	"as-late-as-possible":    AsLateAsPossible,
	"must-start-on":          MustStartOn,
	"must-finish-on":         MustFinishOn,
	"start-no-earlier-than":  StartNoEarlierThan,
	"start-no-later-than":    StartNoLaterThan,
	"finish-no-earlier-than": FinishNoEarlierThan,
	"finish-no-later-than":   FinishNoLaterThan,
}

// ParseKind accepts the short code ("SNET") or the long form
// ("start-no-earlier-than", "start_no_earlier_than").
func ParseKind(s string) (Kind, error) {
	norm := strings.TrimSpace(s)
	if k := Kind(strings.ToUpper(norm)); k.IsValid() {
		return k, nil
	}
	if k, ok := kindAliases[strings.ReplaceAll(strings.ToLower(norm), "_", "-")]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown constraint kind %q: %w", s, generic.ErrInvalidConstraint)
}

func (k Kind) IsValid() bool {
	switch k {
	case AsSoonAsPossible, AsLateAsPossible, MustStartOn, MustFinishOn,
		StartNoEarlierThan, StartNoLaterThan, FinishNoEarlierThan, FinishNoLaterThan:
		return true
	default:
		return false
	}
}

// RequiresDate is false only for ASAP and ALAP.
func (k Kind) RequiresDate() bool {
	switch k {
	case AsSoonAsPossible, AsLateAsPossible:
		return false
	case MustStartOn, MustFinishOn, StartNoEarlierThan, StartNoLaterThan, FinishNoEarlierThan, FinishNoLaterThan:
		return true
	default:
		return false
	}
}

// AnchorsStart reports whether the kind constrains the start date.
func (k Kind) AnchorsStart() bool {
	switch k {
	case MustStartOn, StartNoEarlierThan, StartNoLaterThan:
		return true
	case AsSoonAsPossible, AsLateAsPossible, MustFinishOn, FinishNoEarlierThan, FinishNoLaterThan:
		return false
	default:
		return false
	}
}

// AutoResolvable is false for the must-on kinds.
func (k Kind) AutoResolvable() bool {
	switch k {
	case MustStartOn, MustFinishOn:
		return false
	case AsSoonAsPossible, AsLateAsPossible, StartNoEarlierThan, StartNoLaterThan, FinishNoEarlierThan, FinishNoLaterThan:
		return true
	default:
		return false
	}
}

func (k Kind) String() string { return string(k) }

// =============================================================================
// CONSTRAINT
// =============================================================================

const (
	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5
)

// Constraint restricts when a task may start or finish.
// At most one constraint per (TaskID, Kind) lives in an Engine.
type Constraint struct {
	TaskID    generic.TaskID     `json:"task_id"`
	Kind      Kind               `json:"kind"`
	Date      *generic.TimePoint `json:"date,omitempty"`
	Priority  int                `json:"priority"`
	Tolerance int                `json:"tolerance,omitempty"` // days
}

// Check rejects constraints that can never be evaluated.
// A zero Priority is accepted and means DefaultPriority.
func (c Constraint) Check() error {
	fail := func(reason string) error {
		return &generic.ConstraintError{TaskID: c.TaskID, Kind: string(c.Kind), Reason: reason}
	}
	switch {
	case c.TaskID == "":
		return fail("missing task id")
	case !c.Kind.IsValid():
		return fail("unknown kind")
	case c.Kind.RequiresDate() && (c.Date == nil || c.Date.IsZero()):
		return fail("kind requires a date")
	case c.Priority != 0 && (c.Priority < MinPriority || c.Priority > MaxPriority):
		return fail(fmt.Sprintf("priority %d outside %d..%d", c.Priority, MinPriority, MaxPriority))
	case c.Tolerance < 0:
		return fail("negative tolerance")
	}
	return nil
}

// EffectivePriority maps the zero value to DefaultPriority.
func (c Constraint) EffectivePriority() int {
	if c.Priority == 0 {
		return DefaultPriority
	}
	return c.Priority
}

// Clone copies the anchor date so callers cannot alias it.
func (c Constraint) Clone() Constraint {
	if c.Date != nil {
		d := *c.Date
		c.Date = &d
	}
	return c
}

// At is a convenience for building dated constraints.
func At(taskID generic.TaskID, kind Kind, date generic.TimePoint) Constraint {
	return Constraint{TaskID: taskID, Kind: kind, Date: &date, Priority: DefaultPriority}
}

// =============================================================================
// VIOLATION
// =============================================================================

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

// Violation is derived from a task and a constraint. It is never stored.
type Violation struct {
	TaskID         generic.TaskID    `json:"task_id"`
	Kind           Kind              `json:"kind"`
	ScheduledDate  generic.TimePoint `json:"scheduled_date"`
	ConstraintDate generic.TimePoint `json:"constraint_date"`
	Days           int               `json:"days"` // scheduled - anchor
	Severity       Severity          `json:"severity"`
	CanAutoResolve bool              `json:"can_auto_resolve"`
	SuggestedFix   string            `json:"suggested_fix"`
}
