// Package constraint implements C1 from spec.md §4.1: a map from
// (variable, path context) to the externally-derived kind that variable is
// bound to at that point in the query, used by typeinfer to decide whether
// a triple/path touching that variable can be pushed down to a time-series
// backend.
//
// Grounded on janus-datalog's datalog/constraints package, which maps
// (Variable, scope) pairs to type/arity constraints during planning in
// much the same shape; this package generalizes that to the five external
// constraint kinds spec.md §4.1 names, scoped by qctx.Context instead of a
// flat Datalog scope.
package constraint

import (
	"fmt"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/qctx"
)

// Kind is one of the five externally-derived variable roles spec.md §4.1
// defines. A variable bound by hasTimeseries/hasDataPoint/hasTimestamp/
// hasValue traffic is externally derived; everything else is ordinary.
type Kind int

const (
	// ExternalTimeseries marks a variable bound to a time-series resource
	// node (the subject of hasTimeseries).
	ExternalTimeseries Kind = iota
	// ExternalDataPoint marks a variable bound to a data-point node (the
	// subject of hasTimestamp/hasValue).
	ExternalDataPoint
	// ExternalDataValue marks a variable bound to a data point's value.
	ExternalDataValue
	// ExternalTimestamp marks a variable bound to a data point's timestamp.
	ExternalTimestamp
	// ExternallyDerived marks a variable computed from one of the above via
	// an expression (e.g. BIND(?v * 2 AS ?w)), still external but no longer
	// one of the four concrete roles above.
	ExternallyDerived
)

func (k Kind) String() string {
	switch k {
	case ExternalTimeseries:
		return "ExternalTimeseries"
	case ExternalDataPoint:
		return "ExternalDataPoint"
	case ExternalDataValue:
		return "ExternalDataValue"
	case ExternalTimestamp:
		return "ExternalTimestamp"
	case ExternallyDerived:
		return "ExternallyDerived"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrConflict is returned by Insert when a variable is already bound to a
// different, incompatible Kind at the same context.
type ErrConflict struct {
	Var      algebra.Variable
	Existing Kind
	New      Kind
}

func (e ErrConflict) Error() string {
	return fmt.Sprintf("variable %s already constrained as %s, cannot also be %s", e.Var, e.Existing, e.New)
}

type entry struct {
	ctx  qctx.Context
	kind Kind
}

// Map is a (Variable, Context) -> Kind constraint set. The zero value is an
// empty, usable Map.
type Map struct {
	byVar map[algebra.Variable][]entry
}

// New returns an empty constraint Map.
func New() *Map {
	return &Map{byVar: map[algebra.Variable][]entry{}}
}

func (m *Map) ensure() {
	if m.byVar == nil {
		m.byVar = map[algebra.Variable][]entry{}
	}
}

// Insert records that v has kind at ctx. It is not an error to insert the
// same (v, ctx, kind) twice. Inserting a different kind at the exact same
// context is a conflict. Inserting a different kind at a context that is a
// strict descendant of an existing entry's context is allowed — the
// narrower scope shadows the wider one, matching how a variable can be
// reused with a different role inside a nested UNION branch.
func (m *Map) Insert(v algebra.Variable, ctx qctx.Context, kind Kind) error {
	m.ensure()
	for _, e := range m.byVar[v] {
		if e.ctx.Equal(ctx) {
			if e.kind != kind {
				return ErrConflict{Var: v, Existing: e.kind, New: kind}
			}
			return nil
		}
	}
	m.byVar[v] = append(m.byVar[v], entry{ctx: ctx, kind: kind})
	return nil
}

// Lookup returns the Kind recorded for v that is visible at ctx: the entry
// whose context is the longest prefix of ctx (the most specific scope
// enclosing ctx). ok is false if v has no constraint visible at ctx.
func (m *Map) Lookup(v algebra.Variable, ctx qctx.Context) (Kind, bool) {
	if m.byVar == nil {
		return 0, false
	}
	var best entry
	bestDepth := -1
	found := false
	for _, e := range m.byVar[v] {
		if e.ctx.IsPrefixOf(ctx) && e.ctx.Depth() > bestDepth {
			best = e
			bestDepth = e.ctx.Depth()
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return best.kind, true
}

// IsExternal reports whether v has any constraint visible at ctx, i.e.
// whether it is bound to externally-derived data at that point in the
// query.
func (m *Map) IsExternal(v algebra.Variable, ctx qctx.Context) bool {
	_, ok := m.Lookup(v, ctx)
	return ok
}

// Merge folds other's entries into m, reporting the first conflict
// encountered (if any). Used when two branches of a Union or Join are
// typed independently and their constraints must agree at their shared
// context prefix.
func (m *Map) Merge(other *Map) error {
	m.ensure()
	for v, entries := range other.byVar {
		for _, e := range entries {
			if err := m.Insert(v, e.ctx, e.kind); err != nil {
				return err
			}
		}
	}
	return nil
}
