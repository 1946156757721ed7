// Package changetype implements the three-valued change lattice spec.md §3
// uses to track how a rewritten sub-pattern's solution set relates to the
// original: NoChange (identical), Relaxed (superset — the rewrite dropped a
// restriction that must be re-applied later), or Constrained (subset — the
// rewrite added a restriction that must NOT be re-applied, since it already
// narrowed the result). A composition can also report (ok=false) that no
// single ChangeType describes the combined result.
//
// Grounded on janus-datalog's constraint composition in
// datalog/planner/optimize.go, which threads a similar three-state
// "exact/superset/subset" marker through join reordering decisions.
package changetype

import "fmt"

// ChangeType classifies how a rewritten pattern's result relates to the
// original pattern's result.
type ChangeType int

const (
	// NoChange means the rewritten pattern produces exactly the same
	// solutions as the original.
	NoChange ChangeType = iota
	// Relaxed means the rewritten pattern produces a superset of the
	// original solutions; the dropped restriction must be re-applied
	// downstream (by the combiner) to recover the original semantics.
	Relaxed
	// Constrained means the rewritten pattern produces a subset of the
	// original solutions; the narrowing was pushed down and must NOT be
	// re-applied, since doing so again would be redundant, not wrong, but
	// prepper still needs to know a restriction already "used up" there.
	Constrained
)

func (c ChangeType) String() string {
	switch c {
	case NoChange:
		return "NoChange"
	case Relaxed:
		return "Relaxed"
	case Constrained:
		return "Constrained"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// Abandon is an error value describing a rewrite that cannot proceed. The
// rewrite package does not return it: an incompatible change-type
// combination is reported there as hqerr.PushdownAbandoned.
type Abandon struct {
	Reason string
}

func (a Abandon) Error() string { return "rewrite abandoned: " + a.Reason }

// Abandonf builds an Abandon with a formatted reason.
func Abandonf(format string, args ...any) Abandon {
	return Abandon{Reason: fmt.Sprintf(format, args...)}
}

// Join composes the change types of two patterns combined by an inner
// join. ok is false when the combination cannot be soundly expressed by
// any single ChangeType and the caller must Abandon the rewrite of the
// containing node; for Join every combination is expressible, so ok is
// always true — it mixes Relaxed in whenever either side is Relaxed,
// since the unconstrained side can still introduce spurious rows.
func Join(left, right ChangeType) (ChangeType, bool) {
	switch {
	case left == NoChange && right == NoChange:
		return NoChange, true
	case left == Relaxed || right == Relaxed:
		return Relaxed, true
	default:
		return Constrained, true
	}
}

// Union composes the change types of two patterns combined by UNION. The
// weakest guarantee wins: NoChange only if both sides are NoChange;
// Constrained only if both sides are Constrained (a constraint that holds
// on only one branch does not hold on the union); otherwise Relaxed. Every
// combination is expressible, so ok is always true.
func Union(left, right ChangeType) (ChangeType, bool) {
	switch {
	case left == NoChange && right == NoChange:
		return NoChange, true
	case left == Constrained && right == Constrained:
		return Constrained, true
	default:
		return Relaxed, true
	}
}

// Minus composes the change type of a MINUS pattern from both sides'
// change types. MINUS flips the right side's required direction before
// combining: a right side that now matches more rows (Relaxed) excludes
// more from the left, narrowing the result (effectively Constrained); a
// right side that now matches fewer rows (Constrained) excludes less,
// widening the result (effectively Relaxed). A Relaxed left propagates
// through unchanged except against an effectively-Constrained right,
// the one combination that cannot be soundly expressed by a single
// ChangeType — that case forces the caller to Abandon.
func Minus(left, right ChangeType) (ChangeType, bool) {
	effectiveRight := flipMinusRight(right)
	if left == Relaxed && effectiveRight == Constrained {
		return left, false
	}
	switch {
	case left == NoChange && effectiveRight == NoChange:
		return NoChange, true
	case left == Relaxed || effectiveRight == Relaxed:
		return Relaxed, true
	default:
		return Constrained, true
	}
}

// flipMinusRight implements MINUS's direction flip on its right side: a
// dropped restriction there (Relaxed) narrows the overall result and an
// added restriction (Constrained) widens it, the opposite of every
// other composition rule.
func flipMinusRight(c ChangeType) ChangeType {
	switch c {
	case Relaxed:
		return Constrained
	case Constrained:
		return Relaxed
	default:
		return NoChange
	}
}

// Weaken returns the change type that results from composing an existing
// change with an additional Relaxed step — relaxation is "sticky": once a
// restriction has been dropped anywhere along a path, the aggregate change
// can never be stronger than Relaxed.
func Weaken(existing ChangeType) ChangeType {
	if existing == NoChange {
		return Relaxed
	}
	if existing == Constrained {
		return Relaxed
	}
	return Relaxed
}

// Strengthen composes an existing change with an additional Constrained
// step. A Relaxed change stays Relaxed — a later constraint does not undo
// an earlier dropped restriction that still needs re-checking.
func Strengthen(existing ChangeType) ChangeType {
	if existing == NoChange {
		return Constrained
	}
	return existing
}
