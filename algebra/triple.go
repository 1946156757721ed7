package algebra

import "fmt"

// TriplePattern is (subject, predicate, object); predicate is a NamedNode
// or a Var, subject/object are any Term.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func (t TriplePattern) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// PathKind distinguishes property path expression shapes.
type PathKind int

const (
	PathPredicate PathKind = iota
	PathSequence
	PathAlternative
	PathInverse
	PathZeroOrMore
	PathOneOrMore
	PathZeroOrOne
	PathNegated
)

// Path is a property path expression tree.
type Path struct {
	Kind        PathKind
	Predicate   NamedNode // valid when Kind == PathPredicate
	Left, Right *Path     // valid for Sequence/Alternative
	Sub         *Path     // valid for Inverse/ZeroOrMore/OneOrMore/ZeroOrOne/Negated
}

func NewPredicatePath(n NamedNode) *Path { return &Path{Kind: PathPredicate, Predicate: n} }

func (p *Path) String() string {
	if p == nil {
		return ""
	}
	switch p.Kind {
	case PathPredicate:
		return p.Predicate.String()
	case PathSequence:
		return p.Left.String() + "/" + p.Right.String()
	case PathAlternative:
		return p.Left.String() + "|" + p.Right.String()
	case PathInverse:
		return "^" + p.Sub.String()
	case PathZeroOrMore:
		return p.Sub.String() + "*"
	case PathOneOrMore:
		return p.Sub.String() + "+"
	case PathZeroOrOne:
		return p.Sub.String() + "?"
	case PathNegated:
		return "!" + p.Sub.String()
	default:
		return "<unknown-path>"
	}
}

// AsSequenceOfPredicates reports whether p is a sequence of bare predicate
// steps (e.g. a/b/c), nested either way, and returns the steps in order.
// The timeseries path normalization itself is DecomposeTimeseriesPath.
func (p *Path) AsSequenceOfPredicates() ([]NamedNode, bool) {
	var steps []NamedNode
	var walk func(*Path) bool
	walk = func(cur *Path) bool {
		switch cur.Kind {
		case PathPredicate:
			steps = append(steps, cur.Predicate)
			return true
		case PathSequence:
			return walk(cur.Left) && walk(cur.Right)
		default:
			return false
		}
	}
	if !walk(p) {
		return nil, false
	}
	return steps, true
}

// DecomposeTimeseriesPath recognizes the one normalized path shape spec.md
// §4.2/§6/§9 folds into a BGP: a right-associated sequence
// hasTimeseries/hasDataPoint/(hasTimestamp|hasValue). Sequences are built
// right-associated by sparqlparse, so this is a simple structural match; any
// other path (including left-associated equivalents built by a different
// producer) is reported as non-matching rather than guessed at, per spec.md
// §9's "other paths pass through unchanged" rule.
func DecomposeTimeseriesPath(p *Path) (tsPred, dpPred NamedNode, tailPreds []NamedNode, ok bool) {
	if p.Kind != PathSequence {
		return NamedNode{}, NamedNode{}, nil, false
	}
	first := p.Left
	rest := p.Right
	if first.Kind != PathPredicate || first.Predicate != HasTimeseries {
		return NamedNode{}, NamedNode{}, nil, false
	}
	if rest.Kind != PathSequence {
		return NamedNode{}, NamedNode{}, nil, false
	}
	second := rest.Left
	tail := rest.Right
	if second.Kind != PathPredicate || second.Predicate != HasDataPoint {
		return NamedNode{}, NamedNode{}, nil, false
	}
	switch tail.Kind {
	case PathPredicate:
		if tail.Predicate == HasTimestamp || tail.Predicate == HasValue {
			return HasTimeseries, HasDataPoint, []NamedNode{tail.Predicate}, true
		}
	case PathAlternative:
		if tail.Left.Kind == PathPredicate && tail.Right.Kind == PathPredicate {
			l, r := tail.Left.Predicate, tail.Right.Predicate
			if (l == HasTimestamp && r == HasValue) || (l == HasValue && r == HasTimestamp) {
				return HasTimeseries, HasDataPoint, []NamedNode{l, r}, true
			}
		}
	}
	return NamedNode{}, NamedNode{}, nil, false
}
