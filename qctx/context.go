// Package qctx implements the path-context arena described in spec.md §3
// and §9: an immutable, O(1)-extendable path from the query root to a
// sub-node, used to scope variable constraints and to identify "the same
// sub-node" for change-type bookkeeping.
//
// No persistent-list library appears anywhere in the retrieval pack (no
// immutable/hamt-shaped dependency in any example's go.mod), so this is
// hand-rolled on top of a simple cons-list of immutable nodes — the
// smallest structure that gives O(1) extension and cheap equality, which is
// exactly what spec.md §9 asks for ("immutable persistent list or a
// (parent-handle, tag) arena").
package qctx

import "fmt"

// EntryKind tags which child of a graph-pattern node a context step
// descends into.
type EntryKind int

const (
	FilterInner EntryKind = iota
	FilterExpr
	JoinLeftSide
	JoinRightSide
	LeftJoinLeftSide
	LeftJoinRightSide
	LeftJoinExpr
	UnionLeftSide
	UnionRightSide
	GraphInner
	ExtendInner
	ExtendExpr
	MinusLeftSide
	MinusRightSide
	OrderByInner
	ProjectInner
	DistinctInner
	ReducedInner
	SliceInner
	GroupInner
	GroupAggregation
	ServiceInner
	BgpTriple
	PathStep
	ExistsInner
)

// Entry is one step of a path context: a kind plus an optional integer
// index (used by BgpTriple and GroupAggregation, ignored otherwise).
type Entry struct {
	Kind  EntryKind
	Index int
}

func (e Entry) String() string {
	switch e.Kind {
	case BgpTriple:
		return fmt.Sprintf("bgp[%d]", e.Index)
	case GroupAggregation:
		return fmt.Sprintf("groupAgg[%d]", e.Index)
	default:
		return kindNames[e.Kind]
	}
}

var kindNames = map[EntryKind]string{
	FilterInner:       "filterInner",
	FilterExpr:        "filterExpr",
	JoinLeftSide:      "joinLeft",
	JoinRightSide:     "joinRight",
	LeftJoinLeftSide:  "leftJoinLeft",
	LeftJoinRightSide: "leftJoinRight",
	LeftJoinExpr:      "leftJoinExpr",
	UnionLeftSide:     "unionLeft",
	UnionRightSide:    "unionRight",
	GraphInner:        "graphInner",
	ExtendInner:       "extendInner",
	ExtendExpr:        "extendExpr",
	MinusLeftSide:     "minusLeft",
	MinusRightSide:    "minusRight",
	OrderByInner:      "orderByInner",
	ProjectInner:      "projectInner",
	DistinctInner:     "distinctInner",
	ReducedInner:      "reducedInner",
	SliceInner:        "sliceInner",
	GroupInner:        "groupInner",
	ServiceInner:      "serviceInner",
	PathStep:          "pathStep",
	ExistsInner:       "existsInner",
}

// node is one immutable link in the context cons-list.
type node struct {
	parent *node
	entry  Entry
	depth  int
}

// Context identifies a path from the query root to a sub-node. The zero
// value is the root context. Contexts are immutable; Push never mutates the
// receiver.
type Context struct {
	tail *node
}

// Root returns the empty context, identifying the top of the query.
func Root() Context { return Context{} }

// Push returns a new context extending c by one entry. O(1).
func (c Context) Push(e Entry) Context {
	depth := 0
	if c.tail != nil {
		depth = c.tail.depth + 1
	}
	return Context{tail: &node{parent: c.tail, entry: e, depth: depth}}
}

// PushIndexed is a convenience for Push(Entry{Kind: kind, Index: index}).
func (c Context) PushIndexed(kind EntryKind, index int) Context {
	return c.Push(Entry{Kind: kind, Index: index})
}

// Depth returns the number of entries in the context.
func (c Context) Depth() int {
	if c.tail == nil {
		return 0
	}
	return c.tail.depth + 1
}

// Entries returns the context's entries from root to tip.
func (c Context) Entries() []Entry {
	out := make([]Entry, c.Depth())
	n := c.tail
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = n.entry
		n = n.parent
	}
	return out
}

// Equal reports whether c and other identify the same sub-node. Two
// contexts built from the same sequence of Push calls are Equal even if
// they are different allocations, since cons nodes are compared by value
// once walked; for contexts sharing a tail allocation this is also a cheap
// pointer equality fast path.
func (c Context) Equal(other Context) bool {
	if c.tail == other.tail {
		return true
	}
	if c.Depth() != other.Depth() {
		return false
	}
	a, b := c.tail, other.tail
	for a != nil {
		if a.entry.Kind != b.entry.Kind {
			return false
		}
		if (a.entry.Kind == BgpTriple || a.entry.Kind == GroupAggregation) && a.entry.Index != b.entry.Index {
			return false
		}
		a, b = a.parent, b.parent
	}
	return true
}

// IsPrefixOf reports whether c is a prefix of other, i.e. other was reached
// by zero or more Push calls starting from c.
func (c Context) IsPrefixOf(other Context) bool {
	if c.Depth() > other.Depth() {
		return false
	}
	n := other.tail
	for i := other.Depth() - c.Depth(); i > 0; i-- {
		n = n.parent
	}
	return (Context{tail: n}).Equal(c)
}

// Key returns a stable, comparable string key for use as a map key when a
// caller needs exact-context (not prefix) matching.
func (c Context) Key() string {
	s := ""
	for _, e := range c.Entries() {
		s += e.String() + ">"
	}
	return s
}
