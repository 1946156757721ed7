// Package rewritecache implements a Badger-backed cache from query text
// (plus the pushdown settings it was rewritten under) to the
// parse/infer/rewrite outcome, so a repeated query skips straight to
// static execution.
//
// Grounded on janus-datalog's on-disk storage layer
// (datalog/storage/badger_store.go): same badger.DefaultOptions/
// db.View/db.Update shape, repurposed from a datom index to a small
// key/value plan cache. Values are gob-encoded; algebra's GraphPattern,
// Expression, Term, and AggregateExpression interfaces need their
// concrete variants registered with encoding/gob before a Plan
// containing them can round-trip, done once in register.go.
package rewritecache

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/tsquery"
)

// Plan is the cached output of parse+infer+rewrite: the inferred
// (unrewritten) pattern the prepper needs, the static Query to execute,
// and the Basic pushdown seeds the rewrite discovered.
type Plan struct {
	Original algebra.GraphPattern
	Static   algebra.Query
	Basics   []*tsquery.Basic
}
