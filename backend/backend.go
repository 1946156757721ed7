// Package backend defines C6, the Time-Series Back-End Interface from
// spec.md §4.6: a single opaque operation the orchestrator calls once per
// top-level tsquery.Query. Implementations may translate the composite
// query to SQL, OPC UA history calls, or anything else; the core never
// inspects how.
//
// Grounded on janus-datalog's storage.Database interface boundary
// (datalog/storage/database.go), which plays the identical role: a single
// narrow interface the planner/executor depend on, with concrete storage
// engines living in sibling packages.
package backend

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/wbrown/hybridgraph/tsquery"
)

// Queryable executes one time-series query and returns a result frame
// whose columns include the identifier variable, the timestamp variable
// (if present), the value variable (if present), and any aggregate output
// variables — exactly spec.md §4.6's contract. The caller owns the
// returned Record and must Release it.
type Queryable interface {
	Execute(ctx context.Context, q tsquery.Query) (arrow.Record, error)
}
