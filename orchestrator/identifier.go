package orchestrator

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/hqerr"
	"github.com/wbrown/hybridgraph/tsquery"
)

// stringTypeName renders an Arrow type's name for ErrUnsupportedIDDatatype,
// which spec.md §9's resolution (SPEC_FULL.md §5) only names as a "fatal,
// clearly-named error" — the exact message format is this package's call.
func stringTypeName(t arrow.DataType) string { return t.Name() }

// completeIdentifiers implements spec.md §4.8's identifier-completion
// step: after the static query executes, each Basic's injected
// ts_external_id_{n} column holds the resolved external identifiers it
// ranges over. This reads that column back out of the static result and
// populates Basic.IDs, deduplicated in first-seen order so a join that
// produced the same identifier on several static rows doesn't turn into a
// backend query ranging over duplicate IDs.
func completeIdentifiers(basics []*tsquery.Basic, static arrow.Record) error {
	for _, b := range basics {
		if b.IdentifierVar == nil {
			continue
		}
		idx := frame.ColumnIndex(static, b.IdentifierVar.String())
		if idx < 0 {
			continue
		}
		col := static.Column(idx)
		if col.DataType().ID() != arrow.STRING {
			return &hqerr.ErrUnsupportedIDDatatype{
				Variable: b.IdentifierVar.String(),
				Datatype: stringTypeName(col.DataType()),
			}
		}
		seen := map[string]bool{}
		var ids []string
		for row := 0; row < int(static.NumRows()); row++ {
			s, ok := frame.StringValue(static, idx, row)
			if !ok {
				continue // null in this row: the join didn't bind an id here
			}
			if !seen[s] {
				seen[s] = true
				ids = append(ids, s)
			}
		}
		b.IDs = ids
	}
	return nil
}
