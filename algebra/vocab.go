package algebra

// Reserved vocabulary (spec.md §6) distinguishing time-series structure
// from static graph structure. Mirrors original_source's const_uris.rs.
const NSPrefix = "https://github.com/wbrown/hybridgraph#"

var (
	HasTimeseries = NamedNode{IRI: NSPrefix + "hasTimeseries"}
	HasDataPoint  = NamedNode{IRI: NSPrefix + "hasDataPoint"}
	HasTimestamp  = NamedNode{IRI: NSPrefix + "hasTimestamp"}
	HasValue      = NamedNode{IRI: NSPrefix + "hasValue"}
	HasExternalID = NamedNode{IRI: NSPrefix + "hasExternalId"}

	RDFType = NamedNode{IRI: "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"}
)

// xsd datatype IRIs used when classifying literals.
var (
	XSDString   = NamedNode{IRI: "http://www.w3.org/2001/XMLSchema#string"}
	XSDDateTime = NamedNode{IRI: "http://www.w3.org/2001/XMLSchema#dateTime"}
	XSDInteger  = NamedNode{IRI: "http://www.w3.org/2001/XMLSchema#integer"}
	XSDDouble   = NamedNode{IRI: "http://www.w3.org/2001/XMLSchema#double"}
	XSDBoolean  = NamedNode{IRI: "http://www.w3.org/2001/XMLSchema#boolean"}
)

// Datetime aggregation helper function IRIs (spec.md §6), used as
// FunctionCall names inside Extend/Filter expressions attached to a
// Grouped time-series pushdown.
const (
	FuncDateTimeAsNanos   = NSPrefix + "DateTimeAsNanos"
	FuncNanosAsDateTime   = NSPrefix + "NanosAsDateTime"
	FuncDateTimeAsSeconds = NSPrefix + "DateTimeAsSeconds"
	FuncSecondsAsDateTime = NSPrefix + "SecondsAsDateTime"
	FuncNestAggregation   = NSPrefix + "nestAggregation"
)

// ReservedPredicate reports whether n is one of the four triple-shaped
// reserved predicates consulted by type inference (hasExternalId is never
// matched here: it is injected by the rewriter, never present in input).
func ReservedPredicate(n NamedNode) bool {
	switch n {
	case HasTimeseries, HasDataPoint, HasTimestamp, HasValue:
		return true
	default:
		return false
	}
}
