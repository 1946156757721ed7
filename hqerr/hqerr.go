// Package hqerr defines the four error kinds spec.md §7 names: ParseError,
// StaticExecutionError, BackendExecutionError, and PushdownAbandoned. Each
// wraps an underlying cause with %w so callers can still errors.Is/As
// through to it; the kind itself is what lets orchestrator log and the CLI
// report which stage failed without string-matching messages.
//
// Grounded on janus-datalog's planner/executor error wrapping style
// (e.g. planner.rewriteCorrelatedAggregates's wrapped sentinel errors) —
// no third-party error library appears anywhere in the retrieval pack, so
// this stays on stdlib errors/fmt per SPEC_FULL.md §1's ambient-stack
// justification.
package hqerr

import "fmt"

// ParseError wraps a failure to parse the input query text, including
// rejection of an unsupported construct (DATASET/FROM, BASE IRI).
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %v", e.Cause) }
func (e *ParseError) Unwrap() error { return e.Cause }

// NewParseError wraps cause as a ParseError.
func NewParseError(cause error) *ParseError { return &ParseError{Cause: cause} }

// StaticExecutionError wraps a failure talking to, or parsing results
// from, the static SPARQL transport: network errors, a non-200 response,
// JSON/solution parsing failures, or an unsupported identifier datatype.
type StaticExecutionError struct {
	Cause error
}

func (e *StaticExecutionError) Error() string { return fmt.Sprintf("static execution error: %v", e.Cause) }
func (e *StaticExecutionError) Unwrap() error { return e.Cause }

// NewStaticExecutionError wraps cause as a StaticExecutionError.
func NewStaticExecutionError(cause error) *StaticExecutionError {
	return &StaticExecutionError{Cause: cause}
}

// BackendExecutionError wraps an opaque failure surfaced by a
// backend.Queryable implementation. The core never inspects its contents.
type BackendExecutionError struct {
	Cause error
}

func (e *BackendExecutionError) Error() string { return fmt.Sprintf("backend execution error: %v", e.Cause) }
func (e *BackendExecutionError) Unwrap() error { return e.Cause }

// NewBackendExecutionError wraps cause as a BackendExecutionError.
func NewBackendExecutionError(cause error) *BackendExecutionError {
	return &BackendExecutionError{Cause: cause}
}

// PushdownAbandoned reports that the change types of a node's children
// could not be combined into one; rewrite returns it from its Join,
// LeftJoin, Union and Minus rules. Nothing in this module recovers from
// it: the rewrite of the whole query fails, and orchestrator returns the
// error to its caller wrapped in a ParseError.
type PushdownAbandoned struct {
	Reason string
}

func (e *PushdownAbandoned) Error() string { return fmt.Sprintf("pushdown abandoned: %s", e.Reason) }

// NewPushdownAbandoned builds a PushdownAbandoned with reason.
func NewPushdownAbandoned(reason string) *PushdownAbandoned {
	return &PushdownAbandoned{Reason: reason}
}

// ErrUnsupportedIDDatatype is returned when a static result binds an
// ExternalTimeseries-derived identifier variable to a literal whose
// datatype is not xsd:string. spec.md §9 leaves this unspecified in the
// original source (marked todo!); SPEC_FULL.md §5 resolves it as a fatal,
// clearly-named error surfaced as a StaticExecutionError rather than a
// panic.
type ErrUnsupportedIDDatatype struct {
	Variable string
	Datatype string
}

func (e *ErrUnsupportedIDDatatype) Error() string {
	return fmt.Sprintf("variable %s bound to identifier with unsupported datatype %s (only xsd:string is supported)", e.Variable, e.Datatype)
}
