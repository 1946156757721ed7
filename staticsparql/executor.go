// Package staticsparql implements C6's static half: executing the
// static-only residue of a rewritten query against an external SPARQL
// endpoint and decoding its results into the solution shape the rest of
// the pipeline consumes.
//
// Grounded on the teacher's habit of keeping network calls behind a small
// interface with exactly one production implementation (mirrors
// datalog/store.Store's relationship to its single on-disk Badger-backed
// implementation); the HTTP client itself is built on
// hashicorp/go-retryablehttp the way dolthub-go-mysql-server and
// jon-whit-openfga (other pack members) use it for outbound calls that
// should survive transient 5xxs, rather than hand-rolling retry/backoff
// over net/http.
package staticsparql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/hqerr"
)

// Solution is one SPARQL result-set row: a binding from variable to term.
type Solution map[algebra.Variable]algebra.Term

// Executor runs a static SPARQL query text against an endpoint and
// returns its solutions.
type Executor interface {
	Execute(ctx context.Context, queryText string) ([]Solution, error)
}

// HTTPExecutor is the production Executor: POSTs the query body with
// Content-Type: application/sparql-query per spec.md §6's wire contract,
// and accepts only HTTP 200 as success.
type HTTPExecutor struct {
	Endpoint string
	Client   *retryablehttp.Client
	Logger   *zap.Logger
}

// NewHTTPExecutor constructs an HTTPExecutor with a retryablehttp client
// configured for a handful of retries with exponential backoff, and a
// no-op logger unless overridden via Option.
func NewHTTPExecutor(endpoint string, opts ...Option) *HTTPExecutor {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil

	e := &HTTPExecutor{Endpoint: endpoint, Client: client, Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Option configures an HTTPExecutor.
type Option func(*HTTPExecutor)

// WithLogger attaches a zap.Logger for request-level diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *HTTPExecutor) { e.Logger = l }
}

// WithHTTPTimeout bounds each request attempt separately; the time spent
// across retries is not limited by it.
func WithHTTPTimeout(d time.Duration) Option {
	return func(e *HTTPExecutor) { e.Client.HTTPClient.Timeout = d }
}

// Execute implements Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, queryText string) ([]Solution, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, bytes.NewReader([]byte(queryText)))
	if err != nil {
		return nil, hqerr.NewStaticExecutionError(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/sparql-query")
	req.Header.Set("Accept", "application/sparql-results+json")

	e.Logger.Debug("executing static sparql query", zap.String("endpoint", e.Endpoint), zap.Int("query_len", len(queryText)))

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, hqerr.NewStaticExecutionError(fmt.Errorf("request to %s: %w", e.Endpoint, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, hqerr.NewStaticExecutionError(fmt.Errorf("endpoint %s returned status %d: %s", e.Endpoint, resp.StatusCode, body))
	}

	solutions, err := decodeResults(resp.Body)
	if err != nil {
		return nil, hqerr.NewStaticExecutionError(fmt.Errorf("decoding results from %s: %w", e.Endpoint, err))
	}
	e.Logger.Debug("static sparql query returned", zap.Int("rows", len(solutions)))
	return solutions, nil
}

// sparqlResultsJSON mirrors the W3C SPARQL 1.1 Query Results JSON Format.
type sparqlResultsJSON struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]jsonTerm `json:"bindings"`
	} `json:"results"`
}

type jsonTerm struct {
	Type     string `json:"type"` // "uri", "literal", "bnode"
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

func decodeResults(r io.Reader) ([]Solution, error) {
	var doc sparqlResultsJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	solutions := make([]Solution, 0, len(doc.Results.Bindings))
	for _, row := range doc.Results.Bindings {
		sol := Solution{}
		for v, t := range row {
			term, err := toTerm(t)
			if err != nil {
				return nil, err
			}
			sol[algebra.Variable(v)] = term
		}
		solutions = append(solutions, sol)
	}
	return solutions, nil
}

func toTerm(t jsonTerm) (algebra.Term, error) {
	switch t.Type {
	case "uri":
		return algebra.NamedNode{IRI: t.Value}, nil
	case "bnode":
		return algebra.BlankNode{ID: t.Value}, nil
	case "literal", "typed-literal":
		return algebra.Literal{Lexical: t.Value, Datatype: t.Datatype, Language: t.Lang}, nil
	default:
		return nil, fmt.Errorf("staticsparql: unrecognized result term type %q", t.Type)
	}
}
