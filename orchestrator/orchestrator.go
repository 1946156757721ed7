// Package orchestrator implements C8, the top-level pipeline from
// spec.md §4.8: parse, infer, rewrite, execute the static residue,
// complete each Basic query's identifiers from that result, prep the
// original algebra against it, execute every resulting time-series query
// against a backend, and combine everything into the final result frame.
//
// Grounded on the teacher's cmd/datalog/main.go, which wires the same
// kind of pipeline (parse -> open storage -> executor.Execute) behind a
// single entry point with flag-configured options; here the options
// become an Option slice rather than package-level flag.Var calls since
// this is a library entry point, not a CLI main, but the "small number of
// independently toggled knobs threaded through one call" shape is the
// same one the teacher's -decorrelate/-verbose flags provide to its own
// executor.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/backend"
	"github.com/wbrown/hybridgraph/combiner"
	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/hqerr"
	"github.com/wbrown/hybridgraph/prepper"
	"github.com/wbrown/hybridgraph/pushdown"
	"github.com/wbrown/hybridgraph/rewrite"
	"github.com/wbrown/hybridgraph/rewritecache"
	"github.com/wbrown/hybridgraph/sparqlparse"
	"github.com/wbrown/hybridgraph/staticsparql"
	"github.com/wbrown/hybridgraph/tsquery"
	"github.com/wbrown/hybridgraph/typeinfer"
)

// Orchestrator holds the collaborators a query execution needs: the
// static endpoint, the time-series backend, and the cross-cutting options
// (logger, pushdown settings, rewrite cache) that apply to every query it
// runs.
type Orchestrator struct {
	static  staticsparql.Executor
	backend backend.Queryable

	logger   *zap.Logger
	settings pushdown.Settings
	cache    *rewritecache.Cache
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithLogger attaches a zap.Logger for per-stage diagnostics. The default
// is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithPushdownSettings overrides the default (every-pushdown-enabled)
// pushdown.Settings consulted by the prepper.
func WithPushdownSettings(s pushdown.Settings) Option {
	return func(o *Orchestrator) { o.settings = s }
}

// WithRewriteCache attaches a rewritecache.Cache so repeated query text
// skips parse/infer/rewrite on a hit. Caching is opt-in: without this
// option every call re-parses and re-rewrites from scratch.
func WithRewriteCache(c *rewritecache.Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// New constructs an Orchestrator over a static SPARQL executor and a
// time-series backend.
func New(static staticsparql.Executor, be backend.Queryable, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		static:   static,
		backend:  be,
		logger:   zap.NewNop(),
		settings: pushdown.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute is the package entry point spec.md §4.8 describes: it runs
// queryText end to end and returns the combined result frame. The caller
// owns the returned Record and must Release it.
func (o *Orchestrator) Execute(ctx context.Context, queryText string) (arrow.Record, error) {
	log := o.logger.With(
		zap.String("query_id", uuid.NewString()),
		zap.Int("query_len", len(queryText)),
	)

	original, staticQuery, basics, err := o.planQuery(queryText)
	if err != nil {
		return nil, err
	}
	log.Debug("rewrite complete", zap.Int("basics", len(basics)))

	solutions, err := o.static.Execute(ctx, staticQuery.Pattern.String())
	if err != nil {
		return nil, err // already a *hqerr.StaticExecutionError
	}
	staticVars := algebra.Variables(staticQuery.Pattern)
	staticResult, err := solutionsToRecord(staticVars, solutions)
	if err != nil {
		return nil, hqerr.NewStaticExecutionError(err)
	}
	defer frame.Release(staticResult)
	log.Debug("static query executed", zap.Int64("rows", staticResult.NumRows()))

	if err := completeIdentifiers(basics, staticResult); err != nil {
		return nil, hqerr.NewStaticExecutionError(err)
	}

	queries, err := prepper.New(basics, staticResult, o.settings).Prep(original)
	if err != nil {
		return nil, err
	}
	log.Debug("prep complete", zap.Int("timeseries_queries", len(queries)))

	results := make([]tsquery.ResultPair, 0, len(queries))
	for i, q := range queries {
		rec, err := o.backend.Execute(ctx, q)
		if err != nil {
			return nil, hqerr.NewBackendExecutionError(fmt.Errorf("query %d: %w", i, err))
		}
		results = append(results, tsquery.ResultPair{Query: q, Frame: rec})
	}
	defer func() {
		for _, r := range results {
			if rec, ok := r.Frame.(arrow.Record); ok {
				frame.Release(rec)
			}
		}
	}()

	out, err := combiner.New().Combine(original, staticResult, results)
	if err != nil {
		return nil, err
	}
	log.Debug("combine complete", zap.Int64("rows", out.NumRows()))
	return out, nil
}

// planQuery runs parse/infer/rewrite, consulting the rewrite cache first
// if one is configured. It returns the original (inferred but unrewritten)
// pattern the prepper needs, the static Query to execute, and the Basic
// pushdown seeds the rewrite discovered.
func (o *Orchestrator) planQuery(queryText string) (algebra.GraphPattern, algebra.Query, []*tsquery.Basic, error) {
	if o.cache != nil {
		if plan, ok := o.cache.Get(queryText, o.settings); ok {
			return plan.Original, plan.Static, plan.Basics, nil
		}
	}

	parsed, err := sparqlparse.ParseQuery(queryText)
	if err != nil {
		return nil, algebra.Query{}, nil, err
	}

	constraints, inferred, err := typeinfer.Infer(parsed)
	if err != nil {
		return nil, algebra.Query{}, nil, hqerr.NewParseError(err)
	}

	staticQuery, basics, err := rewrite.NewRewriter(constraints).Rewrite(inferred)
	if err != nil {
		return nil, algebra.Query{}, nil, hqerr.NewParseError(err)
	}

	if o.cache != nil {
		o.cache.Put(queryText, o.settings, rewritecache.Plan{
			Original: inferred,
			Static:   staticQuery,
			Basics:   basics,
		})
	}
	return inferred, staticQuery, basics, nil
}
