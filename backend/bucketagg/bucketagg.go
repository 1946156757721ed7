// Package bucketagg is a second reference backend.Queryable, adapted from
// original_source's hybrid/tests/opcua_data_provider.rs floor-division
// bucketing logic (`timestamp / interval, floored, * interval`),
// generalized away from the OPC UA wire format (explicitly out of scope
// per spec.md §1) into a plain Go backend any columnar/history-style
// store could sit behind: it buckets points into fixed time windows and
// applies one AggregationType per bucket.
package bucketagg

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/tsquery"
)

// Point is one raw data point keyed by external id.
type Point struct {
	ID        string
	Timestamp time.Time
	Value     float64
}

// Backend buckets Points into fixed-width time windows before answering a
// tsquery.Grouped query; Basic queries are answered ungrouped, and every
// other query shape (Filtered, InnerSynchronized) is rejected with an error.
type Backend struct {
	Points   []Point
	Interval time.Duration
}

// New constructs a Backend bucketing by interval.
func New(points []Point, interval time.Duration) *Backend {
	return &Backend{Points: points, Interval: interval}
}

func (b *Backend) floor(t time.Time) time.Time {
	if b.Interval <= 0 {
		return t
	}
	n := t.UnixNano() / int64(b.Interval)
	return time.Unix(0, n*int64(b.Interval)).UTC()
}

// Execute implements backend.Queryable.
func (b *Backend) Execute(ctx context.Context, q tsquery.Query) (arrow.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch n := q.(type) {
	case *tsquery.Basic:
		return b.executeBasic(n)
	case *tsquery.Filtered:
		return nil, fmt.Errorf("bucketagg: Filtered queries are not supported by this backend, only pre-bucketed Grouped queries")
	case *tsquery.Grouped:
		return b.executeGrouped(n)
	default:
		return nil, fmt.Errorf("bucketagg: unsupported query type %T", q)
	}
}

func (b *Backend) pointsForIDs(ids []string) []Point {
	if len(ids) == 0 {
		return b.Points
	}
	set := map[string]bool{}
	for _, id := range ids {
		set[id] = true
	}
	var out []Point
	for _, p := range b.Points {
		if set[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func (b *Backend) executeBasic(n *tsquery.Basic) (arrow.Record, error) {
	pts := b.pointsForIDs(n.IDs)
	cols := []frame.Column{}
	if n.IdentifierVar != nil {
		c := frame.Column{Name: (*n.IdentifierVar).String(), Kind: arrow.STRING}
		for _, p := range pts {
			c.Strings = append(c.Strings, p.ID)
		}
		cols = append(cols, c)
	}
	if n.TimestampVar != nil {
		c := frame.Column{Name: (*n.TimestampVar).String(), Kind: arrow.TIMESTAMP}
		for _, p := range pts {
			c.Timestamps = append(c.Timestamps, p.Timestamp)
		}
		cols = append(cols, c)
	}
	if n.ValueVar != nil {
		c := frame.Column{Name: (*n.ValueVar).String(), Kind: arrow.FLOAT64}
		for _, p := range pts {
			c.Floats = append(c.Floats, p.Value)
		}
		cols = append(cols, c)
	}
	return frame.Build(cols)
}

func (b *Backend) executeGrouped(n *tsquery.Grouped) (arrow.Record, error) {
	basic, ok := n.Inner.(*tsquery.Basic)
	if !ok {
		return nil, fmt.Errorf("bucketagg: Grouped must wrap a Basic query directly")
	}
	pts := b.pointsForIDs(basic.IDs)

	type bucketKey struct {
		id     string
		bucket time.Time
	}
	groupByID := false
	for _, v := range n.By {
		if basic.IdentifierVar != nil && v == *basic.IdentifierVar {
			groupByID = true
		}
	}

	buckets := map[bucketKey][]float64{}
	var order []bucketKey
	for _, p := range pts {
		key := bucketKey{bucket: b.floor(p.Timestamp)}
		if groupByID {
			key.id = p.ID
		}
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], p.Value)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].bucket.Equal(order[j].bucket) {
			return order[i].id < order[j].id
		}
		return order[i].bucket.Before(order[j].bucket)
	})

	idCol := frame.Column{Name: "", Kind: arrow.STRING}
	if basic.IdentifierVar != nil {
		idCol.Name = (*basic.IdentifierVar).String()
	}
	tsCol := frame.Column{Kind: arrow.TIMESTAMP}
	if basic.TimestampVar != nil {
		tsCol.Name = (*basic.TimestampVar).String()
	}
	aggCols := make([]frame.Column, len(n.Aggregates))
	for i, a := range n.Aggregates {
		aggCols[i] = frame.Column{Name: a.OutputVar.String(), Kind: arrow.FLOAT64}
	}

	for _, key := range order {
		values := buckets[key]
		if basic.IdentifierVar != nil {
			idCol.Strings = append(idCol.Strings, key.id)
		}
		if basic.TimestampVar != nil {
			tsCol.Timestamps = append(tsCol.Timestamps, key.bucket)
		}
		for i, a := range n.Aggregates {
			aggCols[i].Floats = append(aggCols[i].Floats, aggregate(a.Type, values))
		}
	}

	var cols []frame.Column
	if basic.IdentifierVar != nil {
		cols = append(cols, idCol)
	}
	if basic.TimestampVar != nil {
		cols = append(cols, tsCol)
	}
	cols = append(cols, aggCols...)
	return frame.Build(cols)
}

func aggregate(kind tsquery.AggregationType, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch kind {
	case tsquery.AggFirst:
		return values[0]
	case tsquery.AggLast:
		return values[len(values)-1]
	case tsquery.AggMin:
		m := values[0]
		for _, v := range values {
			if v < m {
				m = v
			}
		}
		return m
	case tsquery.AggMax:
		m := values[0]
		for _, v := range values {
			if v > m {
				m = v
			}
		}
		return m
	case tsquery.AggSum:
		s := 0.0
		for _, v := range values {
			s += v
		}
		return s
	case tsquery.AggMean:
		s := 0.0
		for _, v := range values {
			s += v
		}
		return s / float64(len(values))
	case tsquery.AggCount:
		return float64(len(values))
	default:
		return 0
	}
}
