package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// point is the CLI's CSV row shape, converted into whichever reference
// backend's own Point type at construction time.
type point struct {
	ID        string
	Timestamp time.Time
	Value     float64
}

// loadPoints reads id,timestamp,value rows (RFC3339 timestamps) from a CSV
// file. No header row is expected. Returns an empty slice, not an error,
// when path is empty — a query with no matching time-series pattern can
// run against zero points.
//
// No CSV-parsing or fixture-format library appears anywhere in the
// retrieval pack for this shape, so this stays on stdlib encoding/csv
// rather than reaching for one.
func loadPoints(path string) ([]point, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	var points []point
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, row[1])
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", row[1], err)
		}
		v, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing value %q: %w", row[2], err)
		}
		points = append(points, point{ID: row[0], Timestamp: ts, Value: v})
	}
	return points, nil
}
