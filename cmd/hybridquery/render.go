package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/hybridgraph/frame"
)

// renderTable prints rec as a markdown table, grounded on
// datalog/executor/table_formatter.go's tablewriter usage: a
// WithRenderer(renderer.NewMarkdown()) table with headers highlighted the
// way datalog/annotations/relation_renderer.go colors relation headers.
func renderTable(w io.Writer, rec arrow.Record) error {
	names := frame.ColumnNames(rec)
	if rec.NumRows() == 0 {
		fmt.Fprintf(w, "_Columns: %s_\n\n_No rows_\n", strings.Join(names, ", "))
		return nil
	}

	alignment := make([]tw.Align, len(names))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	headers := make([]string, len(names))
	for i, n := range names {
		headers[i] = color.CyanString(n)
	}
	table.Header(headers)

	for row := 0; row < int(rec.NumRows()); row++ {
		line := make([]string, len(names))
		for col := range names {
			line[col] = formatCell(rec, col, row)
		}
		table.Append(line)
	}
	table.Render()

	fmt.Fprintf(w, "\n%s\n", color.BlueString("%d rows", rec.NumRows()))
	return nil
}

func formatCell(rec arrow.Record, col, row int) string {
	v, ok := frame.AnyValue(rec, col, row)
	if !ok {
		return "null"
	}
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%.4f", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
