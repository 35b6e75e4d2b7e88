// Package output renders query results as an ASCII table or as CSV.
package output

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
)

// nullValue is substituted for a nil cell; go-pretty's table writer does not
// accept raw nil pointers in row data.
const nullValue = "NULL"

// WriteTable renders header+rows as an ASCII table to w.
func WriteTable(w io.Writer, header []string, rows [][]any) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.Style().Format.Header = text.FormatDefault

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			if v == nil {
				r[i] = nullValue
			} else {
				r[i] = v
			}
		}
		t.AppendRow(r)
	}
	t.Render()
}

// WriteSummary prints the row-count summary line shown after every query.
func WriteSummary(w io.Writer, rowCount int) {
	switch rowCount {
	case 0:
		fmt.Fprintln(w, "Empty set")
	case 1:
		fmt.Fprintln(w, "1 row in set")
	default:
		fmt.Fprintf(w, "%d rows in set\n", rowCount)
	}
}
