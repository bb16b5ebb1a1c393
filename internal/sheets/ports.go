// Package sheets renders reports as tables and writes them to spreadsheets.
package sheets

import (
	"context"
	"fmt"
)

// Table is a rendered report: a title line, a header row and data rows.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Values lays the table out as written to a sheet: title, a blank line, header, rows.
func (t Table) Values() [][]string {
	out := make([][]string, 0, len(t.Rows)+3)
	out = append(out, []string{t.Title}, []string{}, t.Header)
	return append(out, t.Rows...)
}

// Ports for outbound adapters.
type (
	// ReportWriter replaces the content of a sheet with t and returns the written range.
	ReportWriter interface {
		WriteTable(ctx context.Context, sheet string, t Table) (rangeRef string, err error)
	}
)

// A1Range is the range covering rows x cols from A1 on sheet.
func A1Range(sheet string, rows, cols int) string {
	if rows < 1 {
		rows = 1
	}
	return fmt.Sprintf("%s!A1:%s%d", sheet, columnName(max(cols, 1)), rows)
}

// columnName converts a 1-based column index into its letter form (1=A, 27=AA).
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

// Width is the widest row of values.
func Width(values [][]string) int {
	w := 0
	for _, row := range values {
		w = max(w, len(row))
	}
	return w
}
