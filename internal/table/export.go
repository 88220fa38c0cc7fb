package table

import (
	"strings"
)

// looksLikeCSVLines is how many lines LooksLikeCSV inspects.
const looksLikeCSVLines = 5

// Export renders the table as quoted comma-delimited text: the header line,
// then one line per row. Values are wrapped in quotes without escaping quotes
// they already contain, so text with literal quotes does not round-trip.
func Export(t Table) string {
	var b strings.Builder
	writeLine(&b, t.Headers)
	values := make([]string, len(t.Headers))
	for _, r := range t.Rows {
		for i, h := range t.Headers {
			values[i] = r[h]
		}
		b.WriteByte('\n')
		writeLine(&b, values)
	}
	return b.String()
}

func writeLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(f)
		b.WriteByte('"')
	}
}

// FromRecords builds a table from a header record and data records, applying
// the same header recovery and row shaping as Parse.
func FromRecords(header []string, records [][]string) Table {
	opts := DefaultOptions()
	headers := processHeaders(header, opts)
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row, empty := buildRow(headers, rec, opts)
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return Table{Headers: headers, Rows: rows, RowCount: len(rows)}
}

// WithRows returns a table with t's headers and the given rows.
func (t Table) WithRows(rows []Row) Table {
	return t.withRows(rows)
}

// LooksLikeCSV reports whether text has at least two non-empty lines and the
// first few agree on their comma count within one.
func LooksLikeCSV(text string) bool {
	lines := splitLines(text)
	if len(lines) < 2 {
		return false
	}
	if len(lines) > looksLikeCSVLines {
		lines = lines[:looksLikeCSVLines]
	}
	want := strings.Count(lines[0], ",")
	for _, line := range lines[1:] {
		diff := strings.Count(line, ",") - want
		if diff < -1 || diff > 1 {
			return false
		}
	}
	return true
}
