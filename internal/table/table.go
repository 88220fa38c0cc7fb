// Package table turns quoted, comma-delimited text into a generic header/row
// table and back.
package table

// Header names given to blank header cells.
const (
	FirstColumnName   = "TransactionID"
	ColumnNamePattern = "Column%d"
)

// Row maps a header name to its cell value. Looking up an unknown header
// yields "". When headers repeat, the last positional value wins.
type Row map[string]string

// Get returns the value for header, "" when absent.
func (r Row) Get(header string) string {
	return r[header]
}

// Table is the parsed form of a delimited text. RowCount == len(Rows).
type Table struct {
	Headers  []string
	Rows     []Row
	RowCount int
}

// Options controls how text is turned into a Table.
type Options struct {
	// SkipEmptyRows drops data rows whose values are all empty.
	SkipEmptyRows bool
	// TrimWhitespace trims surrounding whitespace from headers and values.
	TrimWhitespace bool
	// HandleEmptyHeaders names blank headers TransactionID (first column) or
	// Column<N+1>.
	HandleEmptyHeaders bool
}

// DefaultOptions returns the options used by Parse.
func DefaultOptions() Options {
	return Options{
		SkipEmptyRows:      true,
		TrimWhitespace:     true,
		HandleEmptyHeaders: true,
	}
}

// Empty returns a table with no headers and no rows.
func Empty() Table {
	return Table{Headers: []string{}, Rows: []Row{}}
}

// withRows returns a table sharing t's headers with the given rows.
func (t Table) withRows(rows []Row) Table {
	if rows == nil {
		rows = []Row{}
	}
	return Table{Headers: t.Headers, Rows: rows, RowCount: len(rows)}
}
