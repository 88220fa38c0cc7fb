package table

import (
	"fmt"
	"strings"
)

// Parse builds a Table from text using DefaultOptions.
func Parse(text string) Table {
	return ParseWithOptions(text, DefaultOptions())
}

// ParseWithOptions builds a Table from text.
//
// Blank and whitespace-only lines are discarded before tokenizing. The first
// remaining line supplies the headers, every other line one row. Missing
// trailing fields become "" and extra fields are dropped.
func ParseWithOptions(text string, opts Options) Table {
	lines := splitLines(text)
	if len(lines) == 0 {
		return Empty()
	}

	headers := processHeaders(Tokenize(lines[0]), opts)
	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		row, empty := buildRow(headers, Tokenize(line), opts)
		if empty && opts.SkipEmptyRows {
			continue
		}
		rows = append(rows, row)
	}
	return Table{Headers: headers, Rows: rows, RowCount: len(rows)}
}

// Tokenize splits one line into fields. A quote toggles quoted mode, except
// that a doubled quote inside quoted mode yields one literal quote. Commas
// outside quotes end a field. The last field is always emitted.
func Tokenize(line string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && quoted && i+1 < len(line) && line[i+1] == '"':
			current.WriteByte('"')
			i++
		case c == '"':
			quoted = !quoted
		case c == ',' && !quoted:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	return append(fields, current.String())
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func processHeaders(tokens []string, opts Options) []string {
	headers := make([]string, len(tokens))
	for i, h := range tokens {
		if opts.TrimWhitespace {
			h = strings.TrimSpace(h)
		}
		if opts.HandleEmptyHeaders && strings.TrimSpace(h) == "" {
			if i == 0 {
				h = FirstColumnName
			} else {
				h = fmt.Sprintf(ColumnNamePattern, i+1)
			}
		}
		headers[i] = h
	}
	return headers
}

// buildRow keys tokens by header position and reports whether every value is empty.
func buildRow(headers, tokens []string, opts Options) (Row, bool) {
	row := make(Row, len(headers))
	empty := true
	for i, h := range headers {
		v := ""
		if i < len(tokens) {
			v = tokens[i]
		}
		if opts.TrimWhitespace {
			v = strings.TrimSpace(v)
		}
		if strings.TrimSpace(v) != "" {
			empty = false
		}
		row[h] = v
	}
	return row, empty
}
