package table

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tally/internal/core"
)

// Stats summarizes the numeric values of a column.
type Stats struct {
	Count   int
	Invalid int // non-blank values that are not amounts
	Sum     float64
	Average float64
	Min     float64
	Max     float64
}

// Column returns the values of header in row order.
func (t Table) Column(header string) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[header]
	}
	return out
}

// Filter returns the rows for which keep returns true.
func (t Table) Filter(keep func(Row) bool) Table {
	var rows []Row
	for _, r := range t.Rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return t.withRows(rows)
}

// SortBy orders rows by header using English collation. The sort is stable.
func (t Table) SortBy(header string, descending bool) Table {
	return t.SortByLocale(header, language.English, descending)
}

// SortByLocale orders rows by header using the collation rules of tag.
func (t Table) SortByLocale(header string, tag language.Tag, descending bool) Table {
	rows := append([]Row(nil), t.Rows...)
	c := collate.New(tag)
	sort.SliceStable(rows, func(i, j int) bool {
		cmp := c.CompareString(rows[i][header], rows[j][header])
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
	return t.withRows(rows)
}

// Search keeps rows where any value contains term, ignoring case.
// An empty term keeps every row.
func (t Table) Search(term string) Table {
	needle := strings.ToLower(term)
	if needle == "" {
		return t.withRows(append([]Row(nil), t.Rows...))
	}
	return t.Filter(func(r Row) bool {
		for _, v := range r {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	})
}

// UniqueValues returns the distinct non-empty values of header in first-seen order.
func (t Table) UniqueValues(header string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range t.Rows {
		v := r[header]
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// NumericStats aggregates the values of header that parse as amounts.
// Values that do not parse are left out of every figure and counted as
// Invalid unless blank.
func (t Table) NumericStats(header string) Stats {
	var s Stats
	for _, r := range t.Rows {
		raw := r[header]
		if !core.IsAmount(raw) {
			if strings.TrimSpace(raw) != "" {
				s.Invalid++
			}
			continue
		}
		v := core.ParseAmount(raw)
		if s.Count == 0 || v < s.Min {
			s.Min = v
		}
		if s.Count == 0 || v > s.Max {
			s.Max = v
		}
		s.Count++
		s.Sum += v
	}
	if s.Count > 0 {
		s.Average = s.Sum / float64(s.Count)
	}
	return s
}
