package table

import (
	"reflect"
	"strings"
	"testing"
)

func sample() Table {
	return Parse(`"Name","City","Amount"
"bob","Rome","$10"
"Alice","paris","-$2.50"
"carl","Rome","n/a"
"alice","","$4"`)
}

func TestColumn(t *testing.T) {
	got := sample().Column("City")
	want := []string{"Rome", "paris", "Rome", ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFilter(t *testing.T) {
	tbl := sample().Filter(func(r Row) bool { return r["City"] == "Rome" })
	if tbl.RowCount != 2 || len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.RowCount)
	}
	none := sample().Filter(func(Row) bool { return false })
	if none.RowCount != 0 || none.Rows == nil {
		t.Fatalf("expected empty non-nil rows, got %+v", none)
	}
}

func TestSortByCollation(t *testing.T) {
	asc := sample().SortBy("Name", false).Column("Name")
	if !reflect.DeepEqual(asc, []string{"alice", "Alice", "bob", "carl"}) {
		t.Fatalf("unexpected ascending order %v", asc)
	}
	desc := sample().SortBy("Name", true).Column("Name")
	if desc[0] != "carl" || desc[3] != "alice" {
		t.Fatalf("unexpected descending order %v", desc)
	}
}

func TestSortDoesNotMutate(t *testing.T) {
	tbl := sample()
	_ = tbl.SortBy("Name", false)
	if tbl.Rows[0]["Name"] != "bob" {
		t.Fatalf("sort must not reorder the source table")
	}
}

func TestSearch(t *testing.T) {
	if got := sample().Search("ROME").RowCount; got != 2 {
		t.Fatalf("expected 2 matches, got %d", got)
	}
	if got := sample().Search("").RowCount; got != 4 {
		t.Fatalf("empty term keeps all rows, got %d", got)
	}
	if got := sample().Search("zzz").RowCount; got != 0 {
		t.Fatalf("expected no matches, got %d", got)
	}
}

func TestUniqueValues(t *testing.T) {
	got := sample().UniqueValues("City")
	if !reflect.DeepEqual(got, []string{"Rome", "paris"}) {
		t.Fatalf("got %v", got)
	}
}

func TestNumericStats(t *testing.T) {
	s := sample().NumericStats("Amount")
	if s.Count != 3 || s.Invalid != 1 {
		t.Fatalf("expected non-numeric value excluded, count=%d invalid=%d", s.Count, s.Invalid)
	}
	if s.Sum != 11.5 || s.Min != -2.5 || s.Max != 10 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if s.Average < 3.83 || s.Average > 3.84 {
		t.Fatalf("unexpected average %v", s.Average)
	}
	if city := sample().NumericStats("City"); city != (Stats{Invalid: 3}) {
		t.Fatalf("expected only invalid values, got %+v", city)
	}
}

func TestExportRoundTrip(t *testing.T) {
	tbl := Parse(bankExport)
	out := Export(tbl)
	if !strings.HasPrefix(out, `"TransactionID","From","Routing","Reason","Amount","Balance","Date"`) {
		t.Fatalf("unexpected header line: %s", out)
	}
	again := Parse(out)
	if !reflect.DeepEqual(again.Headers, tbl.Headers) || !reflect.DeepEqual(again.Rows, tbl.Rows) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", tbl, again)
	}
	if Export(again) != out {
		t.Fatalf("export is not stable across a round trip")
	}
}

func TestExportDoesNotEscapeQuotes(t *testing.T) {
	tbl := Table{Headers: []string{"a"}, Rows: []Row{{"a": `say "hi"`}}, RowCount: 1}
	if got := Export(tbl); got != "\"a\"\n\"say \"hi\"\"" {
		t.Fatalf("unexpected export %q", got)
	}
}

func TestFromRecords(t *testing.T) {
	tbl := FromRecords([]string{"", "From"}, [][]string{{"1", "Bob"}, {"", ""}, {"2"}})
	if !reflect.DeepEqual(tbl.Headers, []string{"TransactionID", "From"}) {
		t.Fatalf("unexpected headers %v", tbl.Headers)
	}
	if tbl.RowCount != 2 || tbl.Rows[1]["From"] != "" {
		t.Fatalf("unexpected rows %+v", tbl.Rows)
	}
}

func TestLooksLikeCSV(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{bankExport, true},
		{"a,b,c\n1,2", true},
		{"a,b,c\n1", false},
		{"only one line", false},
		{"", false},
		{"a,b\n\n1,2\n", true},
	}
	for _, tc := range cases {
		if got := LooksLikeCSV(tc.in); got != tc.want {
			t.Fatalf("LooksLikeCSV(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
