package core

import (
	"errors"
	"testing"
	"time"
)

func TestDefinitionValidate(t *testing.T) {
	good := CustomSummaryDefinition{Name: "Client A", DateStart: "2025-01-01", DateEnd: "2025-12-31"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		def  CustomSummaryDefinition
		want error
	}{
		{CustomSummaryDefinition{Name: " "}, ErrEmptyName},
		{CustomSummaryDefinition{Name: "x", DateStart: "yesterday-ish"}, ErrInvalidDateBound},
		{CustomSummaryDefinition{Name: "x", DateStart: "2025-02-01", DateEnd: "2025-01-01"}, ErrDateBoundsOrder},
	}
	for i, tc := range cases {
		if err := tc.def.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestDefinitionBoundsDateOnlyEndCoversDay(t *testing.T) {
	d := CustomSummaryDefinition{Name: "x", DateStart: "2025-08-07", DateEnd: "2025-08-07"}
	start, end, err := d.Bounds()
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	late := time.Date(2025, time.August, 7, 23, 13, 0, 0, time.UTC)
	if late.Before(start) || late.After(end) {
		t.Fatalf("expected %v within [%v, %v]", late, start, end)
	}
}

func TestDefinitionBoundsTimestamp(t *testing.T) {
	d := CustomSummaryDefinition{Name: "x", DateEnd: "07/Aug/2025 20:00"}
	start, end, err := d.Bounds()
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	if !start.IsZero() {
		t.Fatalf("expected open start, got %v", start)
	}
	if end.Hour() != 20 || end.Minute() != 0 {
		t.Fatalf("expected exact end bound, got %v", end)
	}
}

func TestTimeMatchesOverride(t *testing.T) {
	d := CustomSummaryDefinition{ReasonMatches: []string{"a"}}
	if got := d.TimeMatches(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected reason matches, got %v", got)
	}
	d.TimeReasonMatches = []string{"b"}
	if got := d.TimeMatches(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected override, got %v", got)
	}
}

func TestNewDefinitionAndEnsureID(t *testing.T) {
	d := NewDefinition("n")
	if d.ID == "" || d.Name != "n" {
		t.Fatalf("unexpected definition %+v", d)
	}
	var empty CustomSummaryDefinition
	empty.EnsureID()
	if empty.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	keep := CustomSummaryDefinition{ID: "fixed"}
	keep.EnsureID()
	if keep.ID != "fixed" {
		t.Fatalf("expected id to be kept, got %q", keep.ID)
	}
}

func TestFindDefinition(t *testing.T) {
	defs := []CustomSummaryDefinition{{ID: "a"}, {ID: "b"}}
	if FindDefinition(defs, "b") != 1 || FindDefinition(defs, "z") != -1 {
		t.Fatalf("unexpected lookup results")
	}
}

func TestParseDateBound(t *testing.T) {
	if got, err := ParseDateBound("  ", true); err != nil || !got.IsZero() {
		t.Fatalf("blank bound should be open, got %v %v", got, err)
	}
	start, err := ParseDateBound("2025-08-07", false)
	if err != nil || start.Hour() != 0 {
		t.Fatalf("start bound: %v %v", start, err)
	}
	end, err := ParseDateBound("2025-08-07", true)
	if err != nil || end.Hour() != 23 || end.Day() != 7 {
		t.Fatalf("end bound: %v %v", end, err)
	}
	if _, err := ParseDateBound("not a date", false); !errors.Is(err, ErrInvalidDateBound) {
		t.Fatalf("expected ErrInvalidDateBound, got %v", err)
	}
}
