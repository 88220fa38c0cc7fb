package core

import (
	"testing"
	"time"
)

func TestParseDateBankLayout(t *testing.T) {
	got, ok := ParseDate("07/Aug/2025 23:13")
	if !ok {
		t.Fatalf("expected bank date to parse")
	}
	want := time.Date(2025, time.August, 7, 23, 13, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseDateUnknownMonthFallsBackToJanuary(t *testing.T) {
	cases := []string{"07/aug/2025 10:00", "07/Foo/2025 10:00"}
	for _, in := range cases {
		got, ok := ParseDate(in)
		if !ok {
			t.Fatalf("%q expected to parse", in)
		}
		if got.Month() != time.January || got.Day() != 7 || got.Year() != 2025 {
			t.Fatalf("%q expected 7 Jan 2025, got %v", in, got)
		}
	}
}

func TestParseDateFallback(t *testing.T) {
	got, ok := ParseDate("2025-08-07")
	if !ok {
		t.Fatalf("expected ISO date to parse through the fallback")
	}
	if got.Year() != 2025 || got.Month() != time.August || got.Day() != 7 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "not a date"} {
		if _, ok := ParseDate(in); ok {
			t.Fatalf("%q expected not to parse", in)
		}
	}
}

func TestSortTimeUsesEpochForInvalid(t *testing.T) {
	if got := SortTime("garbage"); !got.Equal(time.Unix(0, 0)) {
		t.Fatalf("expected epoch, got %v", got)
	}
	if got := SortTime("01/Jan/2024 00:00"); got.Year() != 2024 {
		t.Fatalf("expected 2024, got %v", got)
	}
}

func TestFormatBankDate(t *testing.T) {
	in := "07/Aug/2025 09:05"
	tm, _ := ParseDate(in)
	if got := FormatBankDate(tm); got != in {
		t.Fatalf("got %q, want %q", got, in)
	}
}
