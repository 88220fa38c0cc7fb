package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tally/internal/log"
	"tally/internal/profiles/memory"
	"tally/internal/services"
)

const bankCSV = `"","From","Routing","Reason","Amount","Balance","Date"
"1","Client A","","Consulting","+$1,200","$1,200","07/Aug/2025 10:00"
"2","Client A","","Consulting","+$100","$1,300","07/Aug/2025 10:30"
"3","Cafe","","Tea","-$2.50","$1,297.50","08/Sep/2025 09:00"`

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{4.5, "$4.50"},
		{-2500, "-$2,500.00"},
		{1234567.891, "$1,234,567.89"},
		{math.NaN(), "n/a"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Errorf("formatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := formatHours(2.5); got != "2.50h" {
		t.Errorf("formatHours = %q", got)
	}
}

func newTestService(t *testing.T) *services.ProfileService {
	t.Helper()
	store := memory.New()
	if err := store.SetText(context.Background(), "main", bankCSV); err != nil {
		t.Fatal(err)
	}
	return services.NewProfileService(store, services.Options{Logger: log.Discard()})
}

func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), log.Discard(), "frobnicate", nil, &bytes.Buffer{})
	if !errors.Is(err, errUsage) {
		t.Fatalf("expected errUsage, got %v", err)
	}
}

func TestSummaryCommand(t *testing.T) {
	var out bytes.Buffer
	if err := runSummary(context.Background(), newTestService(t), []string{"-profile", "main"}, &out); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{"Transactions  3", "$1,300.00", "-$2.50", "2025-08", "2025-09"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary output missing %q:\n%s", want, s)
		}
	}

	if err := runSummary(context.Background(), newTestService(t), nil, &out); !errors.Is(err, errUsage) {
		t.Errorf("expected errUsage without -profile, got %v", err)
	}
}

func TestExportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	args := []string{"-profile", "main", "-type", "deposits", "-sort", "amount", "-desc", "-out", path}
	if err := runExport(context.Background(), newTestService(t), args, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "+$1,200") {
		t.Fatalf("unexpected export:\n%s", data)
	}

	if err := runExport(context.Background(), newTestService(t), []string{"-profile", "main", "-type", "refunds"}, &bytes.Buffer{}); !errors.Is(err, errUsage) {
		t.Errorf("expected errUsage for bad type, got %v", err)
	}
}

func TestDefsAndHoursCommands(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "defs.yaml")
	yaml := `- name: Consulting
  reason_matches: [consult]
  track_time: true
`
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runDefs(ctx, svc, []string{"import", "-profile", "main", "-file", file}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "1 new") {
		t.Errorf("unexpected import output %q", out.String())
	}

	out.Reset()
	if err := runDefs(ctx, svc, []string{"list", "-profile", "main", "-evaluate"}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Consulting") || !strings.Contains(out.String(), "1.50h") {
		t.Errorf("unexpected results output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "07/Aug/2025 10:00 - 07/Aug/2025 11:30") {
		t.Errorf("expected the session span in bank date layout:\n%s", out.String())
	}

	out.Reset()
	if err := runHours(ctx, svc, []string{"-profile", "main", "-entity", "client a"}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "1.50h") {
		t.Errorf("unexpected hours output %q", out.String())
	}

	if err := runDefs(ctx, svc, []string{"rename"}, &out); !errors.Is(err, errUsage) {
		t.Errorf("expected errUsage, got %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "bank.csv")
	bad := filepath.Join(dir, "notes.txt")
	_ = os.WriteFile(good, []byte(bankCSV), 0o644)
	_ = os.WriteFile(bad, []byte("just one line"), 0o644)

	var out bytes.Buffer
	if err := runCheck([]string{"-file", good, "-unique", "From"}, &out); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.Contains(s, "7 columns, 3 rows") || !strings.Contains(s, "  Cafe") {
		t.Errorf("unexpected check output:\n%s", s)
	}
	if !strings.Contains(s, "Invalid") {
		t.Errorf("check output should report invalid values:\n%s", s)
	}

	out.Reset()
	if err := runCheck([]string{"-file", bad}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "does not look like CSV") {
		t.Errorf("unexpected check output %q", out.String())
	}
}
