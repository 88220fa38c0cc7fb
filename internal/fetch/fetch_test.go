package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

const bankText = `"TransactionID","From","Routing","Reason","Amount","Balance","Date"
"1","ACME","","Invoice","+$500","$500","07/Aug/2025 10:00"`

func TestKind(t *testing.T) {
	tests := map[string]string{
		"https://bank.example/export.csv": "http",
		"HTTP://bank.example/export":      "http",
		"gs://bucket/path/export.csv":     "gcs",
		"sheets://abc123/Sheet1!A:G":      "sheets",
		"./statements/march.xlsx":         "xlsx",
		"./statements/march.csv":          "file",
		"file:///tmp/a.csv":               "file",
	}
	for source, want := range tests {
		if got := Kind(source); got != want {
			t.Errorf("Kind(%q) = %q, want %q", source, got, want)
		}
	}
}

func TestRouterDispatch(t *testing.T) {
	var got []string
	record := func(kind string) Fetcher {
		return FetcherFunc(func(_ context.Context, source string) (string, error) {
			got = append(got, kind+":"+source)
			return kind, nil
		})
	}
	r := &Router{HTTP: record("http"), GCS: record("gcs"), Sheets: record("sheets"), XLSX: record("xlsx"), File: record("file")}

	for _, source := range []string{"https://x/y", "gs://b/o", "sheets://id/A:B", "a.xlsx", "a.csv"} {
		if _, err := r.Fetch(context.Background(), source); err != nil {
			t.Fatalf("Fetch(%q) error = %v", source, err)
		}
	}
	want := "http:https://x/y gcs:gs://b/o sheets:sheets://id/A:B xlsx:a.xlsx file:a.csv"
	if strings.Join(got, " ") != want {
		t.Fatalf("dispatch = %v", got)
	}
}

func TestRouterUnconfigured(t *testing.T) {
	r := &Router{File: FileFetcher{}}
	_, err := r.Fetch(context.Background(), "gs://bucket/object")
	if !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("expected ErrUnsupportedSource, got %v", err)
	}
	if _, err := r.Fetch(context.Background(), "  "); !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("expected ErrUnsupportedSource for empty source, got %v", err)
	}
}

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(bankText), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, source := range []string{path, "file://" + path} {
		text, err := FileFetcher{}.Fetch(context.Background(), source)
		if err != nil || text != bankText {
			t.Fatalf("Fetch(%q) = %q, %v", source, text, err)
		}
	}
	if _, err := (FileFetcher{}).Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileFetcherRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "export.csv"), []byte(bankText), 0o644); err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(t.TempDir(), "secret.env")
	if err := os.WriteFile(outside, []byte("DB_PASSWORD=hunter2"), 0o600); err != nil {
		t.Fatal(err)
	}
	f := FileFetcher{Root: root}

	for _, source := range []string{"export.csv", filepath.Join(root, "export.csv"), "file://" + filepath.Join(root, "export.csv")} {
		text, err := f.Fetch(context.Background(), source)
		if err != nil || text != bankText {
			t.Fatalf("Fetch(%q) = %q, %v", source, text, err)
		}
	}
	for _, source := range []string{outside, "/etc/passwd", "../secret.env", "sub/../../secret.env", "file:///etc/passwd"} {
		if err := f.Check(source); !errors.Is(err, ErrSourceNotAllowed) {
			t.Errorf("Check(%q) = %v, want ErrSourceNotAllowed", source, err)
		}
		if _, err := f.Fetch(context.Background(), source); !errors.Is(err, ErrSourceNotAllowed) {
			t.Errorf("Fetch(%q) = %v, want ErrSourceNotAllowed", source, err)
		}
	}

	link := filepath.Join(root, "link.csv")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if _, err := f.Fetch(context.Background(), "link.csv"); !errors.Is(err, ErrSourceNotAllowed) {
		t.Fatalf("a symlink leaving the root must be rejected, got %v", err)
	}
}

func TestPublicHTTPFetcherRejectsPrivateHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("internal"))
	}))
	defer srv.Close()

	f := NewPublicHTTPFetcher(time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL); !errors.Is(err, ErrSourceNotAllowed) {
		t.Fatalf("loopback connect should be refused, got %v", err)
	}

	for _, source := range []string{
		"http://localhost/x",
		"http://127.0.0.1/x",
		"http://10.0.0.8/x",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/x",
		"http://100.64.0.1/x",
	} {
		if err := f.Check(source); !errors.Is(err, ErrSourceNotAllowed) {
			t.Errorf("Check(%q) = %v, want ErrSourceNotAllowed", source, err)
		}
	}
	if err := f.Check("ftp://example.com/x"); !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("non-http scheme should be unsupported, got %v", err)
	}
	if err := f.Check("https://bank.example.com/export.csv"); err != nil {
		t.Errorf("public host rejected: %v", err)
	}
	if err := NewHTTPFetcher(nil, time.Second).Check(srv.URL); err != nil {
		t.Errorf("unrestricted fetcher should accept loopback, got %v", err)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(bankText))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), 0)
	text, err := f.Fetch(context.Background(), srv.URL+"/export.csv")
	if err != nil || text != bankText {
		t.Fatalf("Fetch() = %q, %v", text, err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestHTTPFetcherHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := NewHTTPFetcher(nil, time.Minute).Fetch(ctx, srv.URL); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestXLSXFetcher(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	rows := [][]interface{}{
		{"", "From", "Routing", "Reason", "Amount", "Balance", "Date"},
		{"1", "ACME", "", "Invoice", "+$500", "$500", "07/Aug/2025 10:00"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	text, err := (&Router{XLSX: XLSXFetcher{}}).Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if text != bankText {
		t.Fatalf("Fetch() =\n%s\nwant\n%s", text, bankText)
	}

	confined := &Router{XLSX: XLSXFetcher{Root: t.TempDir()}}
	if _, err := confined.Fetch(context.Background(), path); !errors.Is(err, ErrSourceNotAllowed) {
		t.Fatalf("workbook outside the root should be rejected, got %v", err)
	}
}

func TestParseSources(t *testing.T) {
	bucket, object, err := parseGCSSource("gs://exports/2025/aug.csv")
	if err != nil || bucket != "exports" || object != "2025/aug.csv" {
		t.Fatalf("parseGCSSource() = %q, %q, %v", bucket, object, err)
	}
	if _, _, err := parseGCSSource("gs://exports"); !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("expected error for bucket without object, got %v", err)
	}

	id, rng, err := parseSheetsSource("sheets://abc123/Bank!A1:G500")
	if err != nil || id != "abc123" || rng != "Bank!A1:G500" {
		t.Fatalf("parseSheetsSource() = %q, %q, %v", id, rng, err)
	}
	if _, _, err := parseSheetsSource("sheets://abc123"); err == nil {
		t.Fatal("expected error without range")
	}
}

func TestValuesToRecords(t *testing.T) {
	got := renderRecords(valuesToRecords([][]interface{}{
		{"", "Amount"},
		{1, 2.5},
		{"x", nil},
	}))
	want := "\"TransactionID\",\"Amount\"\n\"1\",\"2.5\"\n\"x\",\"\""
	if got != want {
		t.Fatalf("renderRecords() = %q, want %q", got, want)
	}
	if renderRecords(nil) != "" {
		t.Fatal("expected empty text for no records")
	}
}
