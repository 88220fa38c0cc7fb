package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const sheetsScheme = "sheets://"

// SheetsFetcher reads sheets://<spreadsheet id>/<A1 range> sources and renders
// the values as quoted bank text. The first row of the range is the header.
type SheetsFetcher struct {
	svc *gsheet.Service
}

// NewSheetsFetcherFromEnv creates a read-only Sheets client from service
// account credentials in GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewSheetsFetcherFromEnv(ctx context.Context) (*SheetsFetcher, error) {
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsFetcher{svc: svc}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "credentials_size", len(credentialsJSON))
	return service, nil
}

func (f *SheetsFetcher) Fetch(ctx context.Context, source string) (string, error) {
	if f.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	spreadsheetID, rng, err := parseSheetsSource(source)
	if err != nil {
		return "", err
	}

	resp, err := f.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read range %s: %w", rng, err)
	}
	return renderRecords(valuesToRecords(resp.Values)), nil
}

func parseSheetsSource(source string) (spreadsheetID, rng string, err error) {
	rest, ok := strings.CutPrefix(source, sheetsScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %s is not a sheets:// source", ErrUnsupportedSource, source)
	}
	spreadsheetID, rng, _ = strings.Cut(rest, "/")
	if spreadsheetID == "" || rng == "" {
		return "", "", fmt.Errorf("%w: want sheets://<spreadsheet>/<range>, got %s", ErrUnsupportedSource, source)
	}
	return spreadsheetID, rng, nil
}

// valuesToRecords converts the Sheets API value matrix to string records.
func valuesToRecords(values [][]interface{}) [][]string {
	out := make([][]string, 0, len(values))
	for _, row := range values {
		out = append(out, toStrings(row))
	}
	return out
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
