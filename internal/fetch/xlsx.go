package fetch

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// XLSXFetcher reads the first sheet of a local workbook. Root confines paths
// the way it does for FileFetcher.
type XLSXFetcher struct {
	Root string
}

func (x XLSXFetcher) Fetch(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := openablePath(x.Root, source)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return ReadXLSX(f)
}

func (x XLSXFetcher) Check(source string) error {
	_, err := confine(x.Root, source)
	return err
}

// ReadXLSX renders the first sheet of the workbook in r as quoted bank text.
func ReadXLSX(r io.Reader) (string, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer xl.Close()

	sheet := xl.GetSheetName(0)
	if sheet == "" {
		return "", fmt.Errorf("workbook has no sheets")
	}
	rows, err := xl.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("get rows of %s: %w", sheet, err)
	}
	return renderRecords(rows), nil
}
