package fetch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

const gcsScheme = "gs://"

// GCSFetcher reads gs://bucket/object sources.
type GCSFetcher struct {
	client *storage.Client
}

// NewGCSFetcher creates a storage client with application default credentials.
func NewGCSFetcher(ctx context.Context) (*GCSFetcher, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSFetcher{client: client}, nil
}

func (f *GCSFetcher) Close() error {
	return f.client.Close()
}

func (f *GCSFetcher) Fetch(ctx context.Context, source string) (string, error) {
	bucket, object, err := parseGCSSource(source)
	if err != nil {
		return "", err
	}

	r, err := f.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read GCS object: %w", err)
	}
	return string(data), nil
}

func parseGCSSource(source string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(source, gcsScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %s is not a gs:// source", ErrUnsupportedSource, source)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: want gs://bucket/object, got %s", ErrUnsupportedSource, source)
	}
	return bucket, object, nil
}
