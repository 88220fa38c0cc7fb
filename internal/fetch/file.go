package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileFetcher reads local paths. A file:// prefix is accepted. With Root set,
// relative paths resolve under Root and paths that leave it are rejected with
// ErrSourceNotAllowed.
type FileFetcher struct {
	Root string
}

func (f FileFetcher) Fetch(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := openablePath(f.Root, source)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

// Check rejects paths outside Root without touching the filesystem.
func (f FileFetcher) Check(source string) error {
	_, err := confine(f.Root, source)
	return err
}

// confine resolves source against root lexically. An empty root allows any
// path.
func confine(root, source string) (string, error) {
	path := strings.TrimPrefix(strings.TrimSpace(source), "file://")
	if root == "" {
		return path, nil
	}
	base, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	path = filepath.Clean(path)
	if !within(base, path) {
		return "", fmt.Errorf("%w: %s is outside the import root", ErrSourceNotAllowed, source)
	}
	return path, nil
}

// openablePath confines source and then follows symlinks, so a link inside
// root cannot point outside it.
func openablePath(root, source string) (string, error) {
	path, err := confine(root, source)
	if err != nil || root == "" {
		return path, err
	}
	base, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if base, err = filepath.Abs(base); err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if !within(base, resolved) {
		return "", fmt.Errorf("%w: %s is outside the import root", ErrSourceNotAllowed, source)
	}
	return resolved, nil
}

func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
