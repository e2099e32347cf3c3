package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalImageStore writes images under a directory served by the HTTP layer.
type LocalImageStore struct {
	dir    string
	prefix string
}

// NewLocalImageStore ensures dir exists.
func NewLocalImageStore(dir, publicPrefix string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalImageStore{dir: dir, prefix: "/" + strings.Trim(publicPrefix, "/")}, nil
}

// Dir returns the directory images are written to.
func (s *LocalImageStore) Dir() string {
	return s.dir
}

// Prefix returns the URL prefix images are served under.
func (s *LocalImageStore) Prefix() string {
	return s.prefix
}

// Save copies body into a new file and returns its public path.
func (s *LocalImageStore) Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := objectName(filename, contentType)
	target := filepath.Join(s.dir, name)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("close image file: %w", err)
	}
	return path.Join(s.prefix, name), nil
}

// Delete removes the file behind a reference returned by Save.
func (s *LocalImageStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, ok := strings.CutPrefix(ref, s.prefix+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return fmt.Errorf("image reference %q is outside %s", ref, s.prefix)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}
