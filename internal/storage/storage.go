package storage

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore persists uploaded pet images and returns a public reference.
type ImageStore interface {
	Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
	// Delete removes an image by the reference Save returned. Missing images are not an error.
	Delete(ctx context.Context, ref string) error
}

// objectName builds a collision-free name that keeps the upload's extension.
func objectName(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return uuid.NewString() + ext
}
